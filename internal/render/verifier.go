package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Verifier checks a rendered document before it is handed out.
type Verifier struct {
	conf *model.Configuration
}

func NewVerifier() *Verifier {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Verifier{conf: conf}
}

// Verify validates the PDF structure and that it has wantPages pages.
func (v *Verifier) Verify(pdf []byte, wantPages int) error {
	if err := api.Validate(bytes.NewReader(pdf), v.conf); err != nil {
		return fmt.Errorf("generated PDF is invalid: %w", err)
	}
	pages, err := api.PageCount(bytes.NewReader(pdf), v.conf)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}
	if pages != wantPages {
		return fmt.Errorf("generated PDF has %d pages, expected %d", pages, wantPages)
	}
	return nil
}
