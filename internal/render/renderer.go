// Package render draws a layout plan into a PDF document.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"time"

	"github.com/go-pdf/fpdf"
	"idcard-backend/internal/layout"
	"idcard-backend/internal/models"
)

var ErrEmptyPlan = errors.New("nothing to render: plan has no cards")

const (
	placeholderImage = "placeholder"
	logoImage        = "logo"
	cellMargin       = 0.5
)

// Document is a rendered PDF and what went into it.
type Document struct {
	Bytes             []byte
	Pages             int
	Cards             int
	PlaceholderPhotos int
	QRCodes           int
	Logo              bool
}

type Renderer struct {
	// Now stamps the creation and modification dates. Fixing it makes
	// output byte-for-byte reproducible.
	Now         func() time.Time
	placeholder []byte
	logger      *slog.Logger
}

// NewRenderer uses placeholder for cards whose photo cannot be embedded.
func NewRenderer(placeholder []byte, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		Now:         time.Now,
		placeholder: placeholder,
		logger:      logger,
	}
}

func fontFamily(f models.FontFamily) string {
	switch f {
	case models.FontTimes:
		return "Times"
	case models.FontCourier:
		return "Courier"
	default:
		return "Helvetica"
	}
}

// Render draws one page per plan page and one card per row.
func (r *Renderer) Render(plan layout.Plan, cards []CardData, design models.DesignConfig) (*Document, error) {
	if len(plan.Cards) == 0 {
		return nil, ErrEmptyPlan
	}
	if len(cards) != len(plan.Cards) {
		return nil, fmt.Errorf("plan has %d slots but %d cards were given", len(plan.Cards), len(cards))
	}

	tpl := plan.Template
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: tpl.PageWidth, Ht: tpl.PageHeight},
	})
	now := r.Now()
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetProducer("idcard-backend", false)
	pdf.SetTitle("ID cards", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(cellMargin)

	placeholderOK := r.registerPhoto(pdf, placeholderImage, r.placeholder)
	if !placeholderOK {
		return nil, errors.New("placeholder image cannot be embedded")
	}

	doc := &Document{Pages: plan.Pages(), Cards: len(cards)}
	d := &cardDrawer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: fontFamily(design.Font),
		design: design,
		tpl:    tpl,
	}
	if len(design.LogoImage) > 0 {
		if w, h, ok := r.registerPNG(pdf, logoImage, design.LogoImage); ok {
			d.logoW, d.logoH = w, h
			doc.Logo = true
		} else {
			r.logger.Warn("logo could not be embedded, rendering without it")
		}
	}
	for page := 0; page < plan.Pages(); page++ {
		pdf.AddPage()
		for _, placement := range plan.PageCards(page) {
			card := cards[placement.Row]
			imageName := placeholderImage
			if !card.Photo.Missing && len(card.Photo.Data) > 0 {
				name := fmt.Sprintf("photo-%d", placement.Row)
				if r.registerPhoto(pdf, name, card.Photo.Data) {
					imageName = name
				} else {
					r.logger.Warn("photo could not be embedded, using placeholder", "row", placement.Row)
				}
			}
			if imageName == placeholderImage {
				doc.PlaceholderPhotos++
			}
			qrName := ""
			if design.QRCode && card.ID != "" {
				qrName = r.registerQR(pdf, placement.Row, card)
				if qrName != "" {
					doc.QRCodes++
				}
			}
			d.draw(placement, card, imageName, qrName)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	doc.Bytes = buf.Bytes()
	return doc, nil
}

// registerPhoto embeds a JPEG under name. Data that does not decode as a
// JPEG is refused before fpdf sees it.
func (r *Renderer) registerPhoto(pdf *fpdf.Fpdf, name string, data []byte) bool {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil || format != "jpeg" {
		return false
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return false
	}
	return true
}

// registerPNG embeds a PNG under name and returns its pixel size.
func (r *Renderer) registerPNG(pdf *fpdf.Fpdf, name string, data []byte) (int, int, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "png" {
		return 0, 0, false
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	if pdf.Err() {
		pdf.ClearError()
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// registerQR embeds the card's QR code. It returns "" when the code cannot
// be built; the card is then drawn without one.
func (r *Renderer) registerQR(pdf *fpdf.Fpdf, row int, card CardData) string {
	data, err := EncodeQR(QRPayload(card), qrPixels)
	if err != nil {
		r.logger.Warn("QR code skipped", "row", row, "error", err)
		return ""
	}
	name := fmt.Sprintf("qr-%d", row)
	if _, _, ok := r.registerPNG(pdf, name, data); !ok {
		r.logger.Warn("QR code could not be embedded", "row", row)
		return ""
	}
	return name
}

type cardDrawer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
	design models.DesignConfig
	tpl    models.CardTemplate
	// logoW and logoH are the registered logo's pixel size, zero without one.
	logoW, logoH int
}

func (d *cardDrawer) draw(p layout.Placement, card CardData, imageName, qrName string) {
	pdf := d.pdf
	bg, fg := d.design.BgColor, d.design.TextColor

	pdf.SetFillColor(bg.R, bg.G, bg.B)
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.2)
	pdf.Rect(p.Card.X, p.Card.Y, p.Card.W, p.Card.H, "FD")

	photo := p.Fields.Photo
	pdf.ImageOptions(imageName, photo.X, photo.Y, photo.W, photo.H, false, fpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	pdf.SetDrawColor(fg.R, fg.G, fg.B)
	pdf.SetLineWidth(0.1)
	pdf.Rect(photo.X, photo.Y, photo.W, photo.H, "D")

	if qrName != "" {
		box := p.Fields.QR
		side := min(box.W, box.H)
		pdf.ImageOptions(qrName, box.X+(box.W-side)/2, box.Y+(box.H-side)/2, side, side, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	header := p.Fields.Header
	if d.logoW > 0 {
		logo := fitBox(p.Fields.Logo, d.logoW, d.logoH)
		pdf.ImageOptions(logoImage, logo.X, logo.Y, logo.W, logo.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		// Keep the header text centred on the card, clear of the logo.
		inset := p.Fields.Logo.X + p.Fields.Logo.W - header.X
		if inset > 0 && 2*inset < header.W {
			header = models.Box{X: header.X + inset, Y: header.Y, W: header.W - 2*inset, H: header.H}
		}
	}

	pdf.SetTextColor(fg.R, fg.G, fg.B)
	d.text(header, d.design.HeaderText, "B", 9, "CM")
	d.text(p.Fields.Name, orMissing(card.Name), "B", 11, "LM")
	d.text(p.Fields.ID, "ID: "+orMissing(card.ID), "", 8, "LM")
	if card.Department != "" {
		d.text(p.Fields.Department, card.Department, "", 8, "LM")
	}

	if n := d.tpl.MaxExtraLines; n > 0 && len(card.Extra) > 0 {
		box := p.Fields.Extra
		lineH := box.H / float64(n)
		for i, f := range card.Extra {
			if i >= n {
				break
			}
			line := models.Box{X: box.X, Y: box.Y + float64(i)*lineH, W: box.W, H: lineH}
			d.text(line, f.Label+": "+f.Value, "", 7, "LM")
		}
	}

	if d.design.FooterText != "" {
		d.text(p.Fields.Footer, d.design.FooterText, "I", 6.5, "CM")
	}
}

// text writes s into box on a single line, truncating with an ellipsis.
func (d *cardDrawer) text(box models.Box, s, style string, maxSize float64, align string) {
	pdf := d.pdf
	pdf.SetFont(d.family, style, fontSize(box.H, maxSize))
	fitted := FitText(d.tr(s), box.W-2*cellMargin, pdf.GetStringWidth)
	pdf.SetXY(box.X, box.Y)
	pdf.CellFormat(box.W, box.H, fitted, "", 0, align, false, 0, "")
}

// fitBox centres a w x h pixel image in box at the largest scale that fits.
func fitBox(box models.Box, w, h int) models.Box {
	scale := min(box.W/float64(w), box.H/float64(h))
	fw, fh := float64(w)*scale, float64(h)*scale
	return models.Box{X: box.X + (box.W-fw)/2, Y: box.Y + (box.H-fh)/2, W: fw, H: fh}
}

func orMissing(s string) string {
	if s == "" {
		return MissingField
	}
	return s
}
