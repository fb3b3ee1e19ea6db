package models

import "fmt"

// Box is a rectangle. In a CardTemplate the values are fractions of the card
// size; in a layout plan they are millimetres on the page.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// CardFields holds one box per printable field of a card.
type CardFields struct {
	Header     Box
	Photo      Box
	Name       Box
	ID         Box
	Department Box
	Extra      Box
	Footer     Box
	// Logo sits at the left end of the header.
	Logo Box
	QR   Box
}

// CardTemplate describes the physical card and how cards tile a page.
type CardTemplate struct {
	PageWidth  float64
	PageHeight float64
	CardWidth  float64
	CardHeight float64
	GridRows   int
	GridCols   int
	Margin     float64
	Gutter     float64
	// MaxExtraLines bounds how many unmatched columns are printed per card.
	MaxExtraLines int
	Fields        CardFields
}

// CR80 card on A4 paper, ten cards per page.
func DefaultCardTemplate() CardTemplate {
	return CardTemplate{
		PageWidth:     210,
		PageHeight:    297,
		CardWidth:     85.6,
		CardHeight:    53.98,
		GridRows:      5,
		GridCols:      2,
		Margin:        5,
		Gutter:        2,
		MaxExtraLines: 2,
		Fields:        LandscapeFields(),
	}
}

// LandscapeFields puts the photo on the left, text on the right and the QR
// code in the lower right corner.
func LandscapeFields() CardFields {
	return CardFields{
		Header:     Box{X: 0.04, Y: 0.04, W: 0.92, H: 0.14},
		Photo:      Box{X: 0.04, Y: 0.22, W: 0.28, H: 0.62},
		Name:       Box{X: 0.36, Y: 0.24, W: 0.60, H: 0.14},
		ID:         Box{X: 0.36, Y: 0.40, W: 0.60, H: 0.11},
		Department: Box{X: 0.36, Y: 0.52, W: 0.40, H: 0.11},
		Extra:      Box{X: 0.36, Y: 0.64, W: 0.40, H: 0.20},
		Footer:     Box{X: 0.04, Y: 0.87, W: 0.92, H: 0.10},
		Logo:       Box{X: 0.04, Y: 0.04, W: 0.14, H: 0.14},
		QR:         Box{X: 0.785, Y: 0.56, W: 0.175, H: 0.278},
	}
}

// PortraitFields stacks the photo above the text.
func PortraitFields() CardFields {
	return CardFields{
		Header:     Box{X: 0.05, Y: 0.03, W: 0.90, H: 0.07},
		Photo:      Box{X: 0.22, Y: 0.12, W: 0.56, H: 0.40},
		Name:       Box{X: 0.05, Y: 0.55, W: 0.90, H: 0.07},
		ID:         Box{X: 0.05, Y: 0.63, W: 0.90, H: 0.06},
		Department: Box{X: 0.05, Y: 0.70, W: 0.64, H: 0.06},
		Extra:      Box{X: 0.05, Y: 0.77, W: 0.64, H: 0.12},
		Footer:     Box{X: 0.05, Y: 0.92, W: 0.90, H: 0.05},
		Logo:       Box{X: 0.05, Y: 0.03, W: 0.20, H: 0.07},
		QR:         Box{X: 0.71, Y: 0.74, W: 0.24, H: 0.15},
	}
}

// Capacity is the number of cards per page.
func (t CardTemplate) Capacity() int {
	return t.GridRows * t.GridCols
}

// PhotoSize returns the photo slot size in millimetres.
func (t CardTemplate) PhotoSize() (w, h float64) {
	return t.Fields.Photo.W * t.CardWidth, t.Fields.Photo.H * t.CardHeight
}

// LogoSize returns the logo box size in millimetres.
func (t CardTemplate) LogoSize() (w, h float64) {
	return t.Fields.Logo.W * t.CardWidth, t.Fields.Logo.H * t.CardHeight
}

// Validate checks that the grid fits the page inside its margins.
func (t CardTemplate) Validate() error {
	if t.GridRows <= 0 || t.GridCols <= 0 {
		return fmt.Errorf("grid must have at least one row and column, got %dx%d", t.GridRows, t.GridCols)
	}
	if t.CardWidth <= 0 || t.CardHeight <= 0 {
		return fmt.Errorf("card size must be positive, got %gx%g", t.CardWidth, t.CardHeight)
	}
	gridW := float64(t.GridCols)*t.CardWidth + float64(t.GridCols-1)*t.Gutter
	gridH := float64(t.GridRows)*t.CardHeight + float64(t.GridRows-1)*t.Gutter
	if gridW > t.PageWidth-2*t.Margin {
		return fmt.Errorf("%d columns of %gmm cards need %.1fmm, page allows %.1fmm",
			t.GridCols, t.CardWidth, gridW, t.PageWidth-2*t.Margin)
	}
	if gridH > t.PageHeight-2*t.Margin {
		return fmt.Errorf("%d rows of %gmm cards need %.1fmm, page allows %.1fmm",
			t.GridRows, t.CardHeight, gridH, t.PageHeight-2*t.Margin)
	}
	return nil
}
