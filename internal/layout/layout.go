// Package layout maps dataset rows onto card slots of printed pages.
package layout

import "idcard-backend/internal/models"

// Placement is where one row's card lands. All boxes are absolute
// millimetres from the top-left corner of the page.
type Placement struct {
	Row     int
	Page    int
	Slot    int
	GridRow int
	GridCol int
	Card    models.Box
	Fields  models.CardFields
}

type Plan struct {
	Template models.CardTemplate
	Cards    []Placement
	pages    int
}

// Pages is the number of pages the plan fills.
func (p Plan) Pages() int {
	return p.pages
}

// PageCards returns the placements on page, in slot order.
func (p Plan) PageCards(page int) []Placement {
	c := p.Template.Capacity()
	start := page * c
	if page < 0 || start >= len(p.Cards) {
		return nil
	}
	end := start + c
	if end > len(p.Cards) {
		end = len(p.Cards)
	}
	return p.Cards[start:end]
}

// Build places n rows in order: row i goes to page i/C, slot i%C, where C
// is the template capacity. Slots fill left to right, then top to bottom.
func Build(n int, tpl models.CardTemplate) Plan {
	capacity := tpl.Capacity()
	if n <= 0 || capacity <= 0 {
		return Plan{Template: tpl}
	}

	gridW := float64(tpl.GridCols)*tpl.CardWidth + float64(tpl.GridCols-1)*tpl.Gutter
	gridH := float64(tpl.GridRows)*tpl.CardHeight + float64(tpl.GridRows-1)*tpl.Gutter
	left := (tpl.PageWidth - gridW) / 2
	top := (tpl.PageHeight - gridH) / 2

	cards := make([]Placement, n)
	for i := 0; i < n; i++ {
		slot := i % capacity
		gr, gc := slot/tpl.GridCols, slot%tpl.GridCols
		card := models.Box{
			X: left + float64(gc)*(tpl.CardWidth+tpl.Gutter),
			Y: top + float64(gr)*(tpl.CardHeight+tpl.Gutter),
			W: tpl.CardWidth,
			H: tpl.CardHeight,
		}
		cards[i] = Placement{
			Row:     i,
			Page:    i / capacity,
			Slot:    slot,
			GridRow: gr,
			GridCol: gc,
			Card:    card,
			Fields:  absoluteFields(card, tpl.Fields),
		}
	}

	return Plan{
		Template: tpl,
		Cards:    cards,
		pages:    (n + capacity - 1) / capacity,
	}
}

func absoluteFields(card models.Box, rel models.CardFields) models.CardFields {
	return models.CardFields{
		Header:     place(card, rel.Header),
		Photo:      place(card, rel.Photo),
		Name:       place(card, rel.Name),
		ID:         place(card, rel.ID),
		Department: place(card, rel.Department),
		Extra:      place(card, rel.Extra),
		Footer:     place(card, rel.Footer),
		Logo:       place(card, rel.Logo),
		QR:         place(card, rel.QR),
	}
}

func place(card, rel models.Box) models.Box {
	return models.Box{
		X: card.X + rel.X*card.W,
		Y: card.Y + rel.Y*card.H,
		W: rel.W * card.W,
		H: rel.H * card.H,
	}
}
