package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"idcard-backend/internal/layout"
	"idcard-backend/internal/models"
)

func TestBuild_PageCount(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	require.Equal(t, 10, tpl.Capacity())

	tests := []struct {
		rows  int
		pages int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{10, 1},
		{11, 2},
		{20, 2},
		{21, 3},
		{5000, 500},
	}

	for _, tt := range tests {
		plan := layout.Build(tt.rows, tpl)
		assert.Equal(t, tt.pages, plan.Pages(), "rows=%d", tt.rows)
		assert.Len(t, plan.Cards, tt.rows)
	}
}

func TestBuild_SlotMapping(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	plan := layout.Build(23, tpl)

	for i, c := range plan.Cards {
		assert.Equal(t, i, c.Row)
		assert.Equal(t, i/10, c.Page)
		assert.Equal(t, i%10, c.Slot)
		assert.Equal(t, c.Slot/2, c.GridRow)
		assert.Equal(t, c.Slot%2, c.GridCol)
	}

	assert.Len(t, plan.PageCards(0), 10)
	assert.Len(t, plan.PageCards(2), 3)
	assert.Nil(t, plan.PageCards(3))
	assert.Equal(t, 20, plan.PageCards(2)[0].Row)
}

func TestBuild_IsDeterministic(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	assert.Equal(t, layout.Build(37, tpl), layout.Build(37, tpl))
}

func TestBuild_GeometryStaysOnPage(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	plan := layout.Build(10, tpl)

	first := plan.Cards[0].Card
	assert.InDelta(t, (210-(2*85.6+2))/2, first.X, 1e-9)
	assert.InDelta(t, (297-(5*53.98+4*2))/2, first.Y, 1e-9)

	second := plan.Cards[1].Card
	assert.InDelta(t, first.X+85.6+2, second.X, 1e-9)
	assert.InDelta(t, first.Y, second.Y, 1e-9)

	third := plan.Cards[2].Card
	assert.InDelta(t, first.Y+53.98+2, third.Y, 1e-9)

	for _, c := range plan.Cards {
		assert.GreaterOrEqual(t, c.Card.X, tpl.Margin)
		assert.GreaterOrEqual(t, c.Card.Y, tpl.Margin)
		assert.LessOrEqual(t, c.Card.X+c.Card.W, tpl.PageWidth-tpl.Margin)
		assert.LessOrEqual(t, c.Card.Y+c.Card.H, tpl.PageHeight-tpl.Margin)

		photo := c.Fields.Photo
		assert.InDelta(t, c.Card.X+0.04*85.6, photo.X, 1e-9)
		assert.InDelta(t, 0.28*85.6, photo.W, 1e-9)
		assert.LessOrEqual(t, photo.Y+photo.H, c.Card.Y+c.Card.H)
	}
}

func TestBuild_PortraitGrid(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	tpl.CardWidth, tpl.CardHeight = tpl.CardHeight, tpl.CardWidth
	tpl.GridRows, tpl.GridCols = 3, 3
	tpl.Fields = models.PortraitFields()
	require.NoError(t, tpl.Validate())

	plan := layout.Build(10, tpl)
	assert.Equal(t, 2, plan.Pages())
	assert.Equal(t, 1, plan.Cards[9].Page)
	assert.Equal(t, 0, plan.Cards[9].Slot)
	assert.Equal(t, 2, plan.Cards[5].GridCol)
	assert.Equal(t, 1, plan.Cards[5].GridRow)
}

func TestCardTemplate_ValidateRejectsOversizedGrid(t *testing.T) {
	tpl := models.DefaultCardTemplate()
	tpl.GridRows = 6
	assert.Error(t, tpl.Validate())

	tpl = models.DefaultCardTemplate()
	tpl.GridCols = 0
	assert.Error(t, tpl.Validate())
}

func overlaps(a, b models.Box) bool {
	return a.X < b.X+b.W && b.X < a.X+a.W && a.Y < b.Y+b.H && b.Y < a.Y+a.H
}

func TestFields_LogoAndQRClearOfText(t *testing.T) {
	for name, fields := range map[string]models.CardFields{
		"landscape": models.LandscapeFields(),
		"portrait":  models.PortraitFields(),
	} {
		t.Run(name, func(t *testing.T) {
			for _, b := range []models.Box{fields.Logo, fields.QR} {
				assert.GreaterOrEqual(t, b.X, 0.0)
				assert.GreaterOrEqual(t, b.Y, 0.0)
				assert.LessOrEqual(t, b.X+b.W, 1.0)
				assert.LessOrEqual(t, b.Y+b.H, 1.0)
			}
			others := []models.Box{fields.Photo, fields.Name, fields.ID, fields.Department, fields.Extra, fields.Footer}
			for i, o := range others {
				assert.False(t, overlaps(fields.QR, o), "QR overlaps field %d", i)
				assert.False(t, overlaps(fields.Logo, o), "logo overlaps field %d", i)
			}
		})
	}
}
