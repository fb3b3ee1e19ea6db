package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"idcard-backend/internal/models"
)

func baseDesign() models.DesignRequest {
	return models.DesignRequest{Font: "Helvetica", TextColor: "#000000", BgColor: "FFFFFF"}
}

func TestParseDesign_Defaults(t *testing.T) {
	design, err := models.ParseDesign(baseDesign())
	require.NoError(t, err)

	assert.Equal(t, models.FontHelvetica, design.Font)
	assert.Equal(t, models.RGB{R: 0xFF, G: 0xFF, B: 0xFF}, design.BgColor)
	assert.Equal(t, models.DefaultHeaderText, design.HeaderText)
	assert.True(t, design.QRCode)
	assert.Empty(t, design.Logo)
}

func TestParseDesign_QRCodeToggle(t *testing.T) {
	off := false
	req := baseDesign()
	req.QRCode = &off

	design, err := models.ParseDesign(req)
	require.NoError(t, err)
	assert.False(t, design.QRCode)
}

func TestParseDesign_Logo(t *testing.T) {
	for _, ref := range []string{
		"branding/logo.png",
		"https://example.com/logo.jpg",
		"data:image/png;base64,iVBORw0KGgo=",
	} {
		req := baseDesign()
		req.Logo = "  " + ref + " "
		design, err := models.ParseDesign(req)
		require.NoError(t, err, ref)
		assert.Equal(t, ref, design.Logo)
	}

	tests := []struct {
		name   string
		logo   string
		reason string
	}{
		{"svg", "data:image/svg+xml;base64,PHN2Zz48L3N2Zz4=", "SVG logos are not supported, use PNG or JPEG"},
		{"no payload", "data:image/png;base64", "malformed data URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseDesign()
			req.Logo = tt.logo
			_, err := models.ParseDesign(req)

			var invalid *models.InvalidDesignError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "logo", invalid.Field)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := models.ParseHexColor("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, models.RGB{R: 0x1A, G: 0x2B, B: 0x3C}, c)
	assert.Equal(t, "#1A2B3C", c.Hex())

	for _, bad := range []string{"", "#FFF", "red", "#GG0000", "#1234567"} {
		_, err := models.ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}
