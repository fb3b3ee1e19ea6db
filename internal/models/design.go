package models

import (
	"fmt"
	"strconv"
	"strings"
)

type FontFamily string

const (
	FontHelvetica FontFamily = "Helvetica"
	FontTimes     FontFamily = "Times-Roman"
	FontCourier   FontFamily = "Courier"
)

const DefaultHeaderText = "IDENTIFICATION CARD"

type RGB struct {
	R, G, B int
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// DesignConfig is the validated, immutable design of one generation request.
type DesignConfig struct {
	Font       FontFamily
	TextColor  RGB
	BgColor    RGB
	HeaderText string
	FooterText string
	QRCode     bool
	// Logo is the reference from the request. LogoImage holds the resolved
	// PNG once generation has loaded it.
	Logo      string
	LogoImage []byte
}

// InvalidDesignError is returned when a requested design cannot be rendered.
type InvalidDesignError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidDesignError) Error() string {
	return fmt.Sprintf("invalid design %s %q: %s", e.Field, e.Value, e.Reason)
}

// ParseDesign validates the client's design request. Colors must be exactly
// six hex digits with an optional leading '#'.
func ParseDesign(req DesignRequest) (DesignConfig, error) {
	font, err := ParseFont(req.Font)
	if err != nil {
		return DesignConfig{}, err
	}
	text, err := ParseHexColor(req.TextColor)
	if err != nil {
		return DesignConfig{}, &InvalidDesignError{Field: "textColor", Value: req.TextColor, Reason: err.Error()}
	}
	bg, err := ParseHexColor(req.BgColor)
	if err != nil {
		return DesignConfig{}, &InvalidDesignError{Field: "bgColor", Value: req.BgColor, Reason: err.Error()}
	}

	logo, err := parseLogo(req.Logo)
	if err != nil {
		return DesignConfig{}, err
	}

	header := strings.TrimSpace(req.HeaderText)
	if header == "" {
		header = DefaultHeaderText
	}

	return DesignConfig{
		Font:       font,
		TextColor:  text,
		BgColor:    bg,
		HeaderText: header,
		FooterText: strings.TrimSpace(req.FooterText),
		QRCode:     req.QRCode == nil || *req.QRCode,
		Logo:       logo,
	}, nil
}

// parseLogo checks what can be checked about a logo reference before it is
// loaded.
func parseLogo(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	if !strings.HasPrefix(lower, "data:") {
		return ref, nil
	}
	meta, _, ok := strings.Cut(lower[len("data:"):], ",")
	if !ok {
		return "", &InvalidDesignError{Field: "logo", Value: shortValue(ref), Reason: "malformed data URI"}
	}
	if strings.HasPrefix(meta, "image/svg") {
		return "", &InvalidDesignError{Field: "logo", Value: shortValue(ref), Reason: "SVG logos are not supported, use PNG or JPEG"}
	}
	return ref, nil
}

func shortValue(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

func ParseFont(name string) (FontFamily, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "helvetica":
		return FontHelvetica, nil
	case "times-roman", "times":
		return FontTimes, nil
	case "courier":
		return FontCourier, nil
	}
	return "", &InvalidDesignError{
		Field:  "font",
		Value:  name,
		Reason: "must be one of Helvetica, Times-Roman, Courier",
	}
}

func ParseHexColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("expected 6 hex digits")
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("not a hex color")
	}
	return RGB{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, nil
}
