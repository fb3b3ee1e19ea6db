package render

import (
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// qrPixels is the raster size of an encoded QR code. It is sharp at the
// printed size of either card orientation.
const qrPixels = 256

// QRPayload is the text encoded in a card's QR code.
func QRPayload(card CardData) string {
	payload, _ := json.Marshal(struct {
		ID    string `json:"ID"`
		Name  string `json:"Name"`
		Class string `json:"Class"`
	}{card.ID, card.Name, card.Department})
	return string(payload)
}

// EncodeQR renders content as a square black-on-white PNG with the standard
// quiet zone.
func EncodeQR(content string, size int) ([]byte, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	data, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to write QR code: %w", err)
	}
	return data, nil
}
