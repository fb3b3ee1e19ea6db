package photo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// PixelsPerMM is the raster density of photos placed on a card (~300 dpi).
	PixelsPerMM = 12
	jpegQuality = 85
	// maxSourcePixels rejects images whose header announces absurd dimensions.
	maxSourcePixels = 50_000_000
)

// Normalizer crops decoded photos to the card's photo slot and re-encodes
// them as JPEG.
type Normalizer struct {
	width  int
	height int
}

// NewNormalizer sizes output images for a slot of wMM x hMM millimetres.
func NewNormalizer(wMM, hMM float64) *Normalizer {
	w := int(math.Round(wMM * PixelsPerMM))
	h := int(math.Round(hMM * PixelsPerMM))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Normalizer{width: w, height: h}
}

func (n *Normalizer) Size() (int, int) {
	return n.width, n.height
}

// Normalize decodes raw image bytes and returns the cropped JPEG together
// with the source format name.
func (n *Normalizer) Normalize(raw []byte) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("unsupported or corrupt image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, "", fmt.Errorf("image dimensions %dx%d out of range", cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	cropped := imaging.Fill(img, n.width, n.height, imaging.Center, imaging.Lanczos)
	data, err := encodeJPEG(cropped)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// FitPNG scales raw down to fit within w x h pixels, keeping its aspect
// ratio and transparency, and encodes it as PNG.
func FitPNG(raw []byte, w, h int) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unsupported or corrupt image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("image dimensions %dx%d out of range", cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Fit(img, w, h, imaging.Lanczos), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Placeholder draws a neutral head-and-shoulders silhouette.
func (n *Normalizer) Placeholder() []byte {
	w, h := n.width, n.height
	img := imaging.New(w, h, color.NRGBA{R: 0xE4, G: 0xE6, B: 0xEA, A: 0xFF})
	fg := color.NRGBA{R: 0xA8, G: 0xAD, B: 0xB5, A: 0xFF}

	fw, fh := float64(w), float64(h)
	headX, headY := fw/2, fh*0.38
	headR := math.Min(fw, fh) * 0.2
	bodyX, bodyY := fw/2, fh*1.02
	bodyRX, bodyRY := fw*0.38, fh*0.38

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			dx, dy := px-headX, py-headY
			inHead := dx*dx+dy*dy <= headR*headR
			ex, ey := (px-bodyX)/bodyRX, (py-bodyY)/bodyRY
			inBody := ex*ex+ey*ey <= 1
			if inHead || inBody {
				img.SetNRGBA(x, y, fg)
			}
		}
	}

	data, err := encodeJPEG(img)
	if err != nil {
		// Encoding an in-memory NRGBA image does not fail.
		panic(err)
	}
	return data
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
