package render

import "unicode/utf8"

const ellipsis = "..."

// FitText shortens s until it fits maxWidth as measured by width, appending
// an ellipsis when anything was cut.
func FitText(s string, maxWidth float64, width func(string) float64) string {
	if width(s) <= maxWidth {
		return s
	}
	if width(ellipsis) > maxWidth {
		return ""
	}
	cut := s
	for len(cut) > 0 {
		_, size := utf8.DecodeLastRuneInString(cut)
		cut = cut[:len(cut)-size]
		if width(cut+ellipsis) <= maxWidth {
			return cut + ellipsis
		}
	}
	return ellipsis
}

// fontSize picks a point size that fills a box of height h mm, capped at max.
func fontSize(h, max float64) float64 {
	const ptPerMM = 72 / 25.4
	size := h * ptPerMM * 0.7
	if size > max {
		return max
	}
	if size < 4 {
		return 4
	}
	return size
}
