// Package colour provides the RGB colour type shared by the analysis, report
// and rendering packages, plus terminal previews.
package colour

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Ints returns the channels as plain integers, the form used in JSON reports.
func (rgb RGB) Ints() []int {
	return []int{int(rgb.R), int(rgb.G), int(rgb.B)}
}

// RGBA returns the colour as an opaque color.RGBA.
func (rgb RGB) RGBA() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// Colorful converts to a go-colorful colour.
func (rgb RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// ParseHex parses "#rrggbb" (or the short "#rgb" form).
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Luminance returns the WCAG relative luminance in [0, 1].
func (rgb RGB) Luminance() float64 {
	r, g, b := rgb.Colorful().LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// ContrastRatio returns the WCAG contrast ratio between two colours (1 to 21).
func ContrastRatio(a, b RGB) float64 {
	la, lb := a.Luminance(), b.Luminance()
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

var (
	// Black and White are the text colours Contrasting chooses between.
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
)

// Contrasting returns black or white, whichever reads better on rgb.
func (rgb RGB) Contrasting() RGB {
	if ContrastRatio(rgb, Black) >= ContrastRatio(rgb, White) {
		return Black
	}
	return White
}
