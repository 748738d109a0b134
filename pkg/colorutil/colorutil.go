// Package colorutil provides shared color utilities for the deconvolution tools.
package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB8 returns the 8-bit red, green and blue components of c.
// Components are premultiplied by alpha, as color.Color.RGBA reports them.
func RGB8(c color.Color) (r, g, b uint8) {
	r32, g32, b32, _ := c.RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}

// Hex formats an 8-bit RGB triple as "#rrggbb".
func Hex(r, g, b uint8) string {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}
