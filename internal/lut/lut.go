// Package lut builds the pseudo-colour tables used to display deconvolved
// stain channels. Tables are for display only and never feed back into the
// numeric pipeline.
package lut

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Size is the number of entries in each table.
const Size = 256

// Table maps a single-channel intensity to an RGB display colour.
type Table struct {
	R, G, B [Size]uint8
}

// Build returns one table per stain channel from the per-channel direction
// cosines. Index 255 is white and index 0 is the full-strength dye.
func Build(cosx, cosy, cosz [3]float64) [3]Table {
	var tables [3]Table
	for k := range tables {
		tables[k] = ForStain(cosx[k], cosy[k], cosz[k])
	}
	return tables
}

// ForStain builds the table for a single stain direction.
func ForStain(r, g, b float64) Table {
	var t Table
	for j := 0; j < Size; j++ {
		t.R[255-j] = ramp(j, r)
		t.G[255-j] = ramp(j, g)
		t.B[255-j] = ramp(j, b)
	}
	return t
}

// ramp computes 255 - j*cos, rounded and clamped. Synthesized stains can
// have negative cosines, which would otherwise exceed 255.
func ramp(j int, cos float64) uint8 {
	v := math.Floor(255 - float64(j)*cos + 0.5)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// At returns the display colour for intensity v.
func (t *Table) At(v uint8) color.RGBA {
	return color.RGBA{R: t.R[v], G: t.G[v], B: t.B[v], A: 0xff}
}

// Palette returns the table as a 256-colour palette for paletted images.
func (t *Table) Palette() color.Palette {
	p := make(color.Palette, Size)
	for i := range p {
		p[i] = t.At(uint8(i))
	}
	return p
}

// Dye returns the full-strength dye colour (index 0).
func (t *Table) Dye() colorful.Color {
	c, _ := colorful.MakeColor(t.At(0))
	return c
}

// Gray returns the identity grayscale table.
func Gray() Table {
	var t Table
	for i := 0; i < Size; i++ {
		t.R[i], t.G[i], t.B[i] = uint8(i), uint8(i), uint8(i)
	}
	return t
}
