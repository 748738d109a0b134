package lut

import (
	"image/color"
	"math"
	"testing"
)

// Normalized hematoxylin, eosin and their cross product.
var (
	heCosX = [3]float64{0.6511078257574492, 0.0701017212973667, -0.3321168641376976}
	heCosY = [3]float64{0.7011930431234068, 0.9914386297770432, -0.08093471415445082}
	heCosZ = [3]float64{0.29049426072255424, 0.1101598477530048, 0.9397595227504105}
)

func TestBuildBoundaries(t *testing.T) {
	tables := Build(heCosX, heCosY, heCosZ)

	for k, tab := range tables {
		if tab.R[255] != 255 || tab.G[255] != 255 || tab.B[255] != 255 {
			t.Errorf("channel %d index 255 = (%d,%d,%d), want white", k, tab.R[255], tab.G[255], tab.B[255])
		}
		want := func(cos float64) uint8 {
			return uint8(math.Max(0, math.Min(255, math.Floor(255-255*cos+0.5))))
		}
		if tab.R[0] != want(heCosX[k]) || tab.G[0] != want(heCosY[k]) || tab.B[0] != want(heCosZ[k]) {
			t.Errorf("channel %d index 0 = (%d,%d,%d), want (%d,%d,%d)", k,
				tab.R[0], tab.G[0], tab.B[0], want(heCosX[k]), want(heCosY[k]), want(heCosZ[k]))
		}
	}
}

func TestBuildHematoxylinRamp(t *testing.T) {
	tab := Build(heCosX, heCosY, heCosZ)[0]
	tests := []struct {
		index int
		want  uint8
	}{
		{0, 89},
		{1, 90},
		{128, 172},
		{254, 254},
		{255, 255},
	}
	for _, tt := range tests {
		if got := tab.R[tt.index]; got != tt.want {
			t.Errorf("R[%d] = %d, want %d", tt.index, got, tt.want)
		}
	}
}

func TestBuildNegativeCosineClamps(t *testing.T) {
	tab := Build(heCosX, heCosY, heCosZ)[2]
	for i := 0; i < Size; i++ {
		if tab.R[i] != 255 || tab.G[i] != 255 {
			t.Fatalf("index %d = (%d,%d), want clamped to 255", i, tab.R[i], tab.G[i])
		}
	}
	if tab.B[0] != 15 {
		t.Errorf("B[0] = %d, want 15", tab.B[0])
	}
}

func TestBuildMonotonic(t *testing.T) {
	for k, tab := range Build(heCosX, heCosY, heCosZ) {
		for i := 1; i < Size; i++ {
			if tab.R[i] < tab.R[i-1] || tab.G[i] < tab.G[i-1] || tab.B[i] < tab.B[i-1] {
				t.Fatalf("channel %d not monotonic at %d", k, i)
			}
		}
	}
}

func TestPaletteAndDye(t *testing.T) {
	tab := ForStain(1, 0, 0)
	p := tab.Palette()
	if len(p) != Size {
		t.Fatalf("palette size = %d, want %d", len(p), Size)
	}
	if got := p[0]; got != (color.RGBA{R: 0, G: 255, B: 255, A: 255}) {
		t.Errorf("palette[0] = %v, want cyan", got)
	}
	if got := tab.Dye().Hex(); got != "#00ffff" {
		t.Errorf("Dye() = %s, want #00ffff", got)
	}
}

func TestGray(t *testing.T) {
	g := Gray()
	for i := 0; i < Size; i++ {
		if c := g.At(uint8(i)); c.R != uint8(i) || c.G != uint8(i) || c.B != uint8(i) {
			t.Fatalf("Gray().At(%d) = %v", i, c)
		}
	}
}
