// Package density implements the per-pixel Beer-Lambert transform used for
// colour deconvolution.
//
// The forward step converts each 8-bit channel to an optical density scaled to
// [0, 255]:
//
//	OD = -255 * ln((v+1)/255) / ln(255)
//
// The +1 offset keeps ln finite for black pixels. It also means the transform
// is not an exact inverse: with an identity matrix a value v comes back as
// v+1. This matches the reference plugin and is intentional.
//
// Every function in this package is pure and safe for concurrent use.
package density

import "math"

// Pixel is an 8-bit RGB triple.
type Pixel [3]uint8

// log255 is ln(255), the scale shared by the forward and inverse steps.
var log255 = math.Log(255)

// odTable caches OpticalDensity for every 8-bit input.
var odTable [256]float64

func init() {
	for v := range odTable {
		odTable[v] = -255 * math.Log((float64(v)+1)/255) / log255
	}
}

// OpticalDensity returns the scaled optical density of one channel value.
// White (255) is slightly negative; black (0) is exactly 255.
func OpticalDensity(v uint8) float64 {
	return odTable[v]
}

// Densities returns the optical density of each channel of p.
func Densities(p Pixel) [3]float64 {
	return [3]float64{odTable[p[0]], odTable[p[1]], odTable[p[2]]}
}

// Concentrations projects p onto the stain axes described by the unmixing
// coefficients q (indexed q[channel*3+source]).
func Concentrations(p Pixel, q *[9]float64) [3]float64 {
	od := Densities(p)
	var c [3]float64
	for k := 0; k < 3; k++ {
		c[k] = od[0]*q[3*k] + od[1]*q[3*k+1] + od[2]*q[3*k+2]
	}
	return c
}

// Transmittance maps a stain concentration back to an intensity.
// The result is clamped to [0, 255]; large negative concentrations would
// otherwise overflow and floating-point noise can dip below zero.
func Transmittance(c float64) float64 {
	v := math.Exp(-(c - 255) * log255 / 255)
	if v > 255 || math.IsNaN(v) {
		return 255
	}
	if v < 0 {
		return 0
	}
	return v
}

// Quantize rounds half away from zero and narrows to a byte.
func Quantize(v float64) uint8 {
	return uint8(math.Floor(v + 0.5))
}

// Unmix converts one RGB pixel to three stain-channel intensities.
func Unmix(p Pixel, q *[9]float64) [3]uint8 {
	c := Concentrations(p, q)
	return [3]uint8{
		Quantize(Transmittance(c[0])),
		Quantize(Transmittance(c[1])),
		Quantize(Transmittance(c[2])),
	}
}

// UnmixRow applies Unmix to an interleaved RGB row, writing one byte per
// pixel into each of out0, out1 and out2. All outputs must hold len(rgb)/3
// bytes.
func UnmixRow(rgb []uint8, q *[9]float64, out0, out1, out2 []uint8) {
	n := len(rgb) / 3
	out0, out1, out2 = out0[:n], out1[:n], out2[:n]
	for x := 0; x < n; x++ {
		i := 3 * x
		v := Unmix(Pixel{rgb[i], rgb[i+1], rgb[i+2]}, q)
		out0[x] = v[0]
		out1[x] = v[1]
		out2[x] = v[2]
	}
}
