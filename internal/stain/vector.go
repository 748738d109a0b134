// Package stain provides stain vectors, built-in stain presets and the 3x3
// unmixing matrix used for colour deconvolution.
package stain

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is the optical-density direction of a single stain.
// R, G and B are the stain's absorbance in the red, green and blue channels.
type Vector struct {
	R float64 `toml:"r" json:"r"`
	G float64 `toml:"g" json:"g"`
	B float64 `toml:"b" json:"b"`
}

// Completion selects how a missing third stain vector is synthesized.
type Completion int

const (
	CompleteCross      Completion = iota // v0 x v1
	CompleteComplement                   // per-component sqrt(1 - a² - b²)
)

func (c Completion) String() string {
	switch c {
	case CompleteCross:
		return "cross"
	case CompleteComplement:
		return "complement"
	default:
		return "unknown"
	}
}

// VectorSet holds the 1-3 stain vectors supplied by the caller.
type VectorSet struct {
	Vectors    []Vector
	Completion Completion
}

// NewVectorSet returns a set using cross-product completion.
func NewVectorSet(vectors ...Vector) VectorSet {
	return VectorSet{Vectors: vectors, Completion: CompleteCross}
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	return r3.Norm(v.vec())
}

// Unit returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vector) Unit() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vector{R: v.R / n, G: v.G / n, B: v.B / n}
}

// Components returns the vector as an array in R, G, B order.
func (v Vector) Components() [3]float64 {
	return [3]float64{v.R, v.G, v.B}
}

func (v Vector) String() string {
	return fmt.Sprintf("[%.5f, %.5f, %.5f]", v.R, v.G, v.B)
}

func (v Vector) vec() r3.Vec {
	return r3.Vec{X: v.R, Y: v.G, Z: v.B}
}

func fromVec(p r3.Vec) Vector {
	return Vector{R: p.X, G: p.Y, B: p.Z}
}

// validate checks a caller-supplied vector before normalization.
func (v Vector) validate() error {
	for _, c := range v.Components() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: non-finite component in %s", ErrDegenerateVector, v)
		}
		if c < 0 {
			return fmt.Errorf("%w: negative component in %s", ErrInvalidStainMatrix, v)
		}
	}
	if v.Norm() == 0 {
		return fmt.Errorf("%w: %s has zero length", ErrDegenerateVector, v)
	}
	return nil
}

// FromRGB derives a stain vector from the transmitted colour of a pure stain.
// Each component is the optical density -ln((c+1)/256) of that channel, so
// a dark red dye absorbs mostly green and blue.
func FromRGB(r, g, b uint8) Vector {
	od := func(c uint8) float64 {
		return -math.Log((float64(c) + 1) / 256)
	}
	return Vector{R: od(r), G: od(g), B: od(b)}
}

// FromHex parses a "#rrggbb" dye colour and converts it with FromRGB.
func FromHex(s string) (Vector, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Vector{}, fmt.Errorf("invalid dye colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return FromRGB(r, g, b), nil
}
