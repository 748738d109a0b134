package stain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// SingularEpsilon is the smallest |det| accepted for the normalized matrix.
	SingularEpsilon = 1e-6

	// synthEpsilon is the smallest norm accepted for a synthesized vector.
	synthEpsilon = 1e-6
)

// DefaultResidual replaces a synthesized vector that collapsed to zero.
var DefaultResidual = Vector{R: 1, G: 1, B: 1}.Unit()

// Matrix is an immutable stain matrix with its cached unmixing coefficients.
// Build it once and share it read-only between workers.
type Matrix struct {
	// Rows holds the three unit stain vectors.
	Rows [3]Vector

	// Q holds the inverse coefficients indexed Q[channel*3+source].
	Q [9]float64

	// CosX, CosY, CosZ hold the red, green and blue direction cosines of
	// each channel, used for pseudo-colour tables.
	CosX, CosY, CosZ [3]float64

	// Det is the determinant of the normalized matrix.
	Det float64

	// Supplied is the number of caller vectors; the rest were synthesized.
	Supplied int

	// Warnings lists non-fatal problems found while completing the matrix.
	Warnings []string
}

// Build normalizes the supplied vectors, synthesizes missing ones and
// inverts the resulting matrix.
func Build(set VectorSet) (*Matrix, error) {
	n := len(set.Vectors)
	if n < 1 || n > 3 {
		return nil, fmt.Errorf("%w: need 1 to 3 stain vectors, got %d", ErrInvalidStainMatrix, n)
	}

	m := &Matrix{Supplied: n}
	for i, v := range set.Vectors {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("stain %d: %w", i+1, err)
		}
		m.Rows[i] = v.Unit()
	}

	// A single stain gets a rotated copy of itself as its partner.
	if n == 1 {
		v := m.Rows[0]
		m.Rows[1] = Vector{R: v.B, G: v.R, B: v.G}
	}
	if n < 3 {
		m.Rows[2] = m.synthesize(set.Completion)
	}

	for i, v := range m.Rows {
		m.CosX[i] = v.R
		m.CosY[i] = v.G
		m.CosZ[i] = v.B
	}

	if err := m.invert(); err != nil {
		return nil, err
	}
	return m, nil
}

// synthesize returns a unit third vector completing the first two rows.
func (m *Matrix) synthesize(mode Completion) Vector {
	a, b := m.Rows[0], m.Rows[1]

	var third r3.Vec
	switch mode {
	case CompleteComplement:
		comp := func(x, y float64) float64 {
			if x*x+y*y > 1 {
				return 0
			}
			return math.Sqrt(1 - x*x - y*y)
		}
		third = r3.Vec{X: comp(a.R, b.R), Y: comp(a.G, b.G), Z: comp(a.B, b.B)}
	default:
		third = r3.Cross(a.vec(), b.vec())
	}

	if r3.Norm(third) < synthEpsilon {
		m.Warnings = append(m.Warnings, fmt.Sprintf(
			"stain vectors %s and %s are nearly parallel; using default third vector %s",
			a, b, DefaultResidual))
		return DefaultResidual
	}
	return fromVec(r3.Unit(third))
}

// invert fills Det and Q from Rows.
func (m *Matrix) invert() error {
	data := make([]float64, 0, 9)
	for _, v := range m.Rows {
		data = append(data, v.R, v.G, v.B)
	}
	a := mat.NewDense(3, 3, data)

	m.Det = mat.Det(a)
	if math.IsNaN(m.Det) || math.Abs(m.Det) < SingularEpsilon {
		return fmt.Errorf("%w: determinant %.3g", ErrSingularMatrix, m.Det)
	}

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}

	// Concentrations are OD·M⁻¹, so channel k reads column k of the inverse.
	for k := 0; k < 3; k++ {
		for s := 0; s < 3; s++ {
			m.Q[k*3+s] = inv.At(s, k)
		}
	}
	if floats.HasNaN(m.Q[:]) {
		return fmt.Errorf("%w: inverse contains NaN", ErrSingularMatrix)
	}
	return nil
}

// Coefficients returns the unmixing coefficients for channel k in R, G, B order.
func (m *Matrix) Coefficients(k int) [3]float64 {
	return [3]float64{m.Q[k*3], m.Q[k*3+1], m.Q[k*3+2]}
}

// Synthesized reports whether row i was generated rather than supplied.
func (m *Matrix) Synthesized(i int) bool {
	return i >= m.Supplied
}
