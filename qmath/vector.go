package qmath

import (
	"math"
	"math/cmplx"

	"github.com/go-faster/errors"
	"gonum.org/v1/gonum/floats"
)

// Tolerance is the default absolute tolerance used for norm and unitarity checks.
const Tolerance = 1e-9

var ErrDegenerateVector = errors.New("degenerate vector")

// Vector is a dense complex column vector.
type Vector []complex128

// NewBasis returns the computational basis vector |index> of the given dimension.
func NewBasis(dim, index int) Vector {
	if index < 0 || index >= dim {
		panic(ErrShape)
	}
	v := make(Vector, dim)
	v[index] = 1
	return v
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// SquaredMagnitudes returns |v_i|^2 for every entry.
func (v Vector) SquaredMagnitudes() []float64 {
	p := make([]float64, len(v))
	for i, a := range v {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(floats.Sum(v.SquaredMagnitudes()))
}

// Normalize returns v scaled to unit norm.
func Normalize(v Vector) (Vector, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, errors.Wrapf(ErrDegenerateVector, "norm is %v", n)
	}
	out := make(Vector, len(v))
	for i, a := range v {
		out[i] = a / complex(n, 0)
	}
	return out, nil
}

// Inner returns <a|b>, conjugating a.
func Inner(a, b Vector) complex128 {
	if len(a) != len(b) {
		panic(ErrShape)
	}
	var s complex128
	for i := range a {
		s += cmplx.Conj(a[i]) * b[i]
	}
	return s
}

// EqualApprox reports whether a and b have the same length and every entry
// differs by at most tol.
func EqualApprox(a, b Vector, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if cmplx.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
