package qmath

import (
	"math/cmplx"

	"github.com/go-faster/errors"
)

// ErrShape is the panic value for dimension mismatches.
var ErrShape = errors.New("dimension mismatch")

// Matrix is a dense row-major complex matrix.
type Matrix struct {
	rows, cols int
	data       []complex128
}

// NewMatrix creates an r×c matrix. If data is nil a zero matrix is allocated,
// otherwise data is used as the row-major backing slice and must have r*c entries.
func NewMatrix(r, c int, data []complex128) *Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrShape)
	}
	if data == nil {
		data = make([]complex128, r*c)
	} else if len(data) != r*c {
		panic(ErrShape)
	}
	return &Matrix{rows: r, cols: c, data: data}
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	m := NewMatrix(n, n, nil)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Matrix) Dims() (r, c int) { return m.rows, m.cols }

func (m *Matrix) At(i, j int) complex128 {
	return m.data[m.index(i, j)]
}

func (m *Matrix) Set(i, j int, v complex128) {
	m.data[m.index(i, j)] = v
}

func (m *Matrix) index(i, j int) int {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(ErrShape)
	}
	return i*m.cols + j
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) Vector {
	v := make(Vector, m.rows)
	for i := range v {
		v[i] = m.At(i, j)
	}
	return v
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	d := make([]complex128, len(m.data))
	copy(d, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: d}
}

// Kron returns the Kronecker product a ⊗ b.
func Kron(a, b *Matrix) *Matrix {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := NewMatrix(ar*br, ac*bc, nil)
	oc := ac * bc
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			x := a.data[i*ac+j]
			if x == 0 {
				continue
			}
			for k := 0; k < br; k++ {
				row := (i*br + k) * oc
				for l := 0; l < bc; l++ {
					out.data[row+j*bc+l] = x * b.data[k*bc+l]
				}
			}
		}
	}
	return out
}

// MatVec returns m·v.
func MatVec(m *Matrix, v Vector) Vector {
	if m.cols != len(v) {
		panic(ErrShape)
	}
	out := make(Vector, m.rows)
	for i := 0; i < m.rows; i++ {
		row := m.data[i*m.cols : (i+1)*m.cols]
		var s complex128
		for j, x := range row {
			if x != 0 {
				s += x * v[j]
			}
		}
		out[i] = s
	}
	return out
}

// Mul returns a·b.
func Mul(a, b *Matrix) *Matrix {
	if a.cols != b.rows {
		panic(ErrShape)
	}
	out := NewMatrix(a.rows, b.cols, nil)
	for i := 0; i < a.rows; i++ {
		for k := 0; k < a.cols; k++ {
			x := a.data[i*a.cols+k]
			if x == 0 {
				continue
			}
			for j := 0; j < b.cols; j++ {
				out.data[i*b.cols+j] += x * b.data[k*b.cols+j]
			}
		}
	}
	return out
}

// ConjTranspose returns the Hermitian adjoint of m.
func ConjTranspose(m *Matrix) *Matrix {
	out := NewMatrix(m.cols, m.rows, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return out
}

// MatrixEqualApprox reports whether a and b have the same shape and entries
// within tol of each other.
func MatrixEqualApprox(a, b *Matrix, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	return EqualApprox(a.data, b.data, tol)
}

// IsUnitary reports whether m is square and m†m equals the identity within tol.
func IsUnitary(m *Matrix, tol float64) bool {
	if m.rows != m.cols {
		return false
	}
	return MatrixEqualApprox(Mul(ConjTranspose(m), m), Identity(m.rows), tol)
}
