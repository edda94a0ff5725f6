//go:build unit
// +build unit

package gate

import (
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"

	"github.com/oqtopus-team/qsim/qmath"
)

func TestMatricesAreUnitary(t *testing.T) {
	sp, err := NewStatePrep(qmath.Vector{complex(0.6, 0), complex(0, 0.8)})
	assert.Nil(t, err)
	tests := []struct {
		name  string
		g     Gate
		arity int
	}{
		{name: "identity", g: I(), arity: 1},
		{name: "pauli x", g: X(), arity: 1},
		{name: "hadamard", g: H(), arity: 1},
		{name: "controlled not", g: CX(), arity: 2},
		{name: "state prep", g: sp, arity: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.g.Matrix()
			r, c := m.Dims()
			assert.Equal(t, 1<<tt.arity, r)
			assert.Equal(t, 1<<tt.arity, c)
			assert.Equal(t, tt.arity, tt.g.Arity())
			assert.True(t, qmath.IsUnitary(m, qmath.Tolerance))
		})
	}
}

func TestHadamardOnZero(t *testing.T) {
	got := qmath.MatVec(H().Matrix(), qmath.Vector{1, 0})
	s := complex(1/math.Sqrt2, 0)
	assert.True(t, qmath.EqualApprox(qmath.Vector{s, s}, got, 1e-12))
}

func TestControlledNotOperandOrder(t *testing.T) {
	m := CX().Matrix()
	// local index 2 is control=1, target=0
	assert.Equal(t, qmath.NewBasis(4, 3), qmath.MatVec(m, qmath.NewBasis(4, 2)))
	assert.Equal(t, qmath.NewBasis(4, 1), qmath.MatVec(m, qmath.NewBasis(4, 1)))
}

func TestNewStatePrep(t *testing.T) {
	unit, err := qmath.Normalize(qmath.Vector{3 + 1i, 1 - 2i})
	assert.Nil(t, err)

	tests := []struct {
		name    string
		v       qmath.Vector
		wantErr error
	}{
		{name: "normalized complex pair", v: unit},
		{name: "basis one", v: qmath.Vector{0, 1}},
		{name: "not normalized", v: qmath.Vector{3 + 1i, 1 - 2i}, wantErr: ErrInvalidState},
		{name: "too short", v: qmath.Vector{1}, wantErr: ErrInvalidState},
		{name: "too long", v: qmath.Vector{1, 0, 0}, wantErr: ErrInvalidState},
		{name: "zero", v: qmath.Vector{0, 0}, wantErr: ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewStatePrep(tt.v)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, StatePrep, g.Kind())
			got := qmath.MatVec(g.Matrix(), qmath.Vector{1, 0})
			assert.True(t, qmath.EqualApprox(tt.v, got, 1e-12))
			st, ok := g.State()
			assert.True(t, ok)
			assert.True(t, qmath.EqualApprox(tt.v, st, 1e-12))
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"id", "x", "h", "cx"} {
		g, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, g.String())
	}
	_, ok := Lookup("ccx")
	assert.False(t, ok)
	_, ok = X().State()
	assert.False(t, ok)
}
