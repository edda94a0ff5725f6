package gate

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/go-faster/errors"

	"github.com/oqtopus-team/qsim/qmath"
)

var ErrInvalidState = errors.New("invalid state")

type Kind int

const (
	Identity Kind = iota
	PauliX
	Hadamard
	ControlledNot
	StatePrep
)

var kindNames = map[Kind]string{
	Identity:      "id",
	PauliX:        "x",
	Hadamard:      "h",
	ControlledNot: "cx",
	StatePrep:     "stateprep",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Arity is the number of qubits a gate of kind k acts on.
func (k Kind) Arity() int {
	if k == ControlledNot {
		return 2
	}
	return 1
}

// Gate is an immutable unitary operation. Construct it with one of I, X, H,
// CX or NewStatePrep.
type Gate struct {
	kind  Kind
	state [2]complex128
}

func I() Gate { return Gate{kind: Identity} }
func X() Gate { return Gate{kind: PauliX} }
func H() Gate { return Gate{kind: Hadamard} }
func CX() Gate { return Gate{kind: ControlledNot} }

// NewStatePrep returns the gate that maps |0> to v[0]|0> + v[1]|1>.
// v must have exactly two entries and unit norm.
func NewStatePrep(v qmath.Vector) (Gate, error) {
	if len(v) != 2 {
		return Gate{}, errors.Wrapf(ErrInvalidState, "want 2 amplitudes, got %d", len(v))
	}
	n := qmath.Norm(v)
	if math.IsNaN(n) || math.Abs(n-1) > qmath.Tolerance {
		return Gate{}, errors.Wrapf(ErrInvalidState, "norm is %v", n)
	}
	s := complex(n, 0)
	return Gate{kind: StatePrep, state: [2]complex128{v[0] / s, v[1] / s}}, nil
}

func (g Gate) Kind() Kind { return g.kind }

func (g Gate) Arity() int { return g.kind.Arity() }

// State returns the prepared amplitudes of a StatePrep gate and false for
// every other kind.
func (g Gate) State() (qmath.Vector, bool) {
	if g.kind != StatePrep {
		return nil, false
	}
	return qmath.Vector{g.state[0], g.state[1]}, true
}

// Matrix returns a fresh copy of the gate's unitary. For multi-qubit gates
// the first operand is the most significant local bit.
func (g Gate) Matrix() *qmath.Matrix {
	switch g.kind {
	case Identity:
		return qmath.Identity(2)
	case PauliX:
		return qmath.NewMatrix(2, 2, []complex128{
			0, 1,
			1, 0,
		})
	case Hadamard:
		s := complex(1/math.Sqrt2, 0)
		return qmath.NewMatrix(2, 2, []complex128{
			s, s,
			s, -s,
		})
	case ControlledNot:
		return qmath.NewMatrix(4, 4, []complex128{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 0, 1,
			0, 0, 1, 0,
		})
	case StatePrep:
		a, b := g.state[0], g.state[1]
		return qmath.NewMatrix(2, 2, []complex128{
			a, -cmplx.Conj(b),
			b, cmplx.Conj(a),
		})
	}
	panic(fmt.Sprintf("gate: unknown kind %d", int(g.kind)))
}

func (g Gate) String() string {
	if g.kind == StatePrep {
		return fmt.Sprintf("stateprep(%v, %v)", g.state[0], g.state[1])
	}
	return g.kind.String()
}

// Lookup returns the parameterless gate registered under name.
func Lookup(name string) (Gate, bool) {
	switch name {
	case "id":
		return I(), true
	case "x":
		return X(), true
	case "h":
		return H(), true
	case "cx", "CX", "cnot":
		return CX(), true
	}
	return Gate{}, false
}
