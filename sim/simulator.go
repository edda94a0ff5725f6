package sim

import (
	"fmt"
	"math"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/qmath"
)

// DefaultDenseLimit is the widest register for which full operators are built.
const DefaultDenseLimit = 10

var ErrUnitarityViolation = errors.New("unitarity violation")

type Option func(*Simulator)

// WithTolerance sets the allowed deviation of the state norm from 1.
func WithTolerance(tol float64) Option {
	return func(s *Simulator) { s.tolerance = tol }
}

// WithMaxQubits sets the widest circuit the simulator accepts.
func WithMaxQubits(n int) Option {
	return func(s *Simulator) { s.maxQubits = n }
}

// WithDenseLimit sets the widest register simulated with explicit 2^n×2^n
// operators. Wider registers use the strided kernel. A negative limit always
// uses the strided kernel.
func WithDenseLimit(n int) Option {
	return func(s *Simulator) { s.denseLimit = n }
}

// Simulator computes exact final states. It holds no run state and is safe
// for concurrent use.
type Simulator struct {
	tolerance  float64
	maxQubits  int
	denseLimit int
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		tolerance:  qmath.Tolerance,
		maxQubits:  circuit.DefaultMaxQubits,
		denseLimit: DefaultDenseLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) MaxQubits() int { return s.maxQubits }

func (s *Simulator) Tolerance() float64 { return s.tolerance }

// Run applies every operation of c to |0...0> in append order and returns
// the final state.
func (s *Simulator) Run(c *circuit.Circuit) (*StateVector, error) {
	n := c.Width()
	if n > s.maxQubits {
		return nil, errors.Wrapf(circuit.ErrCapacityExceeded, "width %d exceeds %d qubits", n, s.maxQubits)
	}
	state := newZeroState(n)
	dense := n <= s.denseLimit
	for step, op := range c.Operations() {
		u := op.Gate.Matrix()
		if dense {
			state.amps = qmath.MatVec(Embed(u, op.Qubits, n), state.amps)
		} else {
			applyStrided(state.amps, u, op.Qubits)
		}
		if norm := state.Norm(); math.IsNaN(norm) || math.Abs(norm-1) > s.tolerance {
			return nil, errors.Wrapf(ErrUnitarityViolation, "step %d (%s): norm %v", step, op, norm)
		}
	}
	zap.L().Debug(fmt.Sprintf("simulated %d operations on %d qubits (dense=%t)", c.Len(), n, dense))
	return state, nil
}
