package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/outcome"
)

var ErrInvalidShots = errors.New("invalid shots")

type RunOption func(*runOptions)

type runOptions struct {
	src rand.Source
}

// WithSeed makes the draw deterministic.
func WithSeed(seed uint64) RunOption {
	return func(o *runOptions) { o.src = rand.NewPCG(seed, seed) }
}

// WithSource draws samples from src.
func WithSource(src rand.Source) RunOption {
	return func(o *runOptions) { o.src = src }
}

// Sampler turns final states into measurement counts.
type Sampler struct {
	sim *Simulator
}

func NewSampler(s *Simulator) *Sampler {
	if s == nil {
		s = New()
	}
	return &Sampler{sim: s}
}

func (s *Sampler) Simulator() *Simulator { return s.sim }

// Run simulates c and draws shots samples from the distribution of its
// measured qubits. Outcomes that were never drawn are absent.
func (s *Sampler) Run(c *circuit.Circuit, shots int, opts ...RunOption) (outcome.Counts, error) {
	if shots < 1 {
		return nil, errors.Wrapf(ErrInvalidShots, "shots %d", shots)
	}
	state, err := s.sim.Run(c)
	if err != nil {
		return nil, err
	}
	return s.Sample(state, c.MeasuredQubits(), shots, opts...)
}

// Sample draws shots samples of qubits from an already computed state.
func (s *Sampler) Sample(state *StateVector, qubits []int, shots int, opts ...RunOption) (outcome.Counts, error) {
	if shots < 1 {
		return nil, errors.Wrapf(ErrInvalidShots, "shots %d", shots)
	}
	o := runOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	probs := marginal(state, qubits)
	dist := distuv.NewCategorical(probs, o.src)
	hist := make([]int, len(probs))
	for i := 0; i < shots; i++ {
		hist[int(dist.Rand())]++
	}
	counts := make(outcome.Counts)
	for y, n := range hist {
		if n > 0 {
			counts[outcome.FormatKey(y, len(qubits))] = n
		}
	}
	zap.L().Debug(fmt.Sprintf("sampled %d shots over %d outcomes", shots, len(counts)))
	return counts, nil
}

// Probabilities returns the exact distribution of the measured qubits of c.
// Outcomes with zero probability are absent.
func (s *Sampler) Probabilities(c *circuit.Circuit) (outcome.Probabilities, error) {
	state, err := s.sim.Run(c)
	if err != nil {
		return nil, err
	}
	return MarginalProbabilities(state, c.MeasuredQubits()), nil
}

// MarginalProbabilities is the exact distribution of qubits in state.
// Outcomes with zero probability are absent.
func MarginalProbabilities(state *StateVector, qubits []int) outcome.Probabilities {
	out := make(outcome.Probabilities)
	for y, p := range marginal(state, qubits) {
		if p > 0 {
			out[outcome.FormatKey(y, len(qubits))] = p
		}
	}
	return out
}

func marginal(state *StateVector, qubits []int) []float64 {
	probs := state.Marginal(qubits)
	// weights sum to 1
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}
