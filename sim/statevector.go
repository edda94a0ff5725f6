package sim

import (
	"github.com/oqtopus-team/qsim/qmath"
)

// StateVector is the amplitude vector of a width-qubit register. Basis index
// bit i is qubit i.
type StateVector struct {
	width int
	amps  qmath.Vector
}

func newZeroState(width int) *StateVector {
	return &StateVector{width: width, amps: qmath.NewBasis(1<<width, 0)}
}

func (s *StateVector) Width() int { return s.width }

func (s *StateVector) Len() int { return len(s.amps) }

// Amplitudes returns a copy of the amplitude vector.
func (s *StateVector) Amplitudes() qmath.Vector { return s.amps.Clone() }

// Amplitude returns the amplitude of basis state index.
func (s *StateVector) Amplitude(index int) complex128 { return s.amps[index] }

func (s *StateVector) Norm() float64 { return qmath.Norm(s.amps) }

// Probabilities returns |amp|^2 for every basis state.
func (s *StateVector) Probabilities() []float64 { return s.amps.SquaredMagnitudes() }

// Marginal sums the probabilities onto qubits. Bit i of the returned index is
// qubits[i].
func (s *StateVector) Marginal(qubits []int) []float64 {
	out := make([]float64, 1<<len(qubits))
	for x, p := range s.Probabilities() {
		if p == 0 {
			continue
		}
		y := 0
		for i, q := range qubits {
			y |= (x >> q & 1) << i
		}
		out[y] += p
	}
	return out
}
