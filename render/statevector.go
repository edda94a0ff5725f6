package render

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"github.com/oqtopus-team/qsim/outcome"
	"github.com/oqtopus-team/qsim/sim"
)

// StateVector writes every basis state with its amplitude and probability.
func StateVector(w io.Writer, sv *sim.StateVector) error {
	probs := sv.Probabilities()
	for i, a := range sv.Amplitudes() {
		_, err := fmt.Fprintf(w, "|%s⟩ %+.6f%+.6fi %.6f\n",
			outcome.FormatKey(i, sv.Width()), real(a), imag(a), probs[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// StateVectorJSON encodes sv as
// {"num_qubits":n,"amplitudes":[{"basis":"..","re":..,"im":..},...]}.
func StateVectorJSON(sv *sim.StateVector) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("num_qubits")
	e.Int(sv.Width())
	e.FieldStart("amplitudes")
	e.ArrStart()
	for i, a := range sv.Amplitudes() {
		e.ObjStart()
		e.FieldStart("basis")
		e.Str(outcome.FormatKey(i, sv.Width()))
		e.FieldStart("re")
		e.Float64(real(a))
		e.FieldStart("im")
		e.Float64(imag(a))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}
