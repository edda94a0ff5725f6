//go:build unit
// +build unit

package render

import (
	"bytes"
	"math"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/outcome"
	"github.com/oqtopus-team/qsim/qmath"
	"github.com/oqtopus-team/qsim/sim"
)

func TestCircuit(t *testing.T) {
	tests := []struct {
		name  string
		build func() *circuit.Circuit
		want  string
	}{
		{
			name: "bell",
			build: func() *circuit.Circuit {
				c, _ := circuit.New(2)
				_ = c.H(0)
				_ = c.CX(0, 1)
				c.MeasureAll()
				return c
			},
			want: heredoc.Doc(`
				q0: ──[H]─────●────[M0]──
				q1: ──────────⊕────[M1]──
			`),
		},
		{
			name: "cx across a wire",
			build: func() *circuit.Circuit {
				c, _ := circuit.New(3)
				_ = c.CX(2, 0)
				v, _ := qmath.Normalize(qmath.Vector{1, 1i})
				_ = c.Initialize(v, 1)
				return c
			},
			want: heredoc.Doc(`
				q0: ───⊕──────────
				q1: ───┼────[SP]──
				q2: ───●──────────
			`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Nil(t, Circuit(&buf, tt.build()))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestHistogram(t *testing.T) {
	var buf bytes.Buffer
	err := Histogram(&buf, outcome.Counts{"11": 1, "00": 3}, WithBarWidth(4))
	assert.Nil(t, err)
	assert.Equal(t, heredoc.Doc(`
		00      3 0.7500 ███
		11      1 0.2500 █
		total 4
	`), buf.String())

	buf.Reset()
	assert.Nil(t, Histogram(&buf, outcome.Counts{"1": 2}, WithColor(true)))
	assert.Contains(t, buf.String(), "total 2")
}

func TestStateVector(t *testing.T) {
	c, _ := circuit.New(1)
	_ = c.X(0)
	sv, err := sim.New().Run(c)
	assert.Nil(t, err)

	var buf bytes.Buffer
	assert.Nil(t, StateVector(&buf, sv))
	assert.Equal(t, heredoc.Doc(`
		|0⟩ +0.000000+0.000000i 0.000000
		|1⟩ +1.000000+0.000000i 1.000000
	`), buf.String())
}

func TestStateVectorJSON(t *testing.T) {
	c, _ := circuit.New(1)
	_ = c.H(0)
	sv, err := sim.New().Run(c)
	assert.Nil(t, err)

	var doc struct {
		NumQubits  int `json:"num_qubits"`
		Amplitudes []struct {
			Basis string  `json:"basis"`
			Re    float64 `json:"re"`
			Im    float64 `json:"im"`
		} `json:"amplitudes"`
	}
	assert.Nil(t, jsoniter.Unmarshal(StateVectorJSON(sv), &doc))
	assert.Equal(t, 1, doc.NumQubits)
	assert.Len(t, doc.Amplitudes, 2)
	assert.Equal(t, "1", doc.Amplitudes[1].Basis)
	assert.InDelta(t, 1/math.Sqrt2, doc.Amplitudes[1].Re, 1e-12)
	assert.InDelta(t, 0, doc.Amplitudes[1].Im, 1e-12)
}
