package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/gate"
)

const (
	cellW = 7
	wire  = "─"
)

var gateLabels = map[gate.Kind]string{
	gate.Identity:  "[I]",
	gate.PauliX:    "[X]",
	gate.Hadamard:  "[H]",
	gate.StatePrep: "[SP]",
}

func padCenter(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(wire, left) + s + strings.Repeat(wire, width-n-left)
}

// Circuit draws c with one column per operation and a final measurement
// column. Qubit 0 is the top row.
func Circuit(w io.Writer, c *circuit.Circuit) error {
	n := c.Width()
	rows := make([]strings.Builder, n)
	labelW := len(fmt.Sprintf("q%d: ", n-1))
	for q := range rows {
		fmt.Fprintf(&rows[q], "%-*s", labelW, fmt.Sprintf("q%d:", q))
	}
	for _, op := range c.Operations() {
		cells := make([]string, n)
		for q := range cells {
			cells[q] = padCenter("", cellW)
		}
		if op.Gate.Kind() == gate.ControlledNot {
			ctrl, tgt := op.Qubits[0], op.Qubits[1]
			lo, hi := min(ctrl, tgt), max(ctrl, tgt)
			for q := lo + 1; q < hi; q++ {
				cells[q] = padCenter("┼", cellW)
			}
			cells[ctrl] = padCenter("●", cellW)
			cells[tgt] = padCenter("⊕", cellW)
		} else {
			cells[op.Qubits[0]] = padCenter(gateLabels[op.Gate.Kind()], cellW)
		}
		for q, cell := range cells {
			rows[q].WriteString(cell)
		}
	}
	if m, ok := c.Measurement(); ok {
		cells := make([]string, n)
		for q := range cells {
			cells[q] = padCenter("", cellW)
		}
		for i, q := range m.Qubits {
			cells[q] = padCenter(fmt.Sprintf("[M%d]", m.Clbits[i]), cellW)
		}
		for q, cell := range cells {
			rows[q].WriteString(cell)
		}
	}
	for q := range rows {
		if _, err := fmt.Fprintln(w, rows[q].String()); err != nil {
			return err
		}
	}
	return nil
}
