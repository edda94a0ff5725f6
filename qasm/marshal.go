package qasm

import (
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/gate"
)

// Marshal renders c as an OpenQASM 3 program. StatePrep gates are written as
// gphase followed by U, which is the same unitary.
func Marshal(c *circuit.Circuit) (string, error) {
	var sb strings.Builder
	sb.WriteString("OPENQASM 3;\n")
	sb.WriteString("include \"stdgates.inc\";\n")
	fmt.Fprintf(&sb, "qubit[%d] q;\n", c.Width())
	if c.NumClbits() > 0 {
		fmt.Fprintf(&sb, "bit[%d] c;\n", c.NumClbits())
	}
	for i, op := range c.Operations() {
		switch op.Gate.Kind() {
		case gate.Identity, gate.PauliX, gate.Hadamard:
			fmt.Fprintf(&sb, "%s q[%d];\n", op.Gate.Kind(), op.Qubits[0])
		case gate.ControlledNot:
			fmt.Fprintf(&sb, "cx q[%d], q[%d];\n", op.Qubits[0], op.Qubits[1])
		case gate.StatePrep:
			st, _ := op.Gate.State()
			gamma, theta, phi, lambda := eulerAngles(st[0], st[1])
			fmt.Fprintf(&sb, "gphase(%s);\n", formatAngle(gamma))
			fmt.Fprintf(&sb, "U(%s, %s, %s) q[%d];\n",
				formatAngle(theta), formatAngle(phi), formatAngle(lambda), op.Qubits[0])
		default:
			return "", errors.Wrapf(ErrUnsupported, "operation %d: %s", i, op.Gate)
		}
	}
	if m, ok := c.Measurement(); ok {
		for i, q := range m.Qubits {
			fmt.Fprintf(&sb, "c[%d] = measure q[%d];\n", m.Clbits[i], q)
		}
	}
	return sb.String(), nil
}

// eulerAngles returns γ, θ, φ, λ with e^{iγ}·U(θ, φ, λ) = [[α, -β*], [β, α*]].
func eulerAngles(alpha, beta complex128) (gamma, theta, phi, lambda float64) {
	gamma = cmplx.Phase(alpha)
	theta = 2 * math.Atan2(cmplx.Abs(beta), cmplx.Abs(alpha))
	phi = cmplx.Phase(beta) - gamma
	lambda = -2*gamma - phi
	return
}

// su2 returns the matrix entries of e^{iγ}·U(θ, φ, λ).
func su2(gamma, theta, phi, lambda float64) (a, b, c, d complex128) {
	g := cmplx.Exp(complex(0, gamma))
	cos := complex(math.Cos(theta/2), 0)
	sin := complex(math.Sin(theta/2), 0)
	a = g * cos
	b = -g * cmplx.Exp(complex(0, lambda)) * sin
	c = g * cmplx.Exp(complex(0, phi)) * sin
	d = g * cmplx.Exp(complex(0, phi+lambda)) * cos
	return
}

func formatAngle(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
