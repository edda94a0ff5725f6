package sim

import (
	"github.com/oqtopus-team/qsim/qmath"
)

// Embed returns the 2^width square operator that applies u to qubits. u acts
// on len(qubits) qubits with qubits[0] as its most significant local bit.
func Embed(u *qmath.Matrix, qubits []int, width int) *qmath.Matrix {
	k := len(qubits)
	if r, _ := u.Dims(); r != 1<<k {
		panic(qmath.ErrShape)
	}
	if k == 1 {
		q := qubits[0]
		return qmath.Kron(qmath.Kron(qmath.Identity(1<<(width-q-1)), u), qmath.Identity(1<<q))
	}
	lifted := qmath.Kron(qmath.Identity(1<<(width-k)), u)
	perm := operandPermutation(qubits, width)
	dim := 1 << width
	op := qmath.NewMatrix(dim, dim, nil)
	for x := 0; x < dim; x++ {
		for y := 0; y < dim; y++ {
			if v := lifted.At(perm[x], perm[y]); v != 0 {
				op.Set(x, y, v)
			}
		}
	}
	return op
}

// operandPermutation maps a register index to the index in which qubits
// occupy the low bits (qubits[0] highest among them) and the remaining qubits
// follow in ascending order.
func operandPermutation(qubits []int, width int) []int {
	k := len(qubits)
	isOperand := make([]bool, width)
	for _, q := range qubits {
		isOperand[q] = true
	}
	rest := make([]int, 0, width-k)
	for q := 0; q < width; q++ {
		if !isOperand[q] {
			rest = append(rest, q)
		}
	}
	perm := make([]int, 1<<width)
	for x := range perm {
		y := 0
		for j, q := range qubits {
			y |= (x >> q & 1) << (k - 1 - j)
		}
		for j, q := range rest {
			y |= (x >> q & 1) << (k + j)
		}
		perm[x] = y
	}
	return perm
}

// applyStrided applies u to qubits of amps in place without materialising the
// full operator.
func applyStrided(amps qmath.Vector, u *qmath.Matrix, qubits []int) {
	k := len(qubits)
	local := 1 << k
	offsets := make([]int, local)
	mask := 0
	for l := 0; l < local; l++ {
		for j, q := range qubits {
			if l>>(k-1-j)&1 == 1 {
				offsets[l] |= 1 << q
			}
		}
	}
	for _, q := range qubits {
		mask |= 1 << q
	}
	in := make(qmath.Vector, local)
	for base := range amps {
		if base&mask != 0 {
			continue
		}
		for l, off := range offsets {
			in[l] = amps[base|off]
		}
		for l, off := range offsets {
			var s complex128
			for m, a := range in {
				s += u.At(l, m) * a
			}
			amps[base|off] = s
		}
	}
}
