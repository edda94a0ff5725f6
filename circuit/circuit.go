package circuit

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/oqtopus-team/qsim/gate"
	"github.com/oqtopus-team/qsim/qmath"
)

// DefaultMaxQubits is the widest register accepted unless overridden.
const DefaultMaxQubits = 24

var (
	ErrInvalidWidth     = errors.New("invalid width")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrDuplicateQubit   = errors.New("duplicate qubit")
	ErrDuplicateClbit   = errors.New("duplicate classical bit")
	ErrArityMismatch    = errors.New("arity mismatch")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

// Operation is a gate bound to the qubits it acts on, in operand order.
type Operation struct {
	Gate   gate.Gate
	Qubits []int
}

func (o Operation) String() string {
	qs := make([]string, len(o.Qubits))
	for i, q := range o.Qubits {
		qs[i] = fmt.Sprintf("q[%d]", q)
	}
	return fmt.Sprintf("%s %s", o.Gate, strings.Join(qs, ", "))
}

// Measurement binds Qubits[i] to classical slot Clbits[i].
type Measurement struct {
	Qubits []int
	Clbits []int
}

func (m Measurement) clone() Measurement {
	return Measurement{
		Qubits: append([]int(nil), m.Qubits...),
		Clbits: append([]int(nil), m.Clbits...),
	}
}

type Option func(*options)

type options struct {
	clbits    int
	maxQubits int
}

// WithClbits sets the size of the classical register.
func WithClbits(n int) Option {
	return func(o *options) { o.clbits = n }
}

// WithMaxQubits overrides DefaultMaxQubits.
func WithMaxQubits(n int) Option {
	return func(o *options) { o.maxQubits = n }
}

// Circuit is an ordered sequence of gate applications on a fixed-width quantum
// register, plus an optional measurement directive applied after all gates.
type Circuit struct {
	width       int
	clbits      int
	ops         []Operation
	measurement Measurement
}

func New(width int, opts ...Option) (*Circuit, error) {
	o := options{maxQubits: DefaultMaxQubits}
	for _, opt := range opts {
		opt(&o)
	}
	if width < 1 {
		return nil, errors.Wrapf(ErrInvalidWidth, "width %d", width)
	}
	if width > o.maxQubits {
		return nil, errors.Wrapf(ErrCapacityExceeded, "width %d exceeds %d qubits", width, o.maxQubits)
	}
	if o.clbits < 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "classical width %d", o.clbits)
	}
	return &Circuit{width: width, clbits: o.clbits}, nil
}

func (c *Circuit) Width() int     { return c.width }
func (c *Circuit) NumClbits() int { return c.clbits }
func (c *Circuit) Len() int       { return len(c.ops) }

// Operations returns a copy of the gate sequence in application order.
func (c *Circuit) Operations() []Operation {
	out := make([]Operation, len(c.ops))
	for i, op := range c.ops {
		out[i] = Operation{Gate: op.Gate, Qubits: append([]int(nil), op.Qubits...)}
	}
	return out
}

// Measurement returns a copy of the measurement directive and whether one was set.
func (c *Circuit) Measurement() (Measurement, bool) {
	return c.measurement.clone(), len(c.measurement.Qubits) > 0
}

// MeasuredQubits returns the measured qubits ordered by ascending classical
// slot. Without a measurement directive every qubit is measured in index order.
func (c *Circuit) MeasuredQubits() []int {
	if len(c.measurement.Qubits) == 0 {
		qs := make([]int, c.width)
		for i := range qs {
			qs[i] = i
		}
		return qs
	}
	m := c.measurement.clone()
	// insertion sort by slot; directives are small
	for i := 1; i < len(m.Clbits); i++ {
		for j := i; j > 0 && m.Clbits[j] < m.Clbits[j-1]; j-- {
			m.Clbits[j], m.Clbits[j-1] = m.Clbits[j-1], m.Clbits[j]
			m.Qubits[j], m.Qubits[j-1] = m.Qubits[j-1], m.Qubits[j]
		}
	}
	return m.Qubits
}

// Append adds g acting on qubits to the end of the circuit.
func (c *Circuit) Append(g gate.Gate, qubits ...int) error {
	if len(qubits) != g.Arity() {
		return errors.Wrapf(ErrArityMismatch, "%s takes %d qubits, got %d", g, g.Arity(), len(qubits))
	}
	if err := c.checkQubits(qubits); err != nil {
		return errors.Wrapf(err, "append %s", g)
	}
	c.ops = append(c.ops, Operation{Gate: g, Qubits: append([]int(nil), qubits...)})
	return nil
}

func (c *Circuit) checkQubits(qubits []int) error {
	seen := make(map[int]struct{}, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= c.width {
			return errors.Wrapf(ErrIndexOutOfRange, "qubit %d not in [0, %d)", q, c.width)
		}
		if _, ok := seen[q]; ok {
			return errors.Wrapf(ErrDuplicateQubit, "qubit %d", q)
		}
		seen[q] = struct{}{}
	}
	return nil
}

func (c *Circuit) I(q int) error { return c.Append(gate.I(), q) }
func (c *Circuit) X(q int) error { return c.Append(gate.X(), q) }
func (c *Circuit) H(q int) error { return c.Append(gate.H(), q) }
func (c *Circuit) CX(ctrl, tgt int) error { return c.Append(gate.CX(), ctrl, tgt) }

// Initialize appends a StatePrep gate preparing v on qubit q. v must already
// be normalized.
func (c *Circuit) Initialize(v qmath.Vector, q int) error {
	g, err := gate.NewStatePrep(v)
	if err != nil {
		return errors.Wrap(err, "initialize")
	}
	return c.Append(g, q)
}

// Measure binds qubits[i] to classical slot clbits[i]. Repeated calls extend
// the directive; a qubit or slot may only be bound once.
func (c *Circuit) Measure(qubits, clbits []int) error {
	if len(qubits) != len(clbits) {
		return errors.Wrapf(ErrArityMismatch, "%d qubits, %d classical bits", len(qubits), len(clbits))
	}
	all := append(append([]int(nil), c.measurement.Qubits...), qubits...)
	if err := c.checkQubits(all); err != nil {
		return errors.Wrap(err, "measure")
	}
	seen := make(map[int]struct{}, len(c.measurement.Clbits)+len(clbits))
	for _, b := range c.measurement.Clbits {
		seen[b] = struct{}{}
	}
	for _, b := range clbits {
		if b < 0 || b >= c.clbits {
			return errors.Wrapf(ErrIndexOutOfRange, "measure: classical bit %d not in [0, %d)", b, c.clbits)
		}
		if _, ok := seen[b]; ok {
			return errors.Wrapf(ErrDuplicateClbit, "measure: classical bit %d", b)
		}
		seen[b] = struct{}{}
	}
	c.measurement.Qubits = all
	c.measurement.Clbits = append(c.measurement.Clbits, clbits...)
	return nil
}

// MeasureAll replaces the measurement directive with qubit i to slot i for
// every qubit, growing the classical register if needed.
func (c *Circuit) MeasureAll() {
	if c.clbits < c.width {
		c.clbits = c.width
	}
	m := Measurement{Qubits: make([]int, c.width), Clbits: make([]int, c.width)}
	for i := 0; i < c.width; i++ {
		m.Qubits[i] = i
		m.Clbits[i] = i
	}
	c.measurement = m
}

func (c *Circuit) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "circuit(%d qubits, %d clbits)\n", c.width, c.clbits)
	for _, op := range c.ops {
		sb.WriteString("  ")
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	for i, q := range c.measurement.Qubits {
		fmt.Fprintf(&sb, "  measure q[%d] -> c[%d]\n", q, c.measurement.Clbits[i])
	}
	return sb.String()
}
