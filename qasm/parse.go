package qasm

import (
	"fmt"
	"math/cmplx"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/oqtopus-team/qsim/circuit"
	"github.com/oqtopus-team/qsim/gate"
	"github.com/oqtopus-team/qsim/qmath"
)

var (
	ErrSyntax      = errors.New("syntax error")
	ErrUnsupported = errors.New("unsupported statement")
)

var (
	versionRegex   = regexp.MustCompile(`^OPENQASM\s+(\d+)(?:\.\d+)?$`)
	includeRegex   = regexp.MustCompile(`^include\s+"[^"]+"$`)
	qreg2Regex     = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	creg2Regex     = regexp.MustCompile(`^creg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	qreg3Regex     = regexp.MustCompile(`^qubit\s*\[\s*(\d+)\s*\]\s+(\w+)$`)
	creg3Regex     = regexp.MustCompile(`^bit\s*\[\s*(\d+)\s*\]\s+(\w+)$`)
	gateRegex      = regexp.MustCompile(`^(\w+)\s+(\w+)\s*\[\s*(\d+)\s*\](?:\s*,\s*(\w+)\s*\[\s*(\d+)\s*\])?$`)
	uRegex         = regexp.MustCompile(`^(U|u|u3)\s*\(([^)]*)\)\s*(\w+)\s*\[\s*(\d+)\s*\]$`)
	gphaseRegex    = regexp.MustCompile(`^gphase\s*\(([^)]*)\)$`)
	measure2Regex  = regexp.MustCompile(`^measure\s+(\w+)\s*\[\s*(\d+)\s*\]\s*->\s*(\w+)\s*\[\s*(\d+)\s*\]$`)
	measure3Regex  = regexp.MustCompile(`^(\w+)\s*\[\s*(\d+)\s*\]\s*=\s*measure\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureAll2Reg = regexp.MustCompile(`^measure\s+(\w+)\s*->\s*(\w+)$`)
	measureAll3Reg = regexp.MustCompile(`^(\w+)\s*=\s*measure\s+(\w+)$`)
	barrierRegex   = regexp.MustCompile(`^barrier(\s+.*)?$`)
)

type stmtKind int

const (
	stmtGate stmtKind = iota
	stmtMeasure
	stmtMeasureAll
)

type stmt struct {
	kind   stmtKind
	line   int
	gate   gate.Gate
	qubits []int
	clbit  int
}

type register struct {
	name string
	size int
}

type parser struct {
	qreg, creg *register
	stmts      []stmt
	phase      *float64
	phaseLine  int
	version    string
	errs       error
}

// Unmarshal parses an OpenQASM 2 or 3 program into a circuit. One quantum and
// at most one classical register are supported. Every malformed statement is
// reported; the returned error combines them.
func Unmarshal(src string, opts ...circuit.Option) (*circuit.Circuit, error) {
	p := &parser{}
	for i, line := range strings.Split(src, "\n") {
		if j := strings.Index(line, "//"); j >= 0 {
			line = line[:j]
		}
		for _, s := range strings.Split(line, ";") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if err := p.statement(s, i+1); err != nil {
				p.errs = multierr.Append(p.errs, err)
			}
		}
	}
	if p.phase != nil {
		p.errs = multierr.Append(p.errs, errors.Wrapf(ErrUnsupported, "line %d: gphase without U", p.phaseLine))
	}
	if p.errs != nil {
		return nil, p.errs
	}
	if p.qreg == nil {
		return nil, errors.Wrap(ErrSyntax, "no quantum register declared")
	}
	return p.build(opts)
}

func (p *parser) statement(s string, line int) error {
	var pending error
	if p.phase != nil && !uRegex.MatchString(s) {
		pending = errors.Wrapf(ErrUnsupported, "line %d: gphase without U", p.phaseLine)
		p.phase = nil
	}
	return multierr.Append(pending, p.dispatch(s, line))
}

func (p *parser) dispatch(s string, line int) error {
	switch {
	case versionRegex.MatchString(s):
		v := versionRegex.FindStringSubmatch(s)[1]
		if v != "2" && v != "3" {
			return errors.Wrapf(ErrUnsupported, "line %d: OPENQASM %s", line, v)
		}
		p.version = v
		return nil
	case includeRegex.MatchString(s), barrierRegex.MatchString(s):
		return nil
	case qreg2Regex.MatchString(s):
		m := qreg2Regex.FindStringSubmatch(s)
		return p.declare(&p.qreg, m[1], m[2], line)
	case qreg3Regex.MatchString(s):
		m := qreg3Regex.FindStringSubmatch(s)
		return p.declare(&p.qreg, m[2], m[1], line)
	case creg2Regex.MatchString(s):
		m := creg2Regex.FindStringSubmatch(s)
		return p.declare(&p.creg, m[1], m[2], line)
	case creg3Regex.MatchString(s):
		m := creg3Regex.FindStringSubmatch(s)
		return p.declare(&p.creg, m[2], m[1], line)
	case gphaseRegex.MatchString(s):
		v, err := parseAngle(gphaseRegex.FindStringSubmatch(s)[1])
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		p.phase, p.phaseLine = &v, line
		return nil
	case uRegex.MatchString(s):
		return p.u(uRegex.FindStringSubmatch(s), line)
	case measure2Regex.MatchString(s):
		m := measure2Regex.FindStringSubmatch(s)
		return p.measure(m[1], m[2], m[3], m[4], line)
	case measure3Regex.MatchString(s):
		m := measure3Regex.FindStringSubmatch(s)
		return p.measure(m[3], m[4], m[1], m[2], line)
	case measureAll2Reg.MatchString(s):
		m := measureAll2Reg.FindStringSubmatch(s)
		return p.measureAll(m[1], m[2], line)
	case measureAll3Reg.MatchString(s):
		m := measureAll3Reg.FindStringSubmatch(s)
		return p.measureAll(m[2], m[1], line)
	case gateRegex.MatchString(s):
		return p.gate(gateRegex.FindStringSubmatch(s), line)
	}
	return errors.Wrapf(ErrSyntax, "line %d: %q", line, s)
}

func (p *parser) declare(reg **register, name, size string, line int) error {
	if *reg != nil {
		return errors.Wrapf(ErrUnsupported, "line %d: second register %q", line, name)
	}
	n, err := strconv.Atoi(size)
	if err != nil {
		return errors.Wrapf(ErrSyntax, "line %d: register size %q", line, size)
	}
	*reg = &register{name: name, size: n}
	return nil
}

func (p *parser) qubit(name, index string, line int) (int, error) {
	if p.qreg == nil {
		return 0, errors.Wrapf(ErrSyntax, "line %d: qubit %s used before declaration", line, name)
	}
	if name != p.qreg.name {
		return 0, errors.Wrapf(ErrSyntax, "line %d: unknown quantum register %q", line, name)
	}
	return strconv.Atoi(index)
}

func (p *parser) gate(m []string, line int) error {
	g, ok := gate.Lookup(m[1])
	if !ok {
		return errors.Wrapf(ErrUnsupported, "line %d: gate %q", line, m[1])
	}
	q0, err := p.qubit(m[2], m[3], line)
	if err != nil {
		return err
	}
	qubits := []int{q0}
	if m[4] != "" {
		q1, err := p.qubit(m[4], m[5], line)
		if err != nil {
			return err
		}
		qubits = append(qubits, q1)
	}
	p.stmts = append(p.stmts, stmt{kind: stmtGate, line: line, gate: g, qubits: qubits})
	return nil
}

// u accepts U(θ, φ, λ), optionally preceded by gphase(γ), when the product is
// a state preparation unitary [[α, -β*], [β, α*]]. OpenQASM 2 defines U as
// Rz(φ)Ry(θ)Rz(λ), which differs from the OpenQASM 3 matrix by the phase
// e^{-i(φ+λ)/2} and is always of that form.
func (p *parser) u(m []string, line int) error {
	gamma := 0.0
	if p.phase != nil {
		gamma = *p.phase
		p.phase = nil
	}
	params := strings.Split(m[2], ",")
	if len(params) != 3 {
		return errors.Wrapf(ErrSyntax, "line %d: %s takes 3 parameters", line, m[1])
	}
	var angles [3]float64
	for i, s := range params {
		v, err := parseAngle(s)
		if err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		angles[i] = v
	}
	if p.version == "2" {
		gamma -= (angles[1] + angles[2]) / 2
	}
	q, err := p.qubit(m[3], m[4], line)
	if err != nil {
		return err
	}
	a, b, c, d := su2(gamma, angles[0], angles[1], angles[2])
	if cmplx.Abs(b+cmplx.Conj(c)) > 1e-9 || cmplx.Abs(d-cmplx.Conj(a)) > 1e-9 {
		return errors.Wrapf(ErrUnsupported, "line %d: %s is not a state preparation", line, m[1])
	}
	g, err := gate.NewStatePrep(qmath.Vector{a, c})
	if err != nil {
		return errors.Wrapf(err, "line %d", line)
	}
	p.stmts = append(p.stmts, stmt{kind: stmtGate, line: line, gate: g, qubits: []int{q}})
	return nil
}

func (p *parser) clbit(name, index string, line int) (int, error) {
	if p.creg == nil || name != p.creg.name {
		return 0, errors.Wrapf(ErrSyntax, "line %d: unknown classical register %q", line, name)
	}
	return strconv.Atoi(index)
}

func (p *parser) measure(qname, qidx, cname, cidx string, line int) error {
	q, err := p.qubit(qname, qidx, line)
	if err != nil {
		return err
	}
	b, err := p.clbit(cname, cidx, line)
	if err != nil {
		return err
	}
	p.stmts = append(p.stmts, stmt{kind: stmtMeasure, line: line, qubits: []int{q}, clbit: b})
	return nil
}

func (p *parser) measureAll(qname, cname string, line int) error {
	if _, err := p.qubit(qname, "0", line); err != nil {
		return err
	}
	if _, err := p.clbit(cname, "0", line); err != nil {
		return err
	}
	if p.creg.size < p.qreg.size {
		return errors.Wrapf(circuit.ErrIndexOutOfRange, "line %d: %s[%d] cannot hold %s[%d]",
			line, p.creg.name, p.creg.size, p.qreg.name, p.qreg.size)
	}
	p.stmts = append(p.stmts, stmt{kind: stmtMeasureAll, line: line})
	return nil
}

func (p *parser) build(opts []circuit.Option) (*circuit.Circuit, error) {
	clbits := 0
	if p.creg != nil {
		clbits = p.creg.size
	}
	c, err := circuit.New(p.qreg.size, append([]circuit.Option{circuit.WithClbits(clbits)}, opts...)...)
	if err != nil {
		return nil, err
	}
	var errs error
	for _, s := range p.stmts {
		var err error
		switch s.kind {
		case stmtGate:
			err = c.Append(s.gate, s.qubits...)
		case stmtMeasure:
			err = c.Measure(s.qubits, []int{s.clbit})
		case stmtMeasureAll:
			qs := make([]int, c.Width())
			for i := range qs {
				qs[i] = i
			}
			err = c.Measure(qs, qs)
		}
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "line %d", s.line))
		}
	}
	if errs != nil {
		return nil, errs
	}
	zap.L().Debug(fmt.Sprintf("parsed program: %d qubits, %d operations", c.Width(), c.Len()))
	return c, nil
}
