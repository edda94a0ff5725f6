package qasm

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

const numberPattern = `\d+(?:\.\d*)?(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?`

var piRegex = regexp.MustCompile(`^([+-]?)(?:(` + numberPattern + `)\s*\*\s*)?(?:pi|π)(?:\s*/\s*(` + numberPattern + `))?$`)

// parseAngle accepts a float literal or a multiple of pi such as -pi/2,
// 3*pi/4 or 2*pi.
func parseAngle(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	m := piRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.Wrapf(ErrSyntax, "angle %q", s)
	}
	v := math.Pi
	if m[2] != "" {
		f, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, errors.Wrapf(ErrSyntax, "angle %q", s)
		}
		v *= f
	}
	if m[3] != "" {
		f, err := strconv.ParseFloat(m[3], 64)
		if err != nil || f == 0 {
			return 0, errors.Wrapf(ErrSyntax, "angle %q", s)
		}
		v /= f
	}
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}
