package outcome

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	jsoniter "github.com/json-iterator/go"
)

var ErrKeyWidthMismatch = errors.New("key width mismatch")

// Counts maps a measured bitstring to the number of shots that produced it.
// The rightmost character is the qubit bound to the lowest classical slot.
type Counts map[string]int

// Probabilities maps a measured bitstring to its relative frequency.
type Probabilities map[string]float64

// Total returns the sum of all counts.
func (c Counts) Total() int {
	t := 0
	for _, n := range c {
		t += n
	}
	return t
}

// Keys returns the bitstrings in ascending order.
func (c Counts) Keys() []string {
	return sortedKeys(c)
}

// Width returns the common key width, or 0 for empty counts. Mixed widths
// return ErrKeyWidthMismatch.
func (c Counts) Width() (int, error) {
	return keyWidth(c)
}

func (c Counts) String() string {
	s, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(c)
	if err != nil {
		return "error: " + err.Error()
	}
	return s
}

func (p Probabilities) Keys() []string {
	return sortedKeys(p)
}

func (p Probabilities) String() string {
	s, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(p)
	if err != nil {
		return "error: " + err.Error()
	}
	return s
}

// ToProbabilities divides each count by the total number of shots.
func ToProbabilities(c Counts) Probabilities {
	p := make(Probabilities, len(c))
	total := c.Total()
	if total == 0 {
		return p
	}
	for k, n := range c {
		p[k] = float64(n) / float64(total)
	}
	return p
}

// Merge sums a and b per key. Both must use the same key width.
func Merge(a, b Counts) (Counts, error) {
	wa, err := a.Width()
	if err != nil {
		return nil, errors.Wrap(err, "merge")
	}
	wb, err := b.Width()
	if err != nil {
		return nil, errors.Wrap(err, "merge")
	}
	if wa != 0 && wb != 0 && wa != wb {
		return nil, errors.Wrapf(ErrKeyWidthMismatch, "merge: %d and %d bits", wa, wb)
	}
	out := make(Counts, len(a)+len(b))
	for k, n := range a {
		out[k] += n
	}
	for k, n := range b {
		out[k] += n
	}
	return out, nil
}

// FormatKey renders index as a width-character bitstring, bit 0 rightmost.
func FormatKey(index, width int) string {
	s := strconv.FormatUint(uint64(index), 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// ParseKey is the inverse of FormatKey.
func ParseKey(key string) (int, error) {
	if key == "" {
		return 0, errors.New("empty key")
	}
	v, err := strconv.ParseUint(key, 2, 63)
	if err != nil {
		return 0, errors.Wrapf(err, "parse key %q", key)
	}
	return int(v), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keyWidth[V any](m map[string]V) (int, error) {
	w := -1
	for k := range m {
		if w == -1 {
			w = len(k)
			continue
		}
		if len(k) != w {
			return 0, errors.Wrapf(ErrKeyWidthMismatch, "%d and %d bits", w, len(k))
		}
	}
	if w == -1 {
		return 0, nil
	}
	return w, nil
}
