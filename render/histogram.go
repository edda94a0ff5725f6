package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/oqtopus-team/qsim/outcome"
)

var barStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7aa2f7"))

var keyStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#ff9e64"))

type HistogramOption func(*histogramOptions)

type histogramOptions struct {
	width int
	color bool
}

// WithBarWidth sets the length of a bar at probability 1.
func WithBarWidth(n int) HistogramOption {
	return func(o *histogramOptions) { o.width = n }
}

// WithColor styles keys and bars for a terminal.
func WithColor(on bool) HistogramOption {
	return func(o *histogramOptions) { o.color = on }
}

// Histogram writes one line per outcome in ascending key order:
// key, count, relative frequency and a bar.
func Histogram(w io.Writer, counts outcome.Counts, opts ...HistogramOption) error {
	o := histogramOptions{width: 40}
	for _, opt := range opts {
		opt(&o)
	}
	probs := outcome.ToProbabilities(counts)
	for _, k := range counts.Keys() {
		bar := strings.Repeat("█", int(math.Round(probs[k]*float64(o.width))))
		key := k
		if o.color {
			key = keyStyle.Render(k)
			bar = barStyle.Render(bar)
		}
		if _, err := fmt.Fprintf(w, "%s %6d %.4f %s\n", key, counts[k], probs[k], bar); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "total %d\n", counts.Total())
	return err
}
