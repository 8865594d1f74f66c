// Package trend synthesizes time-bucketed series from aggregate
// baselines. The console has no historical store, so these series
// are a display simulation: a seasonal curve around the current
// value plus bounded noise. Callers must not treat them as real
// history.
package trend

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// TimeRange is the granularity of a generated series.
type TimeRange string

const (
	Weekly  TimeRange = "weekly"
	Monthly TimeRange = "monthly"
	Yearly  TimeRange = "yearly"
)

// TimeRanges lists the supported ranges.
var TimeRanges = []TimeRange{Weekly, Monthly, Yearly}

// ParseTimeRange validates s. The empty string is not accepted.
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(s); r {
	case Weekly, Monthly, Yearly:
		return r, nil
	}
	return "", fmt.Errorf(
		"invalid time range %q: must be weekly, monthly, or yearly", s,
	)
}

// Periods returns the number of points in a series of this range.
func (r TimeRange) Periods() int {
	switch r {
	case Weekly:
		return 7
	case Monthly:
		return 30
	case Yearly:
		return 12
	}
	return 0
}

var weekdays = []string{
	"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun",
}

// Labels returns one label per period: weekday names, "Day N", or
// month abbreviations.
func (r TimeRange) Labels() []string {
	n := r.Periods()
	labels := make([]string, n)
	for i := range n {
		switch r {
		case Weekly:
			labels[i] = weekdays[i]
		case Monthly:
			labels[i] = "Day " + strconv.Itoa(i+1)
		case Yearly:
			labels[i] = time.Month(i + 1).String()[:3]
		}
	}
	return labels
}

// Kind controls clamping and rounding of generated values.
type Kind int

const (
	// Count values are whole and never negative.
	Count Kind = iota
	// Amount values are money: never negative, rounded to cents.
	Amount
	// Percentage values are clamped to [0, 100].
	Percentage
)

const (
	DefaultAmplitude = 0.2
	DefaultNoise     = 0.05
)

// Generator produces trend series. It is not safe for concurrent
// use; create one per request.
type Generator struct {
	rng *rand.Rand

	// Amplitude is the seasonal swing as a fraction of baseline.
	Amplitude float64
	// Noise bounds the random perturbation as a fraction of
	// baseline.
	Noise float64
}

// New returns a Generator seeded with seed. Equal seeds produce
// equal series.
func New(seed int64) *Generator {
	return NewWithRand(rand.New(rand.NewSource(seed)))
}

// NewWithRand returns a Generator drawing from rng.
func NewWithRand(rng *rand.Rand) *Generator {
	return &Generator{
		rng:       rng,
		Amplitude: DefaultAmplitude,
		Noise:     DefaultNoise,
	}
}

// Point is one labeled value of a single series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Generate returns r.Periods() points around baseline:
//
//	value(i) = baseline*(1 + Amplitude*sin(2πi/periods)) + noise(i)
//
// with noise uniform in ±Noise*|baseline|, then clamped per kind.
func (g *Generator) Generate(
	baseline float64, r TimeRange, kind Kind,
) []Point {
	labels := r.Labels()
	points := make([]Point, len(labels))
	for i, label := range labels {
		points[i] = Point{
			Label: label,
			Value: g.value(baseline, i, len(labels), kind),
		}
	}
	return points
}

func (g *Generator) value(
	baseline float64, i, periods int, kind Kind,
) float64 {
	if math.IsNaN(baseline) || math.IsInf(baseline, 0) {
		baseline = 0
	}
	season := math.Sin(2 * math.Pi * float64(i) / float64(periods))
	noise := (g.rng.Float64()*2 - 1) * g.Noise * math.Abs(baseline)
	return clamp(baseline*(1+g.Amplitude*season)+noise, kind)
}

func clamp(v float64, kind Kind) float64 {
	switch kind {
	case Count:
		return math.Max(0, math.Round(v))
	case Percentage:
		return math.Round(math.Min(100, math.Max(0, v))*10) / 10
	default:
		return math.Max(0, math.Round(v*100)/100)
	}
}

// Series names one baseline in a multi-series trend.
type Series struct {
	Name     string
	Baseline float64
	Kind     Kind
}

// MultiPoint is one label with a value per series.
type MultiPoint struct {
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// Multi generates every series over the same labels. Series are
// generated in declaration order so a seeded Generator stays
// deterministic.
func (g *Generator) Multi(series []Series, r TimeRange) []MultiPoint {
	labels := r.Labels()
	points := make([]MultiPoint, len(labels))
	for i, label := range labels {
		points[i] = MultiPoint{
			Label:  label,
			Values: make(map[string]float64, len(series)),
		}
	}
	for _, s := range series {
		for i := range labels {
			points[i].Values[s.Name] = g.value(
				s.Baseline, i, len(labels), s.Kind,
			)
		}
	}
	return points
}
