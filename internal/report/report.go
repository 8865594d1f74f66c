// Package report maps report selections to aggregated data. A
// registry ties each (category, type) pair to a builder and a chart
// kind; a Navigator holds the current selection. Builders read a
// dataset snapshot and never mutate it.
package report

import (
	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/catalog"
	"github.com/wesm/inventoryview/internal/trend"
)

// Kind selects how the renderer draws a report's data.
type Kind string

const (
	KindBar         Kind = "bar"
	KindPie         Kind = "pie"
	KindLine        Kind = "line"
	KindTable       Kind = "table"
	KindPlaceholder Kind = "placeholder"
)

// Unit tells the renderer how to format a metric value.
type Unit string

const (
	UnitNone    Unit = ""
	UnitMoney   Unit = "$"
	UnitPercent Unit = "%"
	UnitUnits   Unit = "units"
)

// Metric is a headline figure shown above a chart. Text replaces
// Value for non-numeric figures such as a state name.
type Metric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit,omitempty"`
	Text  string  `json:"text,omitempty"`
}

// Table is a titled grid of preformatted cells.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Footer  []string   `json:"footer,omitempty"`
}

// Data is the finished aggregate a renderer draws. Buckets is the
// primary series and is what a download serializes. Points carries
// multi-series data for line and stacked charts, named by Series.
type Data struct {
	Buckets []aggregate.Bucket      `json:"buckets"`
	Ranges  []aggregate.RangeBucket `json:"ranges,omitempty"`
	Points  []trend.MultiPoint      `json:"points,omitempty"`
	Series  []string                `json:"series,omitempty"`
	Metrics []Metric                `json:"metrics,omitempty"`
	Tables  []Table                 `json:"tables,omitempty"`
}

// Panel is a secondary chart of a report.
type Panel struct {
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
	Data  Data   `json:"data"`
}

// Report is a resolved selection: metadata, the main chart, and
// any secondary panels.
type Report struct {
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Kind        Kind            `json:"kind"`
	TimeRange   trend.TimeRange `json:"time_range,omitempty"`
	Data        Data            `json:"data"`
	Panels      []Panel         `json:"panels,omitempty"`
}

// Placeholder reports whether r stands in for a missing report.
func (r Report) Placeholder() bool {
	return r.Kind == KindPlaceholder
}

const (
	placeholderTitle       = "Select a report"
	placeholderDescription = "No report available for this selection."
)

func placeholder(category, typ string) Report {
	return Report{
		Category:    category,
		Type:        typ,
		Title:       placeholderTitle,
		Description: placeholderDescription,
		Kind:        KindPlaceholder,
		Data:        Data{Buckets: []aggregate.Bucket{}},
	}
}

// DefaultSeed seeds the trend generator when Input carries none.
const DefaultSeed = 1

// Input is everything a builder may read.
type Input struct {
	Dataset   catalog.Dataset
	TimeRange trend.TimeRange
	// Trend generates synthetic series. Nil means a generator
	// seeded with DefaultSeed.
	Trend *trend.Generator
}

func (in Input) generator() *trend.Generator {
	if in.Trend == nil {
		return trend.New(DefaultSeed)
	}
	return in.Trend
}

func (in Input) timeRange() trend.TimeRange {
	if in.TimeRange.Periods() == 0 {
		return trend.Monthly
	}
	return in.TimeRange
}
