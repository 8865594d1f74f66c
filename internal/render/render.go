// Package render turns report data into display artifacts: chart
// configurations, tables, and headline figures. The report core
// never inspects an artifact; it only hands data to a Renderer.
package render

import (
	"errors"
	"fmt"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/report"
)

// ErrUnknownKind is returned for kinds the renderer cannot draw.
var ErrUnknownKind = errors.New("unknown report kind")

// Renderer draws one kind of report data.
type Renderer interface {
	Render(
		kind report.Kind, data report.Data, opts Options,
	) (Artifact, error)
}

// Options carries presentation metadata that is not part of the
// aggregated data.
type Options struct {
	Title       string
	Description string
	// XAxis and YAxis label chart axes. Empty leaves them unset.
	XAxis string
	YAxis string
}

// Artifact is a rendered report element. Chart is nil for table
// and placeholder kinds.
type Artifact struct {
	Kind        report.Kind `json:"kind"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Chart       *Chart      `json:"chart,omitempty"`
	Tables      []Table     `json:"tables,omitempty"`
	Figures     []Figure    `json:"figures,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// Chart is a chart configuration a front end can draw directly.
type Chart struct {
	Type       report.Kind `json:"type"`
	Title      string      `json:"title"`
	XAxis      string      `json:"x_axis,omitempty"`
	YAxis      string      `json:"y_axis,omitempty"`
	Series     []Series    `json:"series"`
	Colors     []string    `json:"colors,omitempty"`
	ShowLegend bool        `json:"show_legend"`
	ShowGrid   bool        `json:"show_grid"`
}

// Series is one named line, bar set, or pie.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Color  string  `json:"color,omitempty"`
}

// Point is a labeled chart value. Share is the point's percentage
// of its series total and is set for pie charts only.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Share float64 `json:"share,omitempty"`
}

// Column describes a table column.
type Column struct {
	Label string `json:"label"`
	Align string `json:"align"`
}

// Table is a rendered grid with an optional summary row.
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary []string   `json:"summary,omitempty"`
}

// Figure is a formatted headline metric.
type Figure struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DefaultPalette colors chart series in order.
var DefaultPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

const defaultSeriesName = "Value"

// Default is the stock Renderer.
type Default struct {
	Palette []string
}

// New returns a Default renderer using DefaultPalette.
func New() *Default {
	return &Default{Palette: DefaultPalette}
}

// Render implements Renderer.
func (d *Default) Render(
	kind report.Kind, data report.Data, opts Options,
) (Artifact, error) {
	a := Artifact{
		Kind:        kind,
		Title:       opts.Title,
		Description: opts.Description,
		Figures:     Figures(data.Metrics),
		Tables:      tables(data.Tables),
	}
	switch kind {
	case report.KindBar, report.KindPie, report.KindLine:
		a.Chart = d.chart(kind, data, opts)
	case report.KindTable:
		if len(a.Tables) == 0 {
			a.Tables = []Table{bucketTable(opts.Title, data.Buckets)}
		}
	case report.KindPlaceholder:
		a.Message = opts.Description
		a.Figures = nil
		a.Tables = nil
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return a, nil
}

func (d *Default) chart(
	kind report.Kind, data report.Data, opts Options,
) *Chart {
	c := &Chart{
		Type:       kind,
		Title:      opts.Title,
		XAxis:      opts.XAxis,
		YAxis:      opts.YAxis,
		ShowLegend: true,
		ShowGrid:   kind != report.KindPie,
	}
	if len(data.Points) > 0 && len(data.Series) > 0 {
		c.Series = multiSeries(data)
	} else {
		c.Series = []Series{singleSeries(data)}
	}
	if kind == report.KindPie {
		for i := range c.Series {
			shares(c.Series[i].Points)
		}
	}
	c.Colors = d.colors(len(c.Series))
	for i := range c.Series {
		c.Series[i].Color = c.Colors[i]
	}
	return c
}

func (d *Default) colors(n int) []string {
	palette := d.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	colors := make([]string, n)
	for i := range n {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}

// singleSeries charts the buckets, or the range counts when a
// report only carries ranges.
func singleSeries(data report.Data) Series {
	buckets := data.Buckets
	if len(buckets) == 0 && len(data.Ranges) > 0 {
		buckets = aggregate.RangeCounts(data.Ranges)
	}
	points := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, Point{
			Label: b.Name,
			Value: aggregate.Round2(b.Value),
		})
	}
	return Series{Name: defaultSeriesName, Points: points}
}

func multiSeries(data report.Data) []Series {
	series := make([]Series, 0, len(data.Series))
	for _, name := range data.Series {
		points := make([]Point, 0, len(data.Points))
		for _, p := range data.Points {
			points = append(points, Point{
				Label: p.Label,
				Value: aggregate.Round2(p.Values[name]),
			})
		}
		series = append(series, Series{Name: name, Points: points})
	}
	return series
}

func shares(points []Point) {
	var total float64
	for _, p := range points {
		total += p.Value
	}
	for i := range points {
		points[i].Share = aggregate.Round2(
			aggregate.Percent(points[i].Value, total),
		)
	}
}

// RenderReport renders a report's main chart followed by one
// artifact per panel.
func RenderReport(r Renderer, rep report.Report) ([]Artifact, error) {
	main, err := r.Render(rep.Kind, rep.Data, Options{
		Title:       rep.Title,
		Description: rep.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering %s/%s: %w",
			rep.Category, rep.Type, err)
	}
	out := make([]Artifact, 0, 1+len(rep.Panels))
	out = append(out, main)
	for _, p := range rep.Panels {
		a, err := r.Render(p.Kind, p.Data, Options{Title: p.Title})
		if err != nil {
			return nil, fmt.Errorf("rendering panel %q: %w",
				p.Title, err)
		}
		out = append(out, a)
	}
	return out, nil
}
