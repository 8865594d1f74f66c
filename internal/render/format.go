package render

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/report"
)

// FormatMetric prints a metric for display: "$1,234.50" for money,
// "12.5%" for percentages, "1,058 units" for unit counts.
func FormatMetric(m report.Metric) string {
	if m.Text != "" {
		return m.Text
	}
	v := m.Value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	switch m.Unit {
	case report.UnitMoney:
		return "$" + humanize.FormatFloat("#,###.##", v)
	case report.UnitPercent:
		return report.FormatValue(v) + "%"
	case report.UnitUnits:
		if math.Abs(v) < 1e15 {
			return humanize.Comma(int64(math.Round(v))) + " units"
		}
		return humanize.Commaf(math.Round(v)) + " units"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return humanize.CommafWithDigits(aggregate.Round2(v), 2)
}

// Figures formats every metric in order.
func Figures(metrics []report.Metric) []Figure {
	if len(metrics) == 0 {
		return nil
	}
	out := make([]Figure, len(metrics))
	for i, m := range metrics {
		out[i] = Figure{Label: m.Label, Value: FormatMetric(m)}
	}
	return out
}

func tables(in []report.Table) []Table {
	if len(in) == 0 {
		return nil
	}
	out := make([]Table, len(in))
	for i, t := range in {
		out[i] = Table{
			Title:   t.Title,
			Columns: columns(t.Columns, t.Rows),
			Rows:    t.Rows,
			Summary: t.Footer,
		}
	}
	return out
}

func bucketTable(title string, buckets []aggregate.Bucket) Table {
	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{b.Name, report.FormatValue(b.Value)}
	}
	return Table{
		Title: title,
		Columns: []Column{
			{Label: "Name", Align: "left"},
			{Label: "Value", Align: "right"},
		},
		Rows: rows,
	}
}

// columns right-aligns columns whose every non-empty cell is
// numeric.
func columns(labels []string, rows [][]string) []Column {
	out := make([]Column, len(labels))
	for i, label := range labels {
		out[i] = Column{Label: label, Align: "left"}
		numeric := false
		for _, row := range rows {
			if i >= len(row) || row[i] == "" {
				continue
			}
			if !isNumeric(row[i]) {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			out[i].Align = "right"
		}
	}
	return out
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',':
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return true
}
