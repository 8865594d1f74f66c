package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/inventoryview/internal/aggregate"
	"github.com/wesm/inventoryview/internal/fixture"
	"github.com/wesm/inventoryview/internal/report"
	"github.com/wesm/inventoryview/internal/trend"
)

func seedInput(t *testing.T) report.Input {
	t.Helper()
	res, err := fixture.Seed()
	require.NoError(t, err)
	return report.Input{Dataset: res.Dataset}
}

func TestRender_Bar(t *testing.T) {
	data := report.Data{Buckets: []aggregate.Bucket{
		{Name: "Electronics", Value: 2},
		{Name: "Books", Value: 1.005},
	}}
	a, err := New().Render(report.KindBar, data, Options{Title: "T"})
	require.NoError(t, err)
	require.NotNil(t, a.Chart)

	assert.Equal(t, report.KindBar, a.Chart.Type)
	assert.True(t, a.Chart.ShowLegend)
	assert.True(t, a.Chart.ShowGrid)
	want := []Series{{
		Name: "Value",
		Points: []Point{
			{Label: "Electronics", Value: 2},
			{Label: "Books", Value: 1},
		},
		Color: DefaultPalette[0],
	}}
	if diff := cmp.Diff(want, a.Chart.Series); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_PieShares(t *testing.T) {
	data := report.Data{Buckets: []aggregate.Bucket{
		{Name: "a", Value: 3},
		{Name: "b", Value: 1},
	}}
	a, err := New().Render(report.KindPie, data, Options{})
	require.NoError(t, err)
	assert.False(t, a.Chart.ShowGrid)
	pts := a.Chart.Series[0].Points
	assert.Equal(t, 75.0, pts[0].Share)
	assert.Equal(t, 25.0, pts[1].Share)
}

func TestRender_PieAllZero(t *testing.T) {
	data := report.Data{Buckets: []aggregate.Bucket{
		{Name: "a"}, {Name: "b"},
	}}
	a, err := New().Render(report.KindPie, data, Options{})
	require.NoError(t, err)
	for _, p := range a.Chart.Series[0].Points {
		assert.Zero(t, p.Share)
	}
}

func TestRender_RangesFallback(t *testing.T) {
	data := report.Data{
		Buckets: []aggregate.Bucket{},
		Ranges: []aggregate.RangeBucket{
			{Label: "$0-$25", Count: 2},
			{Label: "$25-$50", Count: 0},
		},
	}
	a, err := New().Render(report.KindBar, data, Options{})
	require.NoError(t, err)
	pts := a.Chart.Series[0].Points
	require.Len(t, pts, 2)
	assert.Equal(t, "$0-$25", pts[0].Label)
	assert.Equal(t, 2.0, pts[0].Value)
}

func TestRender_MultiSeries(t *testing.T) {
	data := report.Data{
		Series: []string{"Collected", "Pending"},
		Points: []trend.MultiPoint{
			{Label: "Mon", Values: map[string]float64{
				"Collected": 10, "Pending": 4,
			}},
			{Label: "Tue", Values: map[string]float64{
				"Collected": 12,
			}},
		},
	}
	r := &Default{Palette: []string{"red"}}
	a, err := r.Render(report.KindLine, data, Options{})
	require.NoError(t, err)
	require.Len(t, a.Chart.Series, 2)
	assert.Equal(t, "Collected", a.Chart.Series[0].Name)
	assert.Equal(t, "Pending", a.Chart.Series[1].Name)
	assert.Equal(t, []string{"red", "red"}, a.Chart.Colors)
	assert.Equal(t, 0.0, a.Chart.Series[1].Points[1].Value)
}

func TestRender_TableFromBuckets(t *testing.T) {
	data := report.Data{Buckets: []aggregate.Bucket{
		{Name: "x", Value: 1.5},
	}}
	a, err := New().Render(report.KindTable, data, Options{Title: "T"})
	require.NoError(t, err)
	assert.Nil(t, a.Chart)
	require.Len(t, a.Tables, 1)
	assert.Equal(t, [][]string{{"x", "1.5"}}, a.Tables[0].Rows)
	assert.Equal(t, "right", a.Tables[0].Columns[1].Align)
}

func TestRender_Placeholder(t *testing.T) {
	data := report.Data{
		Metrics: []report.Metric{{Label: "x", Value: 1}},
	}
	a, err := New().Render(report.KindPlaceholder, data, Options{
		Title:       "Select a report",
		Description: "nothing here",
	})
	require.NoError(t, err)
	assert.Nil(t, a.Chart)
	assert.Nil(t, a.Figures)
	assert.Equal(t, "nothing here", a.Message)
}

func TestRender_UnknownKind(t *testing.T) {
	_, err := New().Render("radar", report.Data{}, Options{})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestColumns_Alignment(t *testing.T) {
	cols := columns(
		[]string{"Name", "Price", "Share", "Note"},
		[][]string{
			{"Laptop", "$1,299.99", "12.5%", ""},
			{"Desk", "$89.00", "3%", "n/a"},
		},
	)
	got := make([]string, len(cols))
	for i, c := range cols {
		got[i] = c.Align
	}
	assert.Equal(t, []string{"left", "right", "right", "left"}, got)
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		m    report.Metric
		want string
	}{
		{report.Metric{Value: 9897.9, Unit: report.UnitMoney},
			"$9,897.90"},
		{report.Metric{Value: 0, Unit: report.UnitMoney}, "$0.00"},
		{report.Metric{Value: 40, Unit: report.UnitPercent}, "40%"},
		{report.Metric{Value: 12.3456, Unit: report.UnitPercent},
			"12.35%"},
		{report.Metric{Value: 1058, Unit: report.UnitUnits},
			"1,058 units"},
		{report.Metric{Value: 1e20, Unit: report.UnitUnits},
			"100,000,000,000,000,000,000 units"},
		{report.Metric{Value: 15}, "15"},
		{report.Metric{Value: 1234567}, "1,234,567"},
		{report.Metric{Text: "California", Value: 3}, "California"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMetric(tt.m))
		})
	}
}

func TestRenderReport_EveryRegistryEntry(t *testing.T) {
	reg := report.Default()
	in := seedInput(t)
	r := New()
	for _, e := range reg.Entries() {
		t.Run(e.Category+"/"+e.Type, func(t *testing.T) {
			rep := reg.Build(e.Category, e.Type, in)
			arts, err := RenderReport(r, rep)
			require.NoError(t, err)
			require.Len(t, arts, 1+len(rep.Panels))
			assert.Equal(t, rep.Title, arts[0].Title)
			if rep.Kind != report.KindTable {
				require.NotNil(t, arts[0].Chart)
				assert.NotEmpty(t, arts[0].Chart.Series)
			}
		})
	}
}

func TestRenderReport_Sections(t *testing.T) {
	in := seedInput(t)
	for _, name := range report.Sections {
		t.Run(name, func(t *testing.T) {
			rep := report.Section(name, in.Dataset)
			_, err := RenderReport(New(), rep)
			require.NoError(t, err)
		})
	}
}

func TestPrint(t *testing.T) {
	reg := report.Default()
	in := seedInput(t)
	rep := reg.Build("financial", "income-statement", in)
	arts, err := RenderReport(New(), rep)
	require.NoError(t, err)

	var b strings.Builder
	now := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
	require.NoError(t, Print(&b, rep, arts, now))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>"+rep.Title+"</title>")
	assert.Contains(t, out, "Generated 2026-01-02 03:04")
	assert.Contains(t, out, "<tfoot>")
	assert.NotContains(t, out, "class=\"bar-row\"")

	rep = reg.Build("financial", "sales-analysis", in)
	arts, err = RenderReport(New(), rep)
	require.NoError(t, err)
	b.Reset()
	require.NoError(t, Print(&b, rep, arts, now))
	assert.Contains(t, b.String(), "class=\"bar-row\"")
}

func TestPrint_EscapesText(t *testing.T) {
	rep := report.Report{Title: "<script>x</script>"}
	arts := []Artifact{{
		Kind:    report.KindPlaceholder,
		Message: "a & b",
	}}
	var b strings.Builder
	require.NoError(t, Print(&b, rep, arts, time.Now()))
	assert.NotContains(t, b.String(), "<script>x")
	assert.Contains(t, b.String(), "a &amp; b")
}

func TestBars_Width(t *testing.T) {
	c := &Chart{Series: []Series{{
		Name: "Value",
		Points: []Point{
			{Label: "a", Value: 4},
			{Label: "b", Value: 1},
			{Label: "c", Value: 0},
		},
	}}}
	got := bars(c)
	require.Len(t, got, 3)
	assert.Equal(t, 100.0, got[0].Width)
	assert.Equal(t, 25.0, got[1].Width)
	assert.Equal(t, 0.0, got[2].Width)
	assert.Empty(t, got[0].Series)
	assert.Nil(t, bars(nil))
}
