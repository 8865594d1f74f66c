package render

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/wesm/inventoryview/internal/report"
)

type printData struct {
	Title       string
	Description string
	TimeRange   string
	GeneratedAt string
	Sections    []printSection
}

type printSection struct {
	Artifact
	Bars []printBar
}

// printBar is one row of a chart drawn as horizontal bars. Width is
// the bar length as a percentage of the largest value.
type printBar struct {
	Series string
	Label  string
	Value  string
	Width  float64
	Color  string
}

var printTmpl = template.Must(
	template.New("print").Parse(printTemplateStr))

const printTemplateStr = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
:root {
  --bg-surface: #ffffff;
  --border-default: #e5e0db;
  --text-primary: #2c2825;
  --text-muted: #8c8580;
  --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI",
    Roboto, "Helvetica Neue", sans-serif;
}
body {
  font-family: var(--font-sans); color: var(--text-primary);
  background: var(--bg-surface); margin: 24px;
}
h1 { font-size: 20px; margin: 0 0 4px; }
h2 { font-size: 16px; margin: 24px 0 8px; }
.meta { font-size: 12px; color: var(--text-muted); }
.figures { display: flex; gap: 24px; margin: 12px 0; }
.figure .label { font-size: 11px; color: var(--text-muted); }
.figure .value { font-size: 18px; font-weight: 600; }
.bar-row { display: flex; align-items: center; font-size: 12px; }
.bar-label { width: 180px; }
.bar { height: 12px; margin-right: 8px; }
table { border-collapse: collapse; margin: 8px 0; font-size: 12px; }
th, td { border: 1px solid var(--border-default); padding: 4px 8px; }
td.right, th.right { text-align: right; }
tfoot td { font-weight: 600; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<header>
  <h1>{{.Title}}</h1>
  {{- if .Description}}<div class="meta">{{.Description}}</div>{{end}}
  <div class="meta">
    {{- if .TimeRange}}<span>{{.TimeRange}}</span> {{end}}
    <span>Generated {{.GeneratedAt}}</span>
  </div>
</header>
<main>
{{- range .Sections}}
<section>
  {{- if .Title}}<h2>{{.Title}}</h2>{{end}}
  {{- if .Message}}<p>{{.Message}}</p>{{end}}
  {{- if .Figures}}
  <div class="figures">
    {{- range .Figures}}
    <div class="figure"><div class="label">{{.Label}}</div><div class="value">{{.Value}}</div></div>
    {{- end}}
  </div>
  {{- end}}
  {{- range .Bars}}
  <div class="bar-row"><span class="bar-label">{{if .Series}}{{.Series}}: {{end}}{{.Label}}</span><span class="bar" style="width: {{.Width}}%; background: {{.Color}}"></span><span>{{.Value}}</span></div>
  {{- end}}
  {{- range .Tables}}
  <table>
    {{- if .Title}}<caption>{{.Title}}</caption>{{end}}
    <thead><tr>{{range .Columns}}<th class="{{.Align}}">{{.Label}}</th>{{end}}</tr></thead>
    <tbody>
    {{- $cols := .Columns}}
    {{- range .Rows}}
      <tr>{{range $i, $c := .}}<td class="{{(index $cols $i).Align}}">{{$c}}</td>{{end}}</tr>
    {{- end}}
    </tbody>
    {{- if .Summary}}
    <tfoot><tr>{{range .Summary}}<td>{{.}}</td>{{end}}</tr></tfoot>
    {{- end}}
  </table>
  {{- end}}
</section>
{{- end}}
</main>
</body></html>`

// Print writes a standalone printable HTML page for a report and its
// rendered artifacts.
func Print(
	w io.Writer, rep report.Report, artifacts []Artifact, now time.Time,
) error {
	data := printData{
		Title:       rep.Title,
		Description: rep.Description,
		TimeRange:   string(rep.TimeRange),
		GeneratedAt: now.Format("2006-01-02 15:04"),
		Sections:    make([]printSection, len(artifacts)),
	}
	for i, a := range artifacts {
		sec := printSection{Artifact: a, Bars: bars(a.Chart)}
		if i == 0 {
			// The page header already shows the main title.
			sec.Title = ""
			sec.Description = ""
		}
		data.Sections[i] = sec
	}
	if err := printTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing print template: %w", err)
	}
	return nil
}

func bars(c *Chart) []printBar {
	if c == nil {
		return nil
	}
	var largest float64
	for _, s := range c.Series {
		for _, p := range s.Points {
			largest = math.Max(largest, p.Value)
		}
	}
	var out []printBar
	for _, s := range c.Series {
		name := ""
		if len(c.Series) > 1 {
			name = s.Name
		}
		for _, p := range s.Points {
			width := 0.0
			if largest > 0 {
				width = math.Round(p.Value/largest*1000) / 10
			}
			out = append(out, printBar{
				Series: name,
				Label:  p.Label,
				Value:  report.FormatValue(p.Value),
				Width:  math.Max(0, width),
				Color:  s.Color,
			})
		}
	}
	return out
}
