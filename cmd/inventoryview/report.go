package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/fixture"
	"github.com/wesm/inventoryview/internal/render"
	"github.com/wesm/inventoryview/internal/report"
	"github.com/wesm/inventoryview/internal/trend"
)

// ReportConfig holds parsed CLI options for the report command.
type ReportConfig struct {
	Category  string
	Type      string
	Section   string
	TimeRange trend.TimeRange
	Format    string
}

func parseReportFlags(
	args []string,
) (ReportConfig, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	category := fs.String("category", "financial", "Report category")
	typ := fs.String("type", "overview", "Report type")
	section := fs.String(
		"section", "",
		"Section report (products, inventory, orders, ...)",
	)
	timeRange := fs.String(
		"range", string(trend.Monthly),
		"Time range: weekly, monthly, or yearly",
	)
	format := fs.String("format", "text", "Output format: text or json")
	config.RegisterDataFlags(fs)

	if err := fs.Parse(args); err != nil {
		return ReportConfig{}, nil, err
	}

	tr, err := trend.ParseTimeRange(*timeRange)
	if err != nil {
		return ReportConfig{}, nil, fmt.Errorf(
			"%w: %q", report.ErrInvalidTimeRange, *timeRange,
		)
	}
	if *format != "text" && *format != "json" {
		return ReportConfig{}, nil, fmt.Errorf(
			"unknown format %q (want text or json)", *format,
		)
	}
	return ReportConfig{
		Category:  *category,
		Type:      *typ,
		Section:   *section,
		TimeRange: tr,
		Format:    *format,
	}, fs, nil
}

func runReport(args []string, out io.Writer) {
	rc, fs, err := parseReportFlags(args)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	rep, err := buildReport(cfg, rc)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	if err := writeReport(out, rep, rc.Format); err != nil {
		log.Fatalf("report: %v", err)
	}
}

// buildReport loads the configured dataset and resolves one report.
func buildReport(
	cfg config.Config, rc ReportConfig,
) (report.Report, error) {
	res, err := loadDataset(cfg.DatasetPath)
	if err != nil {
		return report.Report{}, err
	}
	if rc.Section != "" {
		return report.Section(rc.Section, res.Dataset), nil
	}
	return report.Default().Build(rc.Category, rc.Type, report.Input{
		Dataset:   res.Dataset,
		TimeRange: rc.TimeRange,
		Trend:     trend.New(cfg.Seed),
	}), nil
}

func loadDataset(path string) (fixture.Result, error) {
	if path == "" {
		return fixture.Seed()
	}
	res, err := fixture.Load(path)
	if err != nil {
		return res, fmt.Errorf("loading dataset: %w", err)
	}
	return res, nil
}

// writeReport prints rep in the requested format. Text output is the
// download document followed by headline figures and tables.
func writeReport(w io.Writer, rep report.Report, format string) error {
	arts, err := render.RenderReport(render.New(), rep)
	if err != nil {
		return err
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			report.Report
			Artifacts []render.Artifact `json:"artifacts"`
		}{rep, arts})
	}

	_, content := report.Download(rep)
	var b strings.Builder
	b.WriteString(content)
	for _, a := range arts {
		if a.Message != "" {
			fmt.Fprintf(&b, "\n%s\n", a.Message)
		}
		if len(a.Figures) > 0 {
			b.WriteByte('\n')
			for _, f := range a.Figures {
				fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
			}
		}
		for _, t := range a.Tables {
			writeTable(&b, t)
		}
	}
	_, err = io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, t render.Table) {
	b.WriteByte('\n')
	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteByte('\n')
	}
	labels := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		labels[i] = c.Label
	}
	b.WriteString(strings.Join(labels, "\t"))
	b.WriteByte('\n')
	for _, row := range t.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	if len(t.Summary) > 0 {
		b.WriteString(strings.Join(t.Summary, "\t"))
		b.WriteByte('\n')
	}
}
