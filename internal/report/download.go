package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/wesm/inventoryview/internal/aggregate"
)

// FormatDownload renders buckets as the plain-text report document:
// a "<CATEGORY> REPORT - <TYPE>" header, a blank line, then one
// "name: value" line per bucket in order.
func FormatDownload(
	category, typ string, buckets []aggregate.Bucket,
) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(category))
	b.WriteString(" REPORT - ")
	b.WriteString(strings.ToUpper(typ))
	b.WriteString("\n\n")
	for _, bk := range buckets {
		b.WriteString(bk.Name)
		b.WriteString(": ")
		b.WriteString(FormatValue(bk.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatValue prints whole numbers without decimals and anything
// else with at most two decimals, trailing zeros trimmed.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = aggregate.Round2(v)
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DownloadName is the attachment file name for a report.
func DownloadName(category, typ string) string {
	return category + "-" + typ + "-report.txt"
}

// Download returns the file name and text of a report's download.
func Download(r Report) (name, content string) {
	return DownloadName(r.Category, r.Type),
		FormatDownload(r.Category, r.Type, r.Data.Buckets)
}
