package analytics

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/pathbench/internal/export"
)

// CSVHeader is the first line of ExportCSV.
const CSVHeader = "Timestamp,Query,Execution Time (ms),Result Count,Complexity Score"

type exportedMetric struct {
	ID              string   `json:"id"`
	Query           string   `json:"query"`
	ExecutionTime   float64  `json:"executionTime"`
	ResultCount     int      `json:"resultCount"`
	Timestamp       string   `json:"timestamp"`
	ComplexityScore float64  `json:"complexityScore"`
	MemoryUsage     *float64 `json:"memoryUsage,omitempty"`
}

type exportDocument struct {
	ExportedAt string           `json:"exportedAt"`
	Stats      Stats            `json:"stats"`
	Queries    []exportedMetric `json:"queries"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ExportJSON bundles the export time, a stats snapshot and every sample
// with ISO 8601 timestamps.
func ExportJSON(metrics []QueryMetric, now time.Time) (string, error) {
	doc := exportDocument{
		ExportedAt: isoTime(now),
		Stats:      ComputeStats(metrics),
		Queries:    make([]exportedMetric, len(metrics)),
	}
	for i, m := range metrics {
		doc.Queries[i] = exportedMetric{
			ID:              m.ID,
			Query:           m.Query,
			ExecutionTime:   m.ExecutionTime,
			ResultCount:     m.ResultCount,
			Timestamp:       isoTime(m.Time()),
			ComplexityScore: m.ComplexityScore,
			MemoryUsage:     m.MemoryUsage,
		}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExportCSV writes CSVHeader and one line per sample. The query column is
// always quoted.
func ExportCSV(metrics []QueryMetric) string {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, m := range metrics {
		fields := []string{
			isoTime(m.Time()),
			`"` + strings.ReplaceAll(m.Query, `"`, `""`) + `"`,
			strconv.FormatFloat(m.ExecutionTime, 'f', -1, 64),
			strconv.Itoa(m.ResultCount),
			strconv.FormatFloat(m.ComplexityScore, 'f', -1, 64),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// Filename names an analytics export download.
func Filename(ext string, now time.Time) string {
	return export.Filename("query-analytics", ext, now)
}
