package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report is a point-in-time summary of the metrics window.
type Report struct {
	GeneratedAt  time.Time   `json:"generatedAt"`
	Stats        Stats       `json:"stats"`
	Insights     []Insight   `json:"insights"`
	Distribution []Bucket    `json:"distribution"`
	Leaderboard  Leaderboard `json:"leaderboard"`
	Trend        TrendReport `json:"trend"`
}

// NewReport derives every section from metrics, newest first.
func NewReport(metrics []QueryMetric, insights []Insight, now time.Time) Report {
	return Report{
		GeneratedAt:  now,
		Stats:        ComputeStats(metrics),
		Insights:     insights,
		Distribution: Distribution(metrics),
		Leaderboard:  Rank(metrics, 5),
		Trend:        Trend(metrics, DefaultRecentWindow),
	}
}

// Markdown renders the report as a Markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Query performance report\n\nGenerated %s\n\n", isoTime(r.GeneratedAt))

	b.WriteString("## Statistics\n\n| Metric | Value |\n|---|---|\n")
	s := r.Stats
	for _, row := range []struct {
		name string
		val  string
	}{
		{"Queries", fmt.Sprint(s.Count)},
		{"Mean", ms(s.Mean)},
		{"Median", ms(s.Median)},
		{"Min", ms(s.Min)},
		{"Max", ms(s.Max)},
		{"P75", ms(s.P75)},
		{"P90", ms(s.P90)},
		{"P95", ms(s.P95)},
		{"P99", ms(s.P99)},
		{"Std dev", ms(s.StdDev)},
		{"Total", ms(s.Sum)},
	} {
		fmt.Fprintf(&b, "| %s | %s |\n", row.name, row.val)
	}

	fmt.Fprintf(&b, "\n## Trend\n\n%s", r.Trend.Direction)
	if r.Trend.PreviousMean > 0 {
		fmt.Fprintf(&b, " (%s recent vs %s before, %+.1f%%)", ms(r.Trend.RecentMean), ms(r.Trend.PreviousMean), r.Trend.ChangePercent)
	}
	b.WriteString("\n")

	if len(r.Insights) > 0 {
		b.WriteString("\n## Insights\n\n")
		for _, in := range r.Insights {
			fmt.Fprintf(&b, "- **%s** (%s): %s", in.Title, in.Severity, in.Message)
			if in.Recommendation != "" {
				fmt.Fprintf(&b, " _%s_", in.Recommendation)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Leaderboard.Slowest) > 0 {
		b.WriteString("\n## Slowest queries\n\n| Query | Time | Results |\n|---|---|---|\n")
		for _, m := range r.Leaderboard.Slowest {
			fmt.Fprintf(&b, "| `%s` | %s | %d |\n", cell(m.Query), ms(m.ExecutionTime), m.ResultCount)
		}
	}
	if len(r.Leaderboard.MostFrequent) > 0 {
		b.WriteString("\n## Most frequent queries\n\n| Query | Runs | Average |\n|---|---|---|\n")
		for _, f := range r.Leaderboard.MostFrequent {
			fmt.Fprintf(&b, "| `%s` | %d | %s |\n", cell(f.Query), f.Count, ms(f.AverageTime))
		}
	}

	if len(r.Distribution) > 0 {
		b.WriteString("\n## Distribution\n\n| Range | Count | Share |\n|---|---|---|\n")
		for _, bk := range r.Distribution {
			fmt.Fprintf(&b, "| %s | %d | %.0f%% |\n", bk.Range, bk.Count, bk.Percentage)
		}
	}
	return b.String()
}

// HTML renders the Markdown report to an HTML fragment.
func (r Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Markdown()))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func ms(v float64) string {
	return fmt.Sprintf("%.2fms", v)
}

// cell keeps a query from breaking the table layout.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, "\n", " ")
}
