package analytics

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/pathbench/internal/cel"
)

// DefaultRecentWindow is how many of the newest samples the trend rule compares.
const DefaultRecentWindow = 10

// Severity grades an insight.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// Insight is one qualitative observation about the metrics window.
type Insight struct {
	Severity       Severity `json:"type"`
	Title          string   `json:"title"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Facts are the figures rules are evaluated against. Every value is a
// float64 so rule conditions compare doubles.
type Facts map[string]any

// Rule emits an insight when its CEL condition holds. The condition sees
// the facts as "_", for example "_.count > 0.0 && _.mean > 100.0".
type Rule struct {
	Name           string
	Condition      string
	Severity       Severity
	Title          string
	Message        func(Facts) string
	Recommendation string
}

// DefaultRules is the built-in battery in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "no-data",
			Condition: "_.count == 0.0",
			Severity:  SeverityInfo,
			Title:     "No data yet",
			Message: func(Facts) string {
				return "Run some queries to see performance insights."
			},
		},
		{
			Name:      "high-variability",
			Condition: "_.count > 0.0 && _.stdDev > 0.5 * _.mean",
			Severity:  SeverityWarning,
			Title:     "High performance variability",
			Message: func(f Facts) string {
				return fmt.Sprintf("Execution times vary widely (std dev %.2fms against a %.2fms mean).", f["stdDev"], f["mean"])
			},
			Recommendation: "Look for queries with heavy filters or recursive descent that run much slower than the rest.",
		},
		{
			Name:      "consistent",
			Condition: "_.count > 0.0 && _.stdDev < 0.2 * _.mean",
			Severity:  SeveritySuccess,
			Title:     "Consistent performance",
			Message: func(f Facts) string {
				return fmt.Sprintf("Execution times are stable (std dev %.2fms).", f["stdDev"])
			},
		},
		{
			Name:      "degrading",
			Condition: "_.count >= _.recentWindow && _.recentMean > _.mean * 1.1",
			Severity:  SeverityWarning,
			Title:     "Performance degrading",
			Message: func(f Facts) string {
				return fmt.Sprintf("Recent queries average %.2fms, slower than the overall %.2fms.", f["recentMean"], f["mean"])
			},
			Recommendation: "Check whether recent queries or the dataset grew more complex.",
		},
		{
			Name:      "improving",
			Condition: "_.count >= _.recentWindow && _.recentMean < _.mean * 0.9",
			Severity:  SeveritySuccess,
			Title:     "Performance improving",
			Message: func(f Facts) string {
				return fmt.Sprintf("Recent queries average %.2fms, faster than the overall %.2fms.", f["recentMean"], f["mean"])
			},
		},
		{
			Name:      "complex-mix",
			Condition: "_.count > 0.0 && _.complexShare > 0.3",
			Severity:  SeverityInfo,
			Title:     "Many complex queries",
			Message: func(f Facts) string {
				return fmt.Sprintf("%.0f%% of queries score well above the average complexity.", f["complexShare"].(float64)*100)
			},
			Recommendation: "Simplify filters or narrow the root path where possible.",
		},
		{
			Name:      "fast",
			Condition: "_.count > 0.0 && _.mean < 10.0",
			Severity:  SeveritySuccess,
			Title:     "Excellent performance",
			Message: func(f Facts) string {
				return fmt.Sprintf("Queries average %.2fms.", f["mean"])
			},
		},
		{
			Name:      "slow",
			Condition: "_.count > 0.0 && _.mean > 100.0",
			Severity:  SeverityWarning,
			Title:     "Slow queries",
			Message: func(f Facts) string {
				return fmt.Sprintf("Queries average %.2fms.", f["mean"])
			},
			Recommendation: "Avoid recursive descent over large documents and prefer explicit paths.",
		},
		{
			Name:      "large-results",
			Condition: "_.count > 0.0 && _.avgResultCount > 1000.0",
			Severity:  SeverityInfo,
			Title:     "Large result sets",
			Message: func(f Facts) string {
				return fmt.Sprintf("Queries return %.0f results on average.", f["avgResultCount"])
			},
			Recommendation: "Add filters or slices to reduce result size.",
		},
	}
}

// InsightOption configures an InsightEngine.
type InsightOption func(*InsightEngine)

// WithRecentWindow overrides DefaultRecentWindow.
func WithRecentWindow(n int) InsightOption {
	return func(e *InsightEngine) {
		if n > 0 {
			e.recentWindow = n
		}
	}
}

// WithRules appends rules after the defaults.
func WithRules(rules ...Rule) InsightOption {
	return func(e *InsightEngine) {
		e.rules = append(e.rules, rules...)
	}
}

// InsightEngine evaluates rules over a metrics window.
type InsightEngine struct {
	eval         *cel.Evaluator
	rules        []Rule
	recentWindow int
}

// NewInsightEngine compiles every rule up front.
func NewInsightEngine(opts ...InsightOption) (*InsightEngine, error) {
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	e := &InsightEngine{eval: eval, rules: DefaultRules(), recentWindow: DefaultRecentWindow}
	for _, opt := range opts {
		opt(e)
	}
	for _, r := range e.rules {
		if _, err := eval.Compile(r.Condition); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
	}
	return e, nil
}

// Facts computes the rule inputs. metrics are newest first.
func (e *InsightEngine) Facts(metrics []QueryMetric, stats Stats) Facts {
	recent := metrics
	if len(recent) > e.recentWindow {
		recent = recent[:e.recentWindow]
	}

	complexities := make([]float64, len(metrics))
	results := make([]float64, len(metrics))
	for i, m := range metrics {
		complexities[i] = m.ComplexityScore
		results[i] = float64(m.ResultCount)
	}
	avgComplexity := mean(complexities)
	complexShare := 0.0
	if len(metrics) > 0 {
		high := 0
		for _, c := range complexities {
			if c > avgComplexity*1.5 {
				high++
			}
		}
		complexShare = float64(high) / float64(len(metrics))
	}

	return Facts{
		"count":          float64(len(metrics)),
		"mean":           stats.Mean,
		"stdDev":         stats.StdDev,
		"recentWindow":   float64(e.recentWindow),
		"recentMean":     mean(executionTimes(recent)),
		"avgComplexity":  avgComplexity,
		"complexShare":   complexShare,
		"avgResultCount": mean(results),
	}
}

// Insights runs every rule in order. A rule that fails to evaluate is
// skipped and its error joined into the returned error.
func (e *InsightEngine) Insights(metrics []QueryMetric, stats Stats) ([]Insight, error) {
	facts := e.Facts(metrics, stats)
	out := []Insight{}
	var errs []error
	for _, r := range e.rules {
		ok, err := e.eval.Match(r.Condition, map[string]any(facts))
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.Name, err))
			continue
		}
		if !ok {
			continue
		}
		in := Insight{Severity: r.Severity, Title: r.Title, Recommendation: r.Recommendation}
		if r.Message != nil {
			in.Message = r.Message(facts)
		}
		out = append(out, in)
	}
	return out, errors.Join(errs...)
}
