package analytics

import (
	"sort"
)

// QueryFrequency counts how often a query text was run.
type QueryFrequency struct {
	Query       string  `json:"query"`
	Count       int     `json:"count"`
	AverageTime float64 `json:"averageTime"`
}

// Leaderboard ranks the metrics window.
type Leaderboard struct {
	Slowest      []QueryMetric    `json:"slowest"`
	Fastest      []QueryMetric    `json:"fastest"`
	MostFrequent []QueryFrequency `json:"mostFrequent"`
}

// Rank builds a Leaderboard with at most n entries per list. Ties keep
// ring order, newest first.
func Rank(metrics []QueryMetric, n int) Leaderboard {
	slow := make([]QueryMetric, len(metrics))
	copy(slow, metrics)
	sort.SliceStable(slow, func(i, j int) bool { return slow[i].ExecutionTime > slow[j].ExecutionTime })

	fast := make([]QueryMetric, len(metrics))
	copy(fast, metrics)
	sort.SliceStable(fast, func(i, j int) bool { return fast[i].ExecutionTime < fast[j].ExecutionTime })

	var order []string
	totals := map[string]*QueryFrequency{}
	for _, m := range metrics {
		f, ok := totals[m.Query]
		if !ok {
			f = &QueryFrequency{Query: m.Query}
			totals[m.Query] = f
			order = append(order, m.Query)
		}
		f.Count++
		f.AverageTime += m.ExecutionTime
	}
	freq := make([]QueryFrequency, 0, len(order))
	for _, q := range order {
		f := totals[q]
		f.AverageTime = round(f.AverageTime/float64(f.Count), 2)
		freq = append(freq, *f)
	}
	sort.SliceStable(freq, func(i, j int) bool { return freq[i].Count > freq[j].Count })

	return Leaderboard{
		Slowest:      head(slow, n),
		Fastest:      head(fast, n),
		MostFrequent: head(freq, n),
	}
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// TrendDirection summarizes whether recent executions got faster.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDegrading TrendDirection = "degrading"
	TrendStable    TrendDirection = "stable"
)

// TrendReport compares the newest window against the rest.
type TrendReport struct {
	Direction     TrendDirection `json:"direction"`
	RecentMean    float64        `json:"recentMean"`
	PreviousMean  float64        `json:"previousMean"`
	ChangePercent float64        `json:"changePercent"`
}

// Trend compares the mean of the newest window samples with the mean of
// the window before it. Changes within 10% are stable.
func Trend(metrics []QueryMetric, window int) TrendReport {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	if len(metrics) < 2 {
		return TrendReport{Direction: TrendStable}
	}
	split := min(window, len(metrics)/2)
	recent := mean(executionTimes(metrics[:split]))
	previous := mean(executionTimes(metrics[split:min(len(metrics), 2*split)]))

	r := TrendReport{Direction: TrendStable, RecentMean: round(recent, 2), PreviousMean: round(previous, 2)}
	if previous == 0 {
		return r
	}
	change := (recent - previous) / previous * 100
	r.ChangePercent = round(change, 1)
	switch {
	case change > 10:
		r.Direction = TrendDegrading
	case change < -10:
		r.Direction = TrendImproving
	}
	return r
}
