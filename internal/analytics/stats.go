package analytics

import (
	"math"
	"sort"
)

// Stats summarizes execution times. Every figure is rounded to two
// decimals; an empty window yields zeros.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"stdDev"`
	Sum    float64 `json:"sum"`
	Count  int     `json:"count"`
}

// ComputeStats derives Stats from metrics.
func ComputeStats(metrics []QueryMetric) Stats {
	if len(metrics) == 0 {
		return Stats{}
	}
	times := executionTimes(metrics)
	sort.Float64s(times)

	sum := 0.0
	for _, t := range times {
		sum += t
	}
	n := float64(len(times))
	mean := sum / n
	variance := 0.0
	for _, t := range times {
		variance += (t - mean) * (t - mean)
	}
	variance /= n

	p50 := percentile(times, 50)
	return Stats{
		Mean:   round(mean, 2),
		Median: round(p50, 2),
		Min:    round(times[0], 2),
		Max:    round(times[len(times)-1], 2),
		P50:    round(p50, 2),
		P75:    round(percentile(times, 75), 2),
		P90:    round(percentile(times, 90), 2),
		P95:    round(percentile(times, 95), 2),
		P99:    round(percentile(times, 99), 2),
		StdDev: round(math.Sqrt(variance), 2),
		Sum:    round(sum, 2),
		Count:  len(times),
	}
}

func executionTimes(metrics []QueryMetric) []float64 {
	times := make([]float64, len(metrics))
	for i, m := range metrics {
		times[i] = m.ExecutionTime
	}
	return times
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
