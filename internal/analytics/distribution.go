package analytics

import (
	"fmt"
	"math"
)

// Bins is the number of distribution buckets.
const Bins = 10

// Bucket is one histogram bin of execution times.
type Bucket struct {
	Range      string  `json:"range"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Distribution splits execution times into Bins equal-width buckets over
// [min, max]. Every bucket but the last excludes its upper bound. When all
// times are equal the width is 1. An empty window yields no buckets.
func Distribution(metrics []QueryMetric) []Bucket {
	if len(metrics) == 0 {
		return []Bucket{}
	}
	times := executionTimes(metrics)
	lo, hi := times[0], times[0]
	for _, t := range times[1:] {
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	width := (hi - lo) / Bins
	if width == 0 {
		width = 1
	}

	buckets := make([]Bucket, Bins)
	for i := range buckets {
		bMin := lo + float64(i)*width
		bMax := lo + float64(i+1)*width
		last := i == Bins-1
		if last && bMax < hi {
			bMax = hi
		}
		count := 0
		for _, t := range times {
			if t >= bMin && (t < bMax || (last && t <= bMax)) {
				count++
			}
		}
		buckets[i] = Bucket{
			Range:      fmt.Sprintf("%.1f-%.1fms", bMin, bMax),
			Min:        bMin,
			Max:        bMax,
			Count:      count,
			Percentage: math.Round(float64(count) / float64(len(times)) * 100),
		}
	}
	return buckets
}
