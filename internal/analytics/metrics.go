// Package analytics keeps a bounded ring of query execution samples and
// derives statistics, insights, distributions and exports from it.
package analytics

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxMetrics caps the ring.
const MaxMetrics = 100

// QueryMetric is one successful execution. It is never modified after
// creation.
type QueryMetric struct {
	ID              string   `json:"id"`
	Query           string   `json:"query"`
	ExecutionTime   float64  `json:"executionTime"`
	ResultCount     int      `json:"resultCount"`
	Timestamp       int64    `json:"timestamp"`
	ComplexityScore float64  `json:"complexityScore"`
	MemoryUsage     *float64 `json:"memoryUsage,omitempty"`
}

// Time returns the sample timestamp.
func (m QueryMetric) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// RingOption configures a Ring.
type RingOption func(*Ring)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RingOption {
	return func(r *Ring) {
		r.now = now
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) RingOption {
	return func(r *Ring) {
		r.newID = gen
	}
}

// WithCapacity overrides MaxMetrics.
func WithCapacity(n int) RingOption {
	return func(r *Ring) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// Ring holds metrics newest first. It is safe for one writer and many
// readers.
type Ring struct {
	mu       sync.RWMutex
	items    []QueryMetric
	capacity int
	now      func() time.Time
	newID    func() string
}

// NewRing returns an empty ring.
func NewRing(opts ...RingOption) *Ring {
	r := &Ring{capacity: MaxMetrics, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest records an execution. Blank queries, negative counts, and times
// that are negative or not finite are ignored and reported as false.
func (r *Ring) Ingest(query string, executionTime float64, resultCount int) (QueryMetric, bool) {
	if strings.TrimSpace(query) == "" || executionTime < 0 || resultCount < 0 ||
		math.IsNaN(executionTime) || math.IsInf(executionTime, 0) {
		return QueryMetric{}, false
	}
	m := QueryMetric{
		ID:              r.newID(),
		Query:           query,
		ExecutionTime:   round(executionTime, 2),
		ResultCount:     resultCount,
		Timestamp:       r.now().UnixMilli(),
		ComplexityScore: ComplexityScore(query),
	}
	r.push(m)
	return m, true
}

// IngestWithMemory is Ingest with a memory usage figure attached.
func (r *Ring) IngestWithMemory(query string, executionTime float64, resultCount int, memoryUsage float64) (QueryMetric, bool) {
	m, ok := r.Ingest(query, executionTime, resultCount)
	if !ok {
		return m, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	mem := memoryUsage
	r.items[0].MemoryUsage = &mem
	return r.items[0], true
}

func (r *Ring) push(m QueryMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]QueryMetric, 0, min(len(r.items)+1, r.capacity))
	items = append(items, m)
	items = append(items, r.items...)
	if len(items) > r.capacity {
		items = items[:r.capacity]
	}
	r.items = items
}

// Items returns a copy of the ring, newest first.
func (r *Ring) Items() []QueryMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]QueryMetric, len(r.items))
	copy(out, r.items)
	return out
}

// Len reports the number of samples held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear empties the ring.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

// Replace loads previously persisted samples, newest first, keeping at
// most the ring capacity.
func (r *Ring) Replace(items []QueryMetric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := min(len(items), r.capacity)
	r.items = make([]QueryMetric, n)
	copy(r.items, items[:n])
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
