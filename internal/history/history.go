// Package history keeps the recent-query ring and the favorites list.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxItems caps the history ring.
const MaxItems = 50

// Item is one remembered query.
type Item struct {
	ID            string  `json:"id"`
	Query         string  `json:"query"`
	Timestamp     int64   `json:"timestamp"`
	ExecutionTime float64 `json:"executionTime"`
	ResultCount   int     `json:"resultCount"`
}

// Option configures History and Favorites.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.newID = gen
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// History is a newest-first ring of executed queries. Running the query
// already at the head refreshes that entry instead of adding another.
type History struct {
	mu    sync.RWMutex
	items []Item
	opts  options
}

// New returns an empty history.
func New(opts ...Option) *History {
	return &History{opts: buildOptions(opts)}
}

// Add records an execution and returns the head entry. Blank queries are
// ignored.
func (h *History) Add(query string, executionTime float64, resultCount int) (Item, bool) {
	if strings.TrimSpace(query) == "" {
		return Item{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ts := h.opts.now().UnixMilli()
	if len(h.items) > 0 && h.items[0].Query == query {
		h.items[0].Timestamp = ts
		h.items[0].ExecutionTime = executionTime
		h.items[0].ResultCount = resultCount
		return h.items[0], true
	}
	item := Item{
		ID:            h.opts.newID(),
		Query:         query,
		Timestamp:     ts,
		ExecutionTime: executionTime,
		ResultCount:   resultCount,
	}
	items := make([]Item, 0, min(len(h.items)+1, MaxItems))
	items = append(items, item)
	items = append(items, h.items...)
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	h.items = items
	return item, true
}

// Items returns a copy, newest first.
func (h *History) Items() []Item {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Item, len(h.items))
	copy(out, h.items)
	return out
}

// Len reports the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Clear empties the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
}

// Replace loads persisted entries, keeping at most MaxItems.
func (h *History) Replace(items []Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := min(len(items), MaxItems)
	h.items = make([]Item, n)
	copy(h.items, items[:n])
}
