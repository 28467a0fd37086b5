// Package limiter windows result sets with limit, offset and tail.
package limiter

import (
	"fmt"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int `json:"limit,omitempty"`  // Show only this many records (0 = unlimited)
	Offset int `json:"offset,omitempty"` // Skip the first N records (0 = no skip)
	Tail   int `json:"tail,omitempty"`   // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Rules:
// - Limit and Tail are mutually exclusive
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Window returns the [start, end) bounds selected from a sequence of length n.
func (c Config) Window(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(c.Offset, n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply windows arrays by element and objects by entry, keeping object key
// order (plain maps are visited in sorted key order and returned as ordered
// objects). Scalars are returned unchanged.
func (c Config) Apply(data any) any {
	if !c.IsActive() {
		return data
	}
	switch value.KindOf(data) {
	case value.KindArray:
		items, _ := value.Elements(data)
		return Slice(c, items)
	case value.KindObject:
		entries, _ := value.Entries(data)
		out := value.NewObject()
		for _, e := range Slice(c, entries) {
			out.Set(e.Key, e.Value)
		}
		return out
	default:
		return data
	}
}

// Slice applies the window to items. The result shares items' backing array.
func Slice[T any](c Config, items []T) []T {
	start, end := c.Window(len(items))
	return items[start:end]
}
