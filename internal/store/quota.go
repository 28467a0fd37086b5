package store

import (
	"context"
	"fmt"
	"sync"
)

// DefaultQuotaBytes is the default byte ceiling across all keys.
const DefaultQuotaBytes int64 = 5 << 20

// Quota enforces a byte ceiling on the keys and values written through it.
// Sizes are tracked for keys this wrapper has read or written.
type Quota struct {
	next  Store
	limit int64

	mu    sync.Mutex
	sizes map[string]int64
}

// NewQuota wraps next with a ceiling of limit bytes.
func NewQuota(next Store, limit int64) *Quota {
	return &Quota{next: next, limit: limit, sizes: map[string]int64{}}
}

// Used reports the tracked byte total.
func (q *Quota) Used() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	var total int64
	for _, n := range q.sizes {
		total += n
	}
	return total
}

func (q *Quota) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := q.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	q.sizes[key] = entrySize(key, data)
	q.mu.Unlock()
	return data, nil
}

func (q *Quota) Put(ctx context.Context, key string, data []byte) error {
	q.mu.Lock()
	var others int64
	for k, n := range q.sizes {
		if k != key {
			others += n
		}
	}
	size := entrySize(key, data)
	q.mu.Unlock()
	if others+size > q.limit {
		return fmt.Errorf("%w: writing %s needs %d bytes, %d of %d in use", ErrQuotaExceeded, key, size, others, q.limit)
	}
	if err := q.next.Put(ctx, key, data); err != nil {
		return err
	}
	q.mu.Lock()
	q.sizes[key] = size
	q.mu.Unlock()
	return nil
}

func (q *Quota) Delete(ctx context.Context, key string) error {
	if err := q.next.Delete(ctx, key); err != nil {
		return err
	}
	q.mu.Lock()
	delete(q.sizes, key)
	q.mu.Unlock()
	return nil
}

func (q *Quota) Close() error {
	return q.next.Close()
}

func entrySize(key string, data []byte) int64 {
	return int64(len(key) + len(data))
}
