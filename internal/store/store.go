// Package store persists the workbench rings as opaque JSON blobs under
// fixed keys. Backends enforce no size limit themselves; wrap one in Quota
// for that.
package store

//go:generate mockgen -destination=mocks/mock_store.go -package=store_mocks github.com/oakwood-commons/pathbench/internal/store Store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrNotFound is returned by Get for a key that was never written.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Put when the write would pass the byte ceiling.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store is a byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names a backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFile   Driver = "file"
	DriverDuckDB Driver = "duckdb"
)

// DuckDBFile is the database file name used under the store path.
const DuckDBFile = "pathbench.duckdb"

// Open returns the backend for driver rooted at path, wrapped in a quota of
// quotaBytes when quotaBytes > 0.
func Open(driver Driver, path string, quotaBytes int64) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case DriverMemory, "":
		s = NewMemoryStore()
	case DriverFile:
		s, err = NewFileStore(path)
	case DriverDuckDB:
		s, err = NewDuckDBStore(filepath.Join(path, DuckDBFile))
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if quotaBytes > 0 {
		s = NewQuota(s, quotaBytes)
	}
	return s, nil
}
