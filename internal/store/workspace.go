package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oakwood-commons/pathbench/internal/analytics"
	"github.com/oakwood-commons/pathbench/internal/history"
	"github.com/oakwood-commons/pathbench/pkg/logger"
)

// Keys under which the workbench rings are persisted.
const (
	KeyMetrics   = "pathbench.metrics"
	KeyHistory   = "pathbench.history"
	KeyFavorites = "pathbench.favorites"
)

// Keys lists the workspace keys in load order.
var Keys = []string{KeyMetrics, KeyHistory, KeyFavorites}

// Workspace is the persisted state of one workbench.
type Workspace struct {
	Metrics   []analytics.QueryMetric `json:"metrics"`
	History   []history.Item          `json:"history"`
	Favorites []history.Favorite      `json:"favorites"`
}

// KeyResult is the outcome of reading or writing one key.
type KeyResult struct {
	Key string
	Err error
}

// Report collects per-key outcomes. Failures are absorbed so one bad key
// never blocks the others.
type Report []KeyResult

// Err joins every failed key into one error, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, kr := range r {
		if kr.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kr.Key, kr.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed reports whether key failed.
func (r Report) Failed(key string) bool {
	for _, kr := range r {
		if kr.Key == key {
			return kr.Err != nil
		}
	}
	return false
}

// LoadWorkspace reads every key. Missing keys yield empty sequences;
// corrupt or unreadable keys are logged, reported, and treated as empty.
func LoadWorkspace(ctx context.Context, s Store) (Workspace, Report) {
	lgr := logger.FromContext(ctx)
	ws := Workspace{
		Metrics:   []analytics.QueryMetric{},
		History:   []history.Item{},
		Favorites: []history.Favorite{},
	}
	targets := map[string]any{
		KeyMetrics:   &ws.Metrics,
		KeyHistory:   &ws.History,
		KeyFavorites: &ws.Favorites,
	}

	report := make(Report, 0, len(Keys))
	for _, key := range Keys {
		err := loadKey(ctx, s, key, targets[key])
		switch {
		case errors.Is(err, ErrNotFound):
			lgr.V(1).Info("no stored value", logger.StoreKeyKey, key)
			err = nil
		case err != nil:
			lgr.Error(err, "failed to load stored value", logger.StoreKeyKey, key)
		}
		report = append(report, KeyResult{Key: key, Err: err})
	}

	// A failed decode can leave a partially filled slice behind.
	if report.Failed(KeyMetrics) || ws.Metrics == nil {
		ws.Metrics = []analytics.QueryMetric{}
	}
	if report.Failed(KeyHistory) || ws.History == nil {
		ws.History = []history.Item{}
	}
	if report.Failed(KeyFavorites) || ws.Favorites == nil {
		ws.Favorites = []history.Favorite{}
	}
	return ws, report
}

func loadKey(ctx context.Context, s Store, key string, target any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("corrupt value: %w", err)
	}
	return nil
}

// SaveWorkspace writes every key. Failures such as ErrQuotaExceeded are
// logged and reported; the remaining keys are still written.
func SaveWorkspace(ctx context.Context, s Store, ws Workspace) Report {
	lgr := logger.FromContext(ctx)
	values := map[string]any{
		KeyMetrics:   nonNil(ws.Metrics),
		KeyHistory:   nonNil(ws.History),
		KeyFavorites: nonNil(ws.Favorites),
	}

	report := make(Report, 0, len(Keys))
	for _, key := range Keys {
		err := saveKey(ctx, s, key, values[key])
		if err != nil {
			lgr.Error(err, "failed to save value", logger.StoreKeyKey, key)
		}
		report = append(report, KeyResult{Key: key, Err: err})
	}
	return report
}

func saveKey(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
