// Package core is the workbench session: it owns the metrics, history and
// favorites rings, runs queries through an engine.Evaluator and persists the
// rings through a store.Store.
package core

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pathbench/internal/analytics"
	"github.com/oakwood-commons/pathbench/internal/engine"
	"github.com/oakwood-commons/pathbench/internal/history"
	"github.com/oakwood-commons/pathbench/internal/store"
	"github.com/oakwood-commons/pathbench/pkg/loader"
	"github.com/oakwood-commons/pathbench/pkg/logger"
)

// Execution is the outcome of one successful query run.
type Execution struct {
	Result      any                   `json:"result"`
	ResultCount int                   `json:"resultCount"`
	Metric      analytics.QueryMetric `json:"metric"`
	Recorded    bool                  `json:"recorded"`
}

// Workbench is safe for concurrent use; every mutation is serialised.
type Workbench struct {
	mu sync.Mutex

	evaluator    engine.Evaluator
	store        store.Store
	lgr          logr.Logger
	now          func() time.Time
	newID        func() string
	recentWindow int
	sampleMemory bool

	metrics   *analytics.Ring
	history   *history.History
	favorites *history.Favorites
	insights  *analytics.InsightEngine
}

// Option configures the Workbench.
type Option func(*Workbench)

// WithEvaluator sets the query engine. Defaults to engine.New().
func WithEvaluator(e engine.Evaluator) Option {
	return func(w *Workbench) {
		w.evaluator = e
	}
}

// WithStore sets the persistence backend. Without one nothing is persisted.
func WithStore(s store.Store) Option {
	return func(w *Workbench) {
		w.store = s
	}
}

// WithLogger sets the logger, taking precedence over the context logger.
func WithLogger(lgr logr.Logger) Option {
	return func(w *Workbench) {
		w.lgr = lgr
	}
}

// WithClock sets the time source for timestamps and execution timing.
func WithClock(now func() time.Time) Option {
	return func(w *Workbench) {
		w.now = now
	}
}

// WithIDGenerator sets the ID source for metrics, history and favorites.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workbench) {
		w.newID = gen
	}
}

// WithRecentWindow sets the sample count the insight rules treat as recent.
func WithRecentWindow(n int) Option {
	return func(w *Workbench) {
		w.recentWindow = n
	}
}

// WithMemorySampling records Go heap usage on every metric.
func WithMemorySampling(enabled bool) Option {
	return func(w *Workbench) {
		w.sampleMemory = enabled
	}
}

// New creates a Workbench with empty rings. Call Load to restore persisted state.
func New(opts ...Option) (*Workbench, error) {
	w := &Workbench{
		now:          time.Now,
		recentWindow: analytics.DefaultRecentWindow,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.evaluator == nil {
		w.evaluator = engine.New()
	}

	ringOpts := []analytics.RingOption{analytics.WithClock(w.now)}
	histOpts := []history.Option{history.WithClock(w.now)}
	if w.newID != nil {
		ringOpts = append(ringOpts, analytics.WithIDGenerator(w.newID))
		histOpts = append(histOpts, history.WithIDGenerator(w.newID))
	}
	w.metrics = analytics.NewRing(ringOpts...)
	w.history = history.New(histOpts...)
	w.favorites = history.NewFavorites(histOpts...)

	insights, err := analytics.NewInsightEngine(analytics.WithRecentWindow(w.recentWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to build insight rules: %w", err)
	}
	w.insights = insights
	return w, nil
}

// LoadRoot parses input into a single root node; multi-doc inputs return a slice.
func LoadRoot(input string) (any, error) {
	return loader.LoadRoot(input)
}

// LoadFile reads a file and parses it into a single root node.
func LoadFile(path string) (any, error) {
	return loader.LoadFile(path)
}

func (w *Workbench) logger(ctx context.Context) logr.Logger {
	if w.lgr.GetSink() != nil {
		return w.lgr
	}
	return *logger.FromContext(ctx)
}

func (w *Workbench) withLogger(ctx context.Context) context.Context {
	lgr := w.logger(ctx)
	return logger.WithLogger(ctx, &lgr)
}

// Load replaces the rings with the persisted workspace. Per-key failures are
// logged and reported; the affected ring starts empty.
func (w *Workbench) Load(ctx context.Context) store.Report {
	if w.store == nil {
		return nil
	}
	ws, report := store.LoadWorkspace(w.withLogger(ctx), w.store)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics.Replace(ws.Metrics)
	w.history.Replace(ws.History)
	w.favorites.Replace(ws.Favorites)
	return report
}

// Save persists the rings. Failures are logged and reported, never fatal.
func (w *Workbench) Save(ctx context.Context) store.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.save(ctx)
}

func (w *Workbench) save(ctx context.Context) store.Report {
	if w.store == nil {
		return nil
	}
	return store.SaveWorkspace(w.withLogger(ctx), w.store, store.Workspace{
		Metrics:   w.metrics.Items(),
		History:   w.history.Items(),
		Favorites: w.favorites.Items(),
	})
}

// Close releases the store.
func (w *Workbench) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}

// Execute evaluates query against data, records a metric and a history
// entry, and persists the workspace. Evaluation errors are returned and
// nothing is recorded.
func (w *Workbench) Execute(ctx context.Context, query string, data any) (Execution, error) {
	lgr := w.logger(ctx)
	query = strings.TrimSpace(query)
	if query == "" {
		return Execution{}, engine.ErrEmptyQuery
	}

	start := w.now()
	result, err := w.evaluator.Evaluate(ctx, query, data)
	if err != nil {
		lgr.V(1).Info("query failed", logger.QueryKey, query, "error", err.Error())
		return Execution{}, err
	}
	elapsed := float64(w.now().Sub(start)) / float64(time.Millisecond)
	count := engine.CountResults(result)

	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		metric analytics.QueryMetric
		ok     bool
	)
	if w.sampleMemory {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		metric, ok = w.metrics.IngestWithMemory(query, elapsed, count, float64(ms.HeapAlloc))
	} else {
		metric, ok = w.metrics.Ingest(query, elapsed, count)
	}
	if !ok {
		lgr.V(1).Info("metric rejected", logger.QueryKey, query, logger.DurationKey, elapsed)
	}
	w.history.Add(query, metric.ExecutionTime, count)
	w.save(ctx)

	lgr.V(1).Info("query executed", logger.QueryKey, query, logger.DurationKey, metric.ExecutionTime, "results", count)
	return Execution{Result: result, ResultCount: count, Metric: metric, Recorded: ok}, nil
}

// Metrics returns a copy of the metrics ring, newest first.
func (w *Workbench) Metrics() []analytics.QueryMetric {
	return w.metrics.Items()
}

// History returns a copy of the history ring, newest first.
func (w *Workbench) History() []history.Item {
	return w.history.Items()
}

// Favorites returns a copy of the favorites list.
func (w *Workbench) Favorites() []history.Favorite {
	return w.favorites.Items()
}

// Stats summarises the metrics ring.
func (w *Workbench) Stats() analytics.Stats {
	return analytics.ComputeStats(w.metrics.Items())
}

// Insights runs the insight rules over the metrics ring.
func (w *Workbench) Insights() ([]analytics.Insight, error) {
	metrics := w.metrics.Items()
	return w.insights.Insights(metrics, analytics.ComputeStats(metrics))
}

// Distribution buckets the execution times of the metrics ring.
func (w *Workbench) Distribution() []analytics.Bucket {
	return analytics.Distribution(w.metrics.Items())
}

// Leaderboard ranks the metrics ring.
func (w *Workbench) Leaderboard(n int) analytics.Leaderboard {
	return analytics.Rank(w.metrics.Items(), n)
}

// Trend compares the recent window with the rest of the ring.
func (w *Workbench) Trend() analytics.TrendReport {
	return analytics.Trend(w.metrics.Items(), w.recentWindow)
}

// Report assembles the full analytics report.
func (w *Workbench) Report() (analytics.Report, error) {
	metrics := w.metrics.Items()
	insights, err := w.insights.Insights(metrics, analytics.ComputeStats(metrics))
	return analytics.NewReport(metrics, insights, w.now()), err
}

// ExportMetrics renders the metrics ring as "json" or "csv" and returns the
// content with a timestamped file name.
func (w *Workbench) ExportMetrics(format string) (content, filename string, err error) {
	metrics := w.metrics.Items()
	now := w.now()
	switch format {
	case "json", "":
		content, err = analytics.ExportJSON(metrics, now)
		return content, analytics.Filename("json", now), err
	case "csv":
		return analytics.ExportCSV(metrics), analytics.Filename("csv", now), nil
	default:
		return "", "", fmt.Errorf("unsupported export format %q", format)
	}
}

// ClearMetrics empties the metrics ring and persists the change.
func (w *Workbench) ClearMetrics(ctx context.Context) store.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics.Clear()
	return w.save(ctx)
}

// ClearHistory empties the history ring and persists the change.
func (w *Workbench) ClearHistory(ctx context.Context) store.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history.Clear()
	return w.save(ctx)
}

// AddFavorite stores query under name. Returns false when query is blank or
// already a favorite.
func (w *Workbench) AddFavorite(ctx context.Context, query, name string) (history.Favorite, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fav, ok := w.favorites.Add(query, name)
	if ok {
		w.save(ctx)
	}
	return fav, ok
}

// RemoveFavorite deletes the favorite with id.
func (w *Workbench) RemoveFavorite(ctx context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ok := w.favorites.Remove(id)
	if ok {
		w.save(ctx)
	}
	return ok
}

// ToggleFavorite adds query when absent and removes it when present. It
// returns whether query is a favorite afterwards.
func (w *Workbench) ToggleFavorite(ctx context.Context, query, name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	on := w.favorites.Toggle(query, name)
	w.save(ctx)
	return on
}
