package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oakwood-commons/pathbench/internal/engine"
	"github.com/oakwood-commons/pathbench/internal/store"
	store_mocks "github.com/oakwood-commons/pathbench/internal/store/mocks"
)

type fakeEvaluator struct {
	result any
	err    error
	paths  []string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, path string, _ any) (any, error) {
	f.paths = append(f.paths, path)
	return f.result, f.err
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(step)
		return t
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newWorkbench(t *testing.T, opts ...Option) *Workbench {
	t.Helper()
	base := []Option{WithClock(steppingClock(5 * time.Millisecond)), WithIDGenerator(sequentialIDs())}
	w, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return w
}

func TestExecuteWithDefaultEngine(t *testing.T) {
	w := newWorkbench(t)
	data, err := LoadRoot(`{"store":{"book":[{"price":8},{"price":12},{"price":5}]}}`)
	require.NoError(t, err)

	exec, err := w.Execute(context.Background(), "$.store.book[?(@.price < 10)].price", data)
	require.NoError(t, err)
	assert.Equal(t, []any{8.0, 5.0}, exec.Result)
	assert.Equal(t, 2, exec.ResultCount)
	assert.True(t, exec.Recorded)
	assert.Equal(t, 5.0, exec.Metric.ExecutionTime)
	assert.Equal(t, 2, exec.Metric.ResultCount)

	require.Len(t, w.Metrics(), 1)
	require.Len(t, w.History(), 1)
	assert.Equal(t, "$.store.book[?(@.price < 10)].price", w.History()[0].Query)
}

func TestExecuteErrorsRecordNothing(t *testing.T) {
	boom := errors.New("bad path")
	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{err: boom}))

	_, err := w.Execute(context.Background(), "$.x", nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, w.Metrics())
	assert.Empty(t, w.History())

	_, err = w.Execute(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, engine.ErrEmptyQuery)
}

func TestExecuteTrimsQuery(t *testing.T) {
	ev := &fakeEvaluator{result: "x"}
	w := newWorkbench(t, WithEvaluator(ev))
	exec, err := w.Execute(context.Background(), "  $.a  ", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"$.a"}, ev.paths)
	assert.Equal(t, 1, exec.ResultCount)
}

func TestExecuteSamplesMemory(t *testing.T) {
	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: []any{}}), WithMemorySampling(true))
	exec, err := w.Execute(context.Background(), "$.a", nil)
	require.NoError(t, err)
	require.NotNil(t, exec.Metric.MemoryUsage)
	assert.Positive(t, *exec.Metric.MemoryUsage)
}

func TestHistoryDedupesRepeatedQuery(t *testing.T) {
	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: 1.0}))
	ctx := context.Background()
	for range 3 {
		_, err := w.Execute(ctx, "$.a", nil)
		require.NoError(t, err)
	}
	assert.Len(t, w.History(), 1)
	assert.Len(t, w.Metrics(), 3)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: []any{1.0}}), WithStore(s))
	_, err := w.Execute(ctx, "$.a", nil)
	require.NoError(t, err)
	_, ok := w.AddFavorite(ctx, "$.a", "first")
	require.True(t, ok)

	restored := newWorkbench(t, WithStore(s))
	require.NoError(t, restored.Load(ctx).Err())
	assert.Equal(t, w.Metrics(), restored.Metrics())
	assert.Equal(t, w.History(), restored.History())
	assert.Equal(t, w.Favorites(), restored.Favorites())
}

func TestSaveFailuresAreAbsorbed(t *testing.T) {
	ctrl := gomock.NewController(t)
	mock := store_mocks.NewMockStore(ctrl)
	mock.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(store.ErrQuotaExceeded).Times(3)

	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: 1.0}), WithStore(mock))
	exec, err := w.Execute(context.Background(), "$.a", nil)
	require.NoError(t, err)
	assert.True(t, exec.Recorded)
	assert.Len(t, w.Metrics(), 1)
}

func TestLoadWithoutStore(t *testing.T) {
	w := newWorkbench(t)
	assert.NoError(t, w.Load(context.Background()).Err())
	assert.NoError(t, w.Save(context.Background()).Err())
	assert.NoError(t, w.Close())
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	w := newWorkbench(t)

	fav, ok := w.AddFavorite(ctx, "$.a", "a")
	require.True(t, ok)
	_, ok = w.AddFavorite(ctx, "$.a", "again")
	assert.False(t, ok)

	assert.False(t, w.ToggleFavorite(ctx, "$.a", ""))
	assert.Empty(t, w.Favorites())
	assert.True(t, w.ToggleFavorite(ctx, "$.b", "b"))
	assert.False(t, w.RemoveFavorite(ctx, fav.ID))
	require.Len(t, w.Favorites(), 1)
	assert.True(t, w.RemoveFavorite(ctx, w.Favorites()[0].ID))
}

func TestAnalyticsAccessors(t *testing.T) {
	ctx := context.Background()
	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: []any{1.0, 2.0}}))
	for _, q := range []string{"$.a", "$.b", "$.a"} {
		_, err := w.Execute(ctx, q, nil)
		require.NoError(t, err)
	}

	stats := w.Stats()
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 5.0, stats.Mean)

	insights, err := w.Insights()
	require.NoError(t, err)
	assert.NotEmpty(t, insights)

	buckets := w.Distribution()
	require.NotEmpty(t, buckets)
	board := w.Leaderboard(5)
	require.NotEmpty(t, board.MostFrequent)
	assert.Equal(t, "$.a", board.MostFrequent[0].Query)

	report, err := w.Report()
	require.NoError(t, err)
	assert.Contains(t, report.Markdown(), "$.a")

	content, name, err := w.ExportMetrics("csv")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".csv"))
	assert.Len(t, strings.Split(strings.TrimSpace(content), "\n"), 4)

	_, name, err = w.ExportMetrics("json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "query-analytics-"))

	_, _, err = w.ExportMetrics("xml")
	assert.Error(t, err)

	w.ClearMetrics(ctx)
	w.ClearHistory(ctx)
	assert.Empty(t, w.Metrics())
	assert.Empty(t, w.History())
}

func TestConcurrentExecute(t *testing.T) {
	w := newWorkbench(t, WithEvaluator(&fakeEvaluator{result: 1.0}))
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Execute(context.Background(), fmt.Sprintf("$.f%d", i), nil)
		}()
	}
	wg.Wait()
	assert.Len(t, w.Metrics(), 20)
	assert.Len(t, w.History(), 20)
}
