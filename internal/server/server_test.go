package server

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/pathbench/internal/store"
	"github.com/oakwood-commons/pathbench/pkg/core"
)

const garage = `{"cars":[{"make":"Ford","price":8,"owner":{"name":"Ann"}},{"make":"Audi","price":12}],"zip":"90210"}`

var fixedNow = time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *core.Workbench) {
	t.Helper()
	var mu sync.Mutex
	n := 0
	wb, err := core.New(
		core.WithStore(store.NewMemoryStore()),
		core.WithClock(func() time.Time { return fixedNow }),
		core.WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	require.NoError(t, err)
	return New(wb, WithClock(func() time.Time { return fixedNow })), wb
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSchemaEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/schema", `{"data":`+garage+`,"maxDepth":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type schemaBody struct {
		Fields []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"fields"`
		Depth int `json:"depth"`
	}
	got := decodeBody[schemaBody](t, rec)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "cars", got.Fields[0].Name)
	assert.Equal(t, "$.zip", got.Fields[1].Path)
	assert.Equal(t, 2, got.Depth)

	rec = do(t, s, http.MethodPost, "/api/schema", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/schema", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuildEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"rootPath":"$","selectedPath":["cars"],"arraySlice":{},"filters":[
		{"id":"a","property":"price","operator":"<","value":"10","logicalOperator":"||"},
		{"id":"b","property":"make","operator":"contains","value":"Fo"}]}`
	rec := do(t, s, http.MethodPost, "/api/query/build", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"query":"$.cars[*][?(@.price < 10 && @.make =~ /Fo/i)]"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/query/build", `{"filters":[{"property":"a","operator":"~~","value":"1"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseValidateDescribe(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/query/parse", `{"query":"$..book[?(@.price < 10 && @.title =~ /sea/i)]"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	parsed := decodeBody[struct {
		Filters []struct {
			Property string `json:"property"`
			Operator string `json:"operator"`
		} `json:"filters"`
		RecursiveDescent bool `json:"recursiveDescent"`
	}](t, rec)
	require.Len(t, parsed.Filters, 2)
	assert.Equal(t, "contains", parsed.Filters[1].Operator)
	assert.True(t, parsed.RecursiveDescent)

	rec = do(t, s, http.MethodPost, "/api/query/validate", `{"query":"$.a[0"}`)
	assert.JSONEq(t, `{"valid":false}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/query/describe", `{"query":"$..price"}`)
	assert.Contains(t, rec.Body.String(), "description")
}

func TestExecuteRecordsMetricsAndHistory(t *testing.T) {
	s, wb := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/query/execute", `{"query":"$.cars[?(@.price < 10)].make","data":`+garage+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[struct {
		Result      []any `json:"result"`
		ResultCount int   `json:"resultCount"`
	}](t, rec)
	assert.Equal(t, []any{"Ford"}, got.Result)
	assert.Equal(t, 1, got.ResultCount)
	assert.Len(t, wb.Metrics(), 1)

	rec = do(t, s, http.MethodGet, "/api/history", "")
	assert.Contains(t, rec.Body.String(), `$.cars[?(@.price < 10)].make`)

	rec = do(t, s, http.MethodGet, "/api/metrics", "")
	assert.Contains(t, rec.Body.String(), `"resultCount":1`)
}

func TestExecuteFilter(t *testing.T) {
	s, wb := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/query/execute", `{"query":"$.cars[*]","data":`+garage+`,"filter":"ann"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decodeBody[struct {
		Result      []map[string]any `json:"result"`
		ResultCount int              `json:"resultCount"`
	}](t, rec)
	require.Len(t, got.Result, 1)
	assert.Equal(t, "Ford", got.Result[0]["make"])
	assert.Equal(t, 1, got.ResultCount)
	require.Len(t, wb.Metrics(), 1)
	assert.Equal(t, 2, wb.Metrics()[0].ResultCount)

	rec = do(t, s, http.MethodPost, "/api/query/execute", `{"query":"$.cars[*]","data":`+garage+`,"filter":"ann","caseSensitive":true}`)
	assert.Contains(t, rec.Body.String(), `"resultCount":0`)
}

func TestExecuteErrors(t *testing.T) {
	s, wb := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/query/execute", `{"query":"","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/query/execute", `{"query":"$.a[?(@.x ==","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid_path"`)
	assert.Empty(t, wb.Metrics())
}

func TestSearchEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/search", `{"data":`+garage+`,"term":"an"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[struct {
		Matches []struct {
			PathString  string `json:"pathString"`
			Matched     string `json:"matched"`
			Highlighted string `json:"highlighted"`
		} `json:"matches"`
		Count int `json:"count"`
	}](t, rec)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "cars[0].owner.name", got.Matches[0].PathString)
	assert.Equal(t, "Ann", got.Matches[0].Matched)
	assert.Equal(t, "<mark>An</mark>n", got.Matches[0].Highlighted)

	rec = do(t, s, http.MethodPost, "/api/search", `{"data":`+garage+`,"term":"an","caseSensitive":true}`)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestExportCSV(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/export/csv", `{"data":`+garage+`,"query":"$.cars"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=jsonpath-results-2024-03-01T14-05-09.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "#,make,owner.name,price\n1,Ford,Ann,8\n2,Audi,,12\n", rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/export/csv", `{"data":[{"a":1}],"includeRowNumbers":false}`)
	assert.Equal(t, "a\n1\n", rec.Body.String())
}

func TestExportJSON(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/export/json", `{"data":{"z":1,"a":2},"filename":"dump"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dump-2024-03-01T14-05-09.json")
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 2\n}", rec.Body.String())
}

func TestExportFilenameIsQuoted(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/export/json", `{"data":{"a":1},"filename":"q3 \"final\"; draft"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="q3 \"final\"; draft-2024-03-01T14-05-09.json"`, rec.Header().Get("Content-Disposition"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, `q3 "final"; draft-2024-03-01T14-05-09.json`, params["filename"])
}

func TestMetricsEndpoints(t *testing.T) {
	s, wb := newTestServer(t)
	ctx := context.Background()
	data, err := core.LoadRoot(garage)
	require.NoError(t, err)
	for _, q := range []string{"$.zip", "$.cars[*].make", "$.zip"} {
		_, err := wb.Execute(ctx, q, data)
		require.NoError(t, err)
	}

	rec := do(t, s, http.MethodGet, "/api/metrics/stats", "")
	assert.Contains(t, rec.Body.String(), `"count":3`)

	rec = do(t, s, http.MethodGet, "/api/metrics/insights", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/metrics/distribution", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/metrics/leaderboard?n=1", "")
	board := decodeBody[struct {
		MostFrequent []struct {
			Query string `json:"query"`
			Count int    `json:"count"`
		} `json:"mostFrequent"`
	}](t, rec)
	require.Len(t, board.MostFrequent, 1)
	assert.Equal(t, "$.zip", board.MostFrequent[0].Query)
	assert.Equal(t, 2, board.MostFrequent[0].Count)

	rec = do(t, s, http.MethodGet, "/api/metrics/leaderboard?n=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/metrics/trend", "")
	assert.Contains(t, rec.Body.String(), "direction")

	rec = do(t, s, http.MethodGet, "/api/metrics/report", "")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/markdown")
	rec = do(t, s, http.MethodGet, "/api/metrics/report?format=html", "")
	assert.Contains(t, rec.Body.String(), "<h1")

	rec = do(t, s, http.MethodGet, "/api/metrics/export?format=csv", "")
	assert.Equal(t, "attachment; filename=query-analytics-2024-03-01T14-05-09.csv", rec.Header().Get("Content-Disposition"))
	assert.Len(t, strings.Split(strings.TrimSpace(rec.Body.String()), "\n"), 4)

	rec = do(t, s, http.MethodGet, "/api/metrics/export", "")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/api/metrics/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/metrics", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, wb.Metrics())
}

func TestHistoryAndFavorites(t *testing.T) {
	s, wb := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/favorites", `{"query":"$.zip","name":"zip"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	fav := decodeBody[struct {
		ID string `json:"id"`
	}](t, rec)

	rec = do(t, s, http.MethodPost, "/api/favorites", `{"query":"$.zip"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/favorites", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/favorites", "")
	assert.Contains(t, rec.Body.String(), `"name":"zip"`)

	rec = do(t, s, http.MethodDelete, "/api/favorites/"+fav.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/favorites/"+fav.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, wb.Favorites())

	_, err := wb.Execute(context.Background(), "$.zip", map[string]any{"zip": "1"})
	require.NoError(t, err)
	rec = do(t, s, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, wb.History())
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
