package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oakwood-commons/pathbench/internal/engine"
	"github.com/oakwood-commons/pathbench/internal/export"
	"github.com/oakwood-commons/pathbench/internal/query"
	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/internal/search"
	"github.com/oakwood-commons/pathbench/pkg/loader"
)

var errDataRequired = errors.New("data is required")

// loadData decodes raw request data keeping object key order.
func loadData(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, errDataRequired
	}
	return loader.LoadRootBytes(raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type schemaRequest struct {
	Data     json.RawMessage `json:"data"`
	MaxDepth int             `json:"maxDepth,omitempty"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := loadData(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	depth := req.MaxDepth
	if depth <= 0 {
		depth = s.schemaMaxDepth
	}
	writeJSON(w, http.StatusOK, schema.Analyze(data, depth))
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var state query.BuilderState
	if err := decode(r, &state); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for _, f := range state.Filters {
		if !f.Operator.Valid() {
			writeError(w, http.StatusBadRequest, errors.New("unknown operator "+strconv.Quote(string(f.Operator))))
			return
		}
	}
	state.Filters = query.Restitch(state.Filters)
	writeJSON(w, http.StatusOK, map[string]string{"query": query.BuildState(state)})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, query.Parse(req.Query))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": query.IsValid(req.Query)})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"description": query.Describe(req.Query)})
}

type executeRequest struct {
	Query string          `json:"query"`
	Data  json.RawMessage `json:"data"`
	// Filter keeps only the result elements that contain this term.
	Filter        string `json:"filter,omitempty"`
	CaseSensitive *bool  `json:"caseSensitive,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := loadData(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	exec, err := s.wb.Execute(r.Context(), req.Query, data)
	if err != nil {
		writeError(w, executeStatus(err), err)
		return
	}
	if items, ok := exec.Result.([]any); ok && req.Filter != "" {
		cs := s.caseSensitive
		if req.CaseSensitive != nil {
			cs = *req.CaseSensitive
		}
		exec.Result = search.FilterResults(items, req.Filter, cs)
		exec.ResultCount = len(exec.Result.([]any))
	}
	writeJSON(w, http.StatusOK, exec)
}

func executeStatus(err error) int {
	var evalErr *engine.Error
	switch {
	case errors.Is(err, engine.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.As(err, &evalErr) && evalErr.Code != engine.ErrEvaluation:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

type searchRequest struct {
	Data          json.RawMessage `json:"data"`
	Term          string          `json:"term"`
	CaseSensitive *bool           `json:"caseSensitive,omitempty"`
	MaxMatches    int             `json:"maxMatches,omitempty"`
}

type searchMatch struct {
	search.Match
	PathString string `json:"pathString"`
	// Highlighted is the HTML-escaped match text with hits wrapped in <mark>.
	Highlighted string `json:"highlighted"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := loadData(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts := search.Options{CaseSensitive: s.caseSensitive, MaxMatches: req.MaxMatches}
	if req.CaseSensitive != nil {
		opts.CaseSensitive = *req.CaseSensitive
	}
	matches := search.Search(data, req.Term, opts)
	out := make([]searchMatch, len(matches))
	for i, m := range matches {
		out[i] = searchMatch{
			Match:       m,
			PathString:  m.PathString(),
			Highlighted: search.HighlightJSONText(m.Matched, req.Term, opts.CaseSensitive),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": out, "count": len(out)})
}

type exportRequest struct {
	Data              json.RawMessage `json:"data"`
	Query             string          `json:"query,omitempty"`
	MaxDepth          int             `json:"maxDepth,omitempty"`
	IncludeRowNumbers *bool           `json:"includeRowNumbers,omitempty"`
	Filename          string          `json:"filename,omitempty"`
}

// exportInput resolves the value to export: the query result when a query
// is given, the data itself otherwise.
func (s *Server) exportInput(w http.ResponseWriter, r *http.Request) (any, exportRequest, bool) {
	var req exportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, req, false
	}
	data, err := loadData(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, req, false
	}
	if req.Query == "" {
		return data, req, true
	}
	exec, err := s.wb.Execute(r.Context(), req.Query, data)
	if err != nil {
		writeError(w, executeStatus(err), err)
		return nil, req, false
	}
	return exec.Result, req, true
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	input, req, ok := s.exportInput(w, r)
	if !ok {
		return
	}
	opts := s.exportOpts
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}
	if req.IncludeRowNumbers != nil {
		opts.IncludeRowNumbers = *req.IncludeRowNumbers
	}
	out, err := export.ToCSV(export.Rows(input), opts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	attachment(w, "text/csv; charset=utf-8", exportFilename(req.Filename, "csv", s))
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	input, req, ok := s.exportInput(w, r)
	if !ok {
		return
	}
	out, err := export.ToJSON(input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	attachment(w, "application/json", exportFilename(req.Filename, "json", s))
	_, _ = w.Write([]byte(out))
}

func exportFilename(prefix, ext string, s *Server) string {
	if prefix == "" {
		prefix = "jsonpath-results"
	}
	return export.Filename(prefix, ext, s.now())
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.Metrics())
}

func (s *Server) handleClearMetrics(w http.ResponseWriter, r *http.Request) {
	s.wb.ClearMetrics(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.Stats())
}

func (s *Server) handleInsights(w http.ResponseWriter, _ *http.Request) {
	insights, err := s.wb.Insights()
	if err != nil {
		s.lgr.Error(err, "insight rules failed")
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.Distribution())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, errors.New("n must be a non-negative integer"))
			return
		}
		n = v
	}
	writeJSON(w, http.StatusOK, s.wb.Leaderboard(n))
}

func (s *Server) handleTrend(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.Trend())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.wb.Report()
	if err != nil {
		s.lgr.Error(err, "insight rules failed")
	}
	switch r.URL.Query().Get("format") {
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(report.HTML())
	case "json":
		writeJSON(w, http.StatusOK, report)
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown()))
	}
}

func (s *Server) handleExportMetrics(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	content, filename, err := s.wb.ExportMetrics(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}
	attachment(w, contentType, filename)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleGetHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.History())
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.wb.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFavorites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.wb.Favorites())
}

type favoriteRequest struct {
	Query string `json:"query"`
	Name  string `json:"name"`
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}
	fav, ok := s.wb.AddFavorite(r.Context(), req.Query, req.Name)
	if !ok {
		writeJSON(w, http.StatusConflict, fav)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.wb.RemoveFavorite(r.Context(), id) {
		writeError(w, http.StatusNotFound, errors.New("favorite not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
