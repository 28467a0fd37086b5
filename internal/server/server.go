// Package server exposes the workbench over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/pathbench/internal/engine"
	"github.com/oakwood-commons/pathbench/internal/export"
	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/logger"
)

// Server handles HTTP requests against one workbench session.
type Server struct {
	wb  *core.Workbench
	lgr logr.Logger
	now func() time.Time

	schemaMaxDepth int
	exportOpts     export.Options
	caseSensitive  bool
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(lgr logr.Logger) Option {
	return func(s *Server) {
		s.lgr = lgr
	}
}

// WithClock sets the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithSchemaMaxDepth sets the default schema depth bound.
func WithSchemaMaxDepth(n int) Option {
	return func(s *Server) {
		s.schemaMaxDepth = n
	}
}

// WithExportOptions sets the default flattening options.
func WithExportOptions(opts export.Options) Option {
	return func(s *Server) {
		s.exportOpts = opts
	}
}

// WithCaseSensitiveSearch sets the default search case sensitivity.
func WithCaseSensitiveSearch(on bool) Option {
	return func(s *Server) {
		s.caseSensitive = on
	}
}

// New creates a Server for wb.
func New(wb *core.Workbench, opts ...Option) *Server {
	s := &Server{
		wb:             wb,
		lgr:            *logger.GetNoopLogger(),
		now:            time.Now,
		schemaMaxDepth: schema.DefaultMaxDepth,
		exportOpts:     export.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with every API route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/schema", s.handleSchema)

		r.Route("/query", func(r chi.Router) {
			r.Post("/build", s.handleBuild)
			r.Post("/parse", s.handleParse)
			r.Post("/validate", s.handleValidate)
			r.Post("/describe", s.handleDescribe)
			r.Post("/execute", s.handleExecute)
		})

		r.Post("/search", s.handleSearch)

		r.Route("/export", func(r chi.Router) {
			r.Post("/csv", s.handleExportCSV)
			r.Post("/json", s.handleExportJSON)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/", s.handleGetMetrics)
			r.Delete("/", s.handleClearMetrics)
			r.Get("/stats", s.handleStats)
			r.Get("/insights", s.handleInsights)
			r.Get("/distribution", s.handleDistribution)
			r.Get("/leaderboard", s.handleLeaderboard)
			r.Get("/trend", s.handleTrend)
			r.Get("/report", s.handleReport)
			r.Get("/export", s.handleExportMetrics)
		})

		r.Get("/history", s.handleGetHistory)
		r.Delete("/history", s.handleClearHistory)

		r.Get("/favorites", s.handleGetFavorites)
		r.Post("/favorites", s.handleAddFavorite)
		r.Delete("/favorites/{id}", s.handleRemoveFavorite)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.lgr.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		lgr := s.lgr.WithValues("request_id", middleware.GetReqID(r.Context()))
		ctx := logger.WithLogger(r.Context(), &lgr)

		next.ServeHTTP(ww, r.WithContext(ctx))

		lgr.V(1).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.DurationKey, float64(time.Since(start))/float64(time.Millisecond),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var evalErr *engine.Error
	if errors.As(err, &evalErr) {
		resp.Code = evalErr.Code.String()
	}
	writeJSON(w, status, resp)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}
