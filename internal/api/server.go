// Package api serves the search engine as JSON over HTTP.
//
// Routes:
//
//	GET|POST /api/search   run a search (query string or JSON body)
//	GET      /api/stats    corpus statistics
//	GET      /api/authors  authors ordered by name
//	GET      /api/health   liveness
//
// Query errors answer 400; every other failure answers 500. Error bodies
// are {"error": message, "code": code}.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Aman-CERP/patrology/internal/corpus"
	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/pkg/version"
)

// Searcher is the part of the search engine the API exposes.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Stats(ctx context.Context) (corpus.Stats, error)
	Authors(ctx context.Context) ([]corpus.AuthorSummary, error)
}

// Server routes HTTP requests to a Searcher.
type Server struct {
	engine  Searcher
	mux     *http.ServeMux
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithHandler mounts an extra handler, such as the MCP transport, at pattern.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) {
		s.mux.Handle(pattern, h)
	}
}

// WithRequestTimeout bounds the time a single search may take.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates the HTTP API over engine.
func NewServer(engine Searcher, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	s := &Server{
		engine:  engine,
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}

	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/authors", s.handleAuthors)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.timeout + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http_server_starting", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("http_server_stopped")
		return nil
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var (
		in  searchInput
		err error
	)
	if r.Method == http.MethodPost {
		in, err = decodeSearchBody(r)
	} else {
		in, err = parseSearchQuery(r.URL.Query())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	req, err := in.request()
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(resp))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.engine.Authors(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if authors == nil {
		authors = []corpus.AuthorSummary{}
	}
	writeJSON(w, http.StatusOK, authors)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError reports query errors with their message and hides the cause
// of everything else.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := perrors.HTTPStatus(err)
	body := errorBody{Code: perrors.GetCode(err)}
	if body.Code == "" {
		body.Code = perrors.ErrCodeInternal
	}

	if status == http.StatusBadRequest {
		pe, _ := perrors.As(err)
		body.Error = pe.Message
	} else {
		body.Error = "internal server error"
		s.logger.Error("http_request_failed", slog.Any("error", perrors.FormatForLog(err)))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}
