// Package server exposes the consistency checker over HTTP.
//
// Every request runs an independent check through a shared
// [pipeline.Runner]; the only state shared between requests is the cache.
//
// Routes:
//
//	POST /v1/check            check a TOML knowledge base, reply with a JSON report
//	POST /v1/render?format=   check and draw the first model (svg, dot or json)
//	GET  /v1/health           liveness probe
//	GET  /v1/version          build information
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tableau/pkg/buildinfo"
	"github.com/matzehuels/tableau/pkg/errors"
	"github.com/matzehuels/tableau/pkg/observability"
	"github.com/matzehuels/tableau/pkg/pipeline"
	"github.com/matzehuels/tableau/pkg/render"
)

// MaxBodySize caps the size of an uploaded knowledge base.
const MaxBodySize = 4 << 20

// DefaultMaxBranches bounds a single request's search unless the client
// asks for less.
const DefaultMaxBranches = 100_000

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	timeout time.Duration
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout bounds the time spent on one request. Zero disables the
// limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New returns a server backed by runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger, timeout: time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Post("/check", s.handleCheck)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", elapsed)
	})
}

// =============================================================================
// Handlers
// =============================================================================

// CheckResponse is the body of a successful check.
type CheckResponse struct {
	*pipeline.Report
	KBHash string `json:"kb_hash"`
	Cached bool   `json:"cached"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.check(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{
		Report: res.Report,
		KBHash: res.KBHash,
		Cached: res.CacheInfo.CheckHit,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	opts.Formats = []string{format}

	res, err := s.check(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !res.Report.Consistent {
		s.writeError(w, errors.New(errors.ErrCodeInconsistentABox, "knowledge base is inconsistent, there is no model to render"))
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[format])
}

func (s *Server) check(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	res, err := s.runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.logger.Info("checked",
		"session", res.Report.SessionID,
		"consistent", res.Report.Consistent,
		"cached", res.CacheInfo.CheckHit)
	return res, nil
}

// options reads the knowledge base from the body and search options from
// the query string.
func (s *Server) options(w http.ResponseWriter, r *http.Request) (pipeline.Options, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		return pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(body) == 0 {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "request body must contain a knowledge base")
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Source:      body,
		Blocking:    q.Get("blocking"),
		MaxBranches: DefaultMaxBranches,
	}
	flags := map[string]*bool{
		"all":      &opts.All,
		"semantic": &opts.Semantic,
		"backjump": &opts.Backjump,
		"detailed": &opts.Detailed,
		"retired":  &opts.Retired,
	}
	for name, dst := range flags {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
			}
			*dst = b
		}
	}
	if v := q.Get("max_branches"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > DefaultMaxBranches {
			return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "max_branches must be between 1 and %d", DefaultMaxBranches)
		}
		opts.MaxBranches = n
	}
	return opts, nil
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, ErrorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidName, errors.ErrCodeParse,
		errors.ErrCodeNotFound, errors.ErrCodeIllegalTermType:
		return http.StatusBadRequest
	case errors.ErrCodeInconsistentABox, errors.ErrCodeInconsistentRBox:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func contentType(format string) string {
	switch format {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz"
	}
}
