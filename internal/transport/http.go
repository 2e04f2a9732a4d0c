package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ganot/report-results/internal/domain/result"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultService defines the result operations served over plain HTTP.
type ResultService interface {
	GetVisible(ctx context.Context, scope result.Scope, id string) (*result.Record, error)
	StatusOf(ctx context.Context, rec *result.Record) (result.Status, error)
	IsEmpty(ctx context.Context, id string) (bool, error)
	ToDocument(ctx context.Context, id string) ([]byte, error)
}

// Config wires the HTTP server.
type Config struct {
	Results ResultService
	// MCP serves /mcp; it authenticates on its own.
	MCP http.Handler
	// Auth guards the /results routes.
	Auth   func(http.Handler) http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	results ResultService
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{results: cfg.Results, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	r.Route("/results/{id}", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		r.Get("/document", srv.handleDocument)
		r.Get("/status", srv.handleStatus)
	})

	return r
}

// NewMCPHandler serves an MCP server over streamable HTTP.
func NewMCPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			SessionTimeout: 30 * time.Minute,
		},
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.visibleResult(w, r)
	if !ok {
		return
	}
	doc, err := s.results.ToDocument(r.Context(), rec.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

type statusResponse struct {
	ID     string        `json:"id"`
	Status result.Status `json:"status"`
	TaskID *string       `json:"task_id,omitempty"`
	Empty  bool          `json:"empty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.visibleResult(w, r)
	if !ok {
		return
	}
	status, err := s.results.StatusOf(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	empty, err := s.results.IsEmpty(r.Context(), rec.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ID: rec.ID, Status: status, TaskID: rec.TaskID, Empty: empty})
}

// visibleResult loads the {id} result within the caller's groups.
func (s *Server) visibleResult(w http.ResponseWriter, r *http.Request) (*result.Record, bool) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		http.Error(w, "missing caller", http.StatusUnauthorized)
		return nil, false
	}
	rec, err := s.results.GetVisible(r.Context(), result.WithCurrentUserGroups(caller), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return rec, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, result.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, result.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, result.ErrUnescapableTitle), errors.Is(err, result.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, result.ErrRendererUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
