// Package api provides the HTTP server that publishes a feed-mirror output directory.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
	"github.com/tvbox-mirror/feed-mirror/internal/status"
	"github.com/tvbox-mirror/feed-mirror/internal/versions"
)

const jsonContentType = "application/json; charset=utf-8"

// ServerOption configures the mirror server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares       []func(http.Handler) http.Handler
	metricsHandler    http.Handler
	statusPersistence status.StatusPersistence
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithStatusPersistence replaces the source of the /status report.
// By default the report is read from the served directory.
func WithStatusPersistence(p status.StatusPersistence) ServerOption {
	return func(cfg *serverConfig) {
		cfg.statusPersistence = p
	}
}

// NewServer creates the router serving outputDir with the given options
func NewServer(outputDir string, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.statusPersistence == nil {
		cfg.statusPersistence = status.NewOSStatusPersistence(outputDir)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", healthHandler)
	r.Get("/readiness", readinessHandler(outputDir))
	r.Get("/version", versionHandler)
	r.Get("/status", statusHandler(cfg.statusPersistence))
	if cfg.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	files := newFileHandler(outputDir)
	r.Method(http.MethodGet, "/*", files)
	r.Method(http.MethodHead, "/*", files)

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"requestId", middleware.GetReqID(r.Context()))
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler reports ready once a run has published the index
func readinessHandler(outputDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if _, err := os.Stat(filepath.Join(outputDir, publisher.IndexFileName)); err != nil {
			writeJSONResponse(w, map[string]string{"error": "index not published yet"}, http.StatusServiceUnavailable)
			return
		}
		writeJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

// statusHandler serves the report of the most recent run
func statusHandler(persistence status.StatusPersistence) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := persistence.LoadStatus(r.Context())
		switch {
		case errors.Is(err, status.ErrNoStatus):
			writeJSONResponse(w, map[string]string{"error": err.Error()}, http.StatusNotFound)
		case err != nil:
			slog.ErrorContext(r.Context(), "Failed to load run status", "error", err)
			writeJSONResponse(w, map[string]string{"error": "failed to load run status"}, http.StatusInternalServerError)
		default:
			writeJSONResponse(w, report, http.StatusOK)
		}
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// writeJSONResponse writes a JSON response with the given data
func writeJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// fileHandler serves published files. Directory listings, dot files
// and temporary files from in-progress writes are hidden.
type fileHandler struct {
	root  string
	files http.Handler
}

func newFileHandler(root string) *fileHandler {
	return &fileHandler{
		root:  root,
		files: http.FileServer(http.Dir(root)),
	}
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	base := path.Base(clean)
	if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(clean)))
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	switch path.Ext(base) {
	case ".json":
		w.Header().Set("Content-Type", jsonContentType)
	case ".jar":
		w.Header().Set("Content-Type", "application/java-archive")
	}
	h.files.ServeHTTP(w, r)
}
