// Package api exposes a Queue over a small JSON admin API and provides the
// matching HTTP client used by the CLI.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures NewRouter.
type Options struct {
	// Connectivity, when set, receives the connectivity endpoint instead of the queue.
	Connectivity OnlineSetter
	// MaxPayloadSize bounds uploaded files; zero disables the HTTP-level limit.
	MaxPayloadSize int64
	Logger         *slog.Logger
}

// NewRouter builds the admin API routes around q.
func NewRouter(q Queue, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "api"))
	h := &handler{q: q, conn: opts.Connectivity, maxPayload: opts.MaxPayloadSize, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", h.enqueue)
			r.Get("/", h.list)
			r.Delete("/", h.clear)
			r.Get("/{id}", h.get)
			r.Delete("/{id}", h.remove)
		})
		r.Get("/status", h.status)
		r.Post("/process", h.process)
		r.Post("/connectivity/{state}", h.connectivity)
	})
	return r
}
