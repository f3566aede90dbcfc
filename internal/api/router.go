// Package api exposes the quote and subscription handlers over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dspatel44/daily-quotes/internal/metrics"
)

// Deps carries the router's collaborators. Stores are interfaces so
// handlers are testable without PostgreSQL.
type Deps struct {
	Quotes      QuoteStore
	Subscribers SubscriberStore
	Runs        RunStore
	Logger      *slog.Logger
	// APIKey guards quote writes when non-empty.
	APIKey string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// CORS for browser callers. Must wrap everything: a response
	// missing these headers reads as a failure to a browser no matter
	// the status code.
	r.Use(corsMiddleware)

	quoteHandler := NewQuoteHandler(deps.Quotes, deps.Logger)
	subHandler := NewSubscriptionHandler(deps.Subscribers, deps.Logger)
	runHandler := NewRunHandler(deps.Runs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", HealthHandler())

		r.Route("/quotes", func(r chi.Router) {
			r.With(requireAPIKey(deps.APIKey)).Post("/", quoteHandler.Add)
			r.Get("/random", quoteHandler.Random)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", subHandler.Subscribe)
			r.Delete("/", subHandler.Unsubscribe)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", runHandler.List)
			r.Get("/{id}", runHandler.Get)
		})

		r.Get("/stats", runHandler.Stats)
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

// corsMiddleware adds the fixed cross-origin header set and answers
// preflight requests before any body parsing.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Api-Key")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAPIKey rejects writes without the configured key. A blank
// configured key disables the check.
func requireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key != "" && r.Header.Get("X-Api-Key") != key {
				respondError(w, http.StatusForbidden, "missing or invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogging emits one JSON line per request, tagged with the
// request ID assigned upstream.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
			)
		})
	}
}
