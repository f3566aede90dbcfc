package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dspatel44/daily-quotes/internal/metrics"
)

// respondJSON is the single JSON return path. Every handler goes
// through here (or respondError), so the Content-Type and the CORS
// headers set by the router middleware are never skipped on any path.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are out the door already; nothing to do but note it.
		slog.Error("failed to encode response", "error", err)
	}
	metrics.IncHTTPStatus(fmt.Sprintf("%dxx", status/100))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// requestLogger returns a logger tagged with the request's correlation
// ID so every line of one invocation can be stitched back together.
func requestLogger(logger *slog.Logger, r *http.Request) *slog.Logger {
	return logger.With("request_id", middleware.GetReqID(r.Context()))
}
