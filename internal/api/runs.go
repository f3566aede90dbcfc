package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/store"
)

// RunStore is what the run-history handlers need from persistence.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.NotificationRun, error)
	GetRun(ctx context.Context, id string) (*domain.NotificationRun, error)
	ListRunDeliveries(ctx context.Context, runID string) ([]domain.EmailDelivery, error)
	GetRunStats(ctx context.Context) (*store.RunStats, error)
}

type RunHandler struct {
	store RunStore
}

func NewRunHandler(s RunStore) *RunHandler {
	return &RunHandler{store: s}
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list notification runs")
		return
	}

	respondJSON(w, http.StatusOK, runs)
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get notification run")
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "notification run not found")
		return
	}

	deliveries, err := h.store.ListRunDeliveries(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get run deliveries")
		return
	}

	type runDetail struct {
		domain.NotificationRun
		Deliveries []domain.EmailDelivery `json:"deliveries"`
	}

	respondJSON(w, http.StatusOK, runDetail{
		NotificationRun: *run,
		Deliveries:      deliveries,
	})
}

// Stats returns aggregated delivery statistics for dashboards.
func (h *RunHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetRunStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
