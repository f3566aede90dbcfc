package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/metrics"
)

// SubscriberStore is what the subscription handlers need from
// persistence. Uniqueness and delete-detection are the store's job,
// as single atomic calls.
type SubscriberStore interface {
	CreateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error)
	DeleteSubscriber(ctx context.Context, email string) error
}

type SubscriptionHandler struct {
	store  SubscriberStore
	logger *slog.Logger
}

func NewSubscriptionHandler(s SubscriberStore, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: s, logger: logger}
}

type subscriptionRequest struct {
	Email string `json:"email"`
}

// parseEmail decodes and validates the request body's email. The store
// is never contacted for an address that fails the pattern.
func parseEmail(r *http.Request) (string, bool) {
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	email := domain.NormalizeEmail(req.Email)
	if !domain.ValidEmail(email) {
		return "", false
	}
	return email, true
}

// Subscribe handles POST /api/v1/subscriptions.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	email, ok := parseEmail(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	_, err := h.store.CreateSubscriber(r.Context(), email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSubscriber) {
			logger.Info("duplicate subscription", "email", email)
			respondError(w, http.StatusBadRequest, "Email already subscribed.")
			return
		}
		logger.Error("failed to create subscriber", "email", email, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	logger.Info("subscriber added", "email", email)
	metrics.IncSubscribed()
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": email + " subscribed successfully!",
	})
}

// Unsubscribe handles DELETE /api/v1/subscriptions.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	email, ok := parseEmail(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	if err := h.store.DeleteSubscriber(r.Context(), email); err != nil {
		if errors.Is(err, domain.ErrSubscriberNotFound) {
			respondError(w, http.StatusNotFound, "This email is not subscribed.")
			return
		}
		logger.Error("failed to delete subscriber", "email", email, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	logger.Info("subscriber removed", "email", email)
	metrics.IncUnsubscribed()
	respondJSON(w, http.StatusOK, map[string]string{
		"message": email + " unsubscribed successfully!",
	})
}
