package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/metrics"
)

// QuoteStore is what the quote handlers need from persistence.
type QuoteStore interface {
	AddQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error)
	ListQuotes(ctx context.Context) ([]domain.Quote, error)
}

type QuoteHandler struct {
	store  QuoteStore
	logger *slog.Logger
}

func NewQuoteHandler(s QuoteStore, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{store: s, logger: logger}
}

// quoteItem defers text decoding so a non-string text becomes a
// per-item error instead of failing the whole batch.
type quoteItem struct {
	Text   json.RawMessage `json:"text"`
	Author string          `json:"author"`
}

type addQuotesRequest struct {
	quoteItem
	Quotes []quoteItem `json:"quotes"`
}

type quoteError struct {
	Error string    `json:"error"`
	Quote quoteItem `json:"quote"`
}

type addQuotesResponse struct {
	Added  []domain.Quote `json:"added"`
	Errors []quoteError   `json:"errors"`
}

// Add handles POST /api/v1/quotes. The body is one quote object or a
// batch under "quotes". Bad items land in the errors list; the batch
// never aborts on one of them.
func (h *QuoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	var req addQuotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("malformed quote payload", "error", err)
		respondError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	items := req.Quotes
	if items == nil {
		items = []quoteItem{req.quoteItem}
	}
	if len(items) == 0 {
		respondError(w, http.StatusBadRequest, "No quote(s) provided.")
		return
	}

	resp := addQuotesResponse{
		Added:  []domain.Quote{},
		Errors: []quoteError{},
	}

	for _, item := range items {
		var text string
		if item.Text == nil || json.Unmarshal(item.Text, &text) != nil || text == "" {
			resp.Errors = append(resp.Errors, quoteError{Error: "Invalid quote text", Quote: item})
			continue
		}

		author := item.Author
		if author == "" {
			author = domain.DefaultAuthor
		}

		added, err := h.store.AddQuote(r.Context(), domain.Quote{
			ID:     uuid.NewString(),
			Text:   text,
			Author: author,
		})
		if err != nil {
			logger.Error("failed to persist quote", "error", err)
			resp.Errors = append(resp.Errors, quoteError{Error: err.Error(), Quote: item})
			continue
		}

		logger.Info("quote added", "quote_id", added.ID, "author", added.Author)
		resp.Added = append(resp.Added, *added)
	}

	metrics.IncQuotesAdded(len(resp.Added))
	metrics.IncQuotesRejected(len(resp.Errors))

	status := http.StatusCreated
	if len(resp.Added) == 0 {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, resp)
}

type randomQuoteResponse struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

// Random handles GET /api/v1/quotes/random. Selection happens here
// over the full set, so store scan order cannot bias it.
func (h *QuoteHandler) Random(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	quotes, err := h.store.ListQuotes(r.Context())
	if err != nil {
		logger.Error("failed to list quotes", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	quote, ok := domain.RandomQuote(quotes)
	if !ok {
		respondError(w, http.StatusNotFound, "No quotes found.")
		return
	}

	metrics.IncQuoteServed()
	respondJSON(w, http.StatusOK, randomQuoteResponse{
		Quote:  quote.Text,
		Author: quote.Author,
	})
}
