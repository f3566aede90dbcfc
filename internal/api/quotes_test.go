package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/store"
)

type fakeQuoteStore struct {
	quotes  []domain.Quote
	addErr  error
	listErr error
}

func (f *fakeQuoteStore) AddQuote(_ context.Context, q domain.Quote) (*domain.Quote, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.quotes = append(f.quotes, q)
	return &q, nil
}

func (f *fakeQuoteStore) ListQuotes(_ context.Context) ([]domain.Quote, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.quotes, nil
}

type fakeRunStore struct {
	runs       []domain.NotificationRun
	deliveries map[string][]domain.EmailDelivery
	stats      *store.RunStats
	listErr    error
	statsErr   error
	lastLimit  int
}

func (f *fakeRunStore) ListRuns(_ context.Context, limit int) ([]domain.NotificationRun, error) {
	f.lastLimit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.runs) > limit {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeRunStore) GetRun(_ context.Context, id string) (*domain.NotificationRun, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRunStore) ListRunDeliveries(_ context.Context, runID string) ([]domain.EmailDelivery, error) {
	if d, ok := f.deliveries[runID]; ok {
		return d, nil
	}
	return []domain.EmailDelivery{}, nil
}

func (f *fakeRunStore) GetRunStats(_ context.Context) (*store.RunStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &store.RunStats{}, nil
}

func newTestRouter(quotes QuoteStore, subscribers SubscriberStore, apiKey string) http.Handler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewRouter(Deps{
		Quotes:      quotes,
		Subscribers: subscribers,
		Runs:        &fakeRunStore{},
		Logger:      logger,
		APIKey:      apiKey,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("missing CORS allow-origin header, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing CORS allow-methods header")
	}
}

func TestAddQuote_Single(t *testing.T) {
	fs := &fakeQuoteStore{}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"stay hungry","author":"Jobs"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	assertCORS(t, rec)

	var resp struct {
		Added  []domain.Quote    `json:"added"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Added) != 1 || len(resp.Errors) != 0 {
		t.Fatalf("expected 1 added / 0 errors, got %d / %d", len(resp.Added), len(resp.Errors))
	}
	if resp.Added[0].Text != "stay hungry" || resp.Added[0].Author != "Jobs" {
		t.Errorf("unexpected added quote: %+v", resp.Added[0])
	}
	if resp.Added[0].ID == "" {
		t.Error("expected a generated quote ID")
	}
	if len(fs.quotes) != 1 {
		t.Errorf("expected 1 persisted quote, got %d", len(fs.quotes))
	}
}

func TestAddQuote_DefaultAuthor(t *testing.T) {
	fs := &fakeQuoteStore{}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"no author here"}`, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if fs.quotes[0].Author != "Unknown" {
		t.Errorf("expected default author Unknown, got %q", fs.quotes[0].Author)
	}
}

func TestAddQuote_BatchPartialSuccess(t *testing.T) {
	fs := &fakeQuoteStore{}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	body := `{"quotes":[{"text":"valid one"},{"text":""},{"text":42}]}`
	rec := doJSON(t, router, "POST", "/api/v1/quotes", body, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for partial success, got %d", rec.Code)
	}

	var resp struct {
		Added  []domain.Quote    `json:"added"`
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Added) != 1 {
		t.Errorf("expected 1 added, got %d", len(resp.Added))
	}
	if len(resp.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d", len(resp.Errors))
	}
}

func TestAddQuote_EmptyBatch(t *testing.T) {
	router := newTestRouter(&fakeQuoteStore{}, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{"quotes":[]}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty batch, got %d", rec.Code)
	}
	assertCORS(t, rec)
}

func TestAddQuote_MalformedJSON(t *testing.T) {
	router := newTestRouter(&fakeQuoteStore{}, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{not json`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "Invalid JSON format" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
	assertCORS(t, rec)
}

func TestAddQuote_PersistenceFailure(t *testing.T) {
	fs := &fakeQuoteStore{addErr: errors.New("connection reset")}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"doomed"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when nothing was added, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection reset") {
		t.Errorf("expected the cause in the errors list: %s", rec.Body.String())
	}
}

func TestAddQuote_APIKey(t *testing.T) {
	router := newTestRouter(&fakeQuoteStore{}, &fakeSubscriberStore{}, "hunter2")

	rec := doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"locked"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without key, got %d", rec.Code)
	}
	assertCORS(t, rec)

	rec = doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"locked"}`, map[string]string{"X-Api-Key": "wrong"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong key, got %d", rec.Code)
	}

	rec = doJSON(t, router, "POST", "/api/v1/quotes", `{"text":"open"}`, map[string]string{"X-Api-Key": "hunter2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with the right key, got %d", rec.Code)
	}
}

func TestRandomQuote_EmptyStore(t *testing.T) {
	router := newTestRouter(&fakeQuoteStore{}, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "GET", "/api/v1/quotes/random", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "No quotes found." {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
	assertCORS(t, rec)
}

func TestRandomQuote_OK(t *testing.T) {
	fs := &fakeQuoteStore{quotes: []domain.Quote{
		{ID: "1", Text: "one", Author: "A"},
		{ID: "2", Text: "two", Author: "B"},
	}}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "GET", "/api/v1/quotes/random", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp randomQuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Quote != "one" && resp.Quote != "two" {
		t.Errorf("returned quote %q is not in the store", resp.Quote)
	}
}

func TestRandomQuote_ApproximatelyUniform(t *testing.T) {
	fs := &fakeQuoteStore{}
	for i := 0; i < 3; i++ {
		fs.quotes = append(fs.quotes, domain.Quote{ID: fmt.Sprintf("%d", i), Text: fmt.Sprintf("q%d", i)})
	}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	const trials = 900
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		rec := doJSON(t, router, "GET", "/api/v1/quotes/random", "", nil)
		var resp randomQuoteResponse
		json.Unmarshal(rec.Body.Bytes(), &resp)
		counts[resp.Quote]++
	}

	for q, n := range counts {
		if n < trials/6 || n > trials/2 {
			t.Errorf("quote %q served %d/%d times, far from uniform", q, n, trials)
		}
	}
}

func TestRandomQuote_StoreFailure(t *testing.T) {
	fs := &fakeQuoteStore{listErr: errors.New("scan failed")}
	router := newTestRouter(fs, &fakeSubscriberStore{}, "")

	rec := doJSON(t, router, "GET", "/api/v1/quotes/random", "", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertCORS(t, rec)
}

func TestPreflight(t *testing.T) {
	router := newTestRouter(&fakeQuoteStore{}, &fakeSubscriberStore{}, "with-key-configured")

	// Preflight is answered before routing, body parsing, or auth.
	for _, path := range []string{"/api/v1/quotes", "/api/v1/quotes/random", "/api/v1/subscriptions"} {
		rec := doJSON(t, router, "OPTIONS", path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("OPTIONS %s: expected 200, got %d", path, rec.Code)
		}
		assertCORS(t, rec)
	}
}
