package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dspatel44/daily-quotes/internal/domain"
	"github.com/dspatel44/daily-quotes/internal/store"
)

type QuoteSource interface {
	ListQuotes(ctx context.Context) ([]domain.Quote, error)
}

type SubscriberSource interface {
	ListSubscribers(ctx context.Context) ([]domain.Subscriber, error)
}

// RunStore persists run history. All methods are best-effort from the
// notifier's point of view: history failures are logged, never fatal.
type RunStore interface {
	RunRecorder
	StartRun(ctx context.Context, runID, quoteID string, subscriberCount int) error
	FinishRun(ctx context.Context, runID string, res store.RunResult) error
	RecordEmptyRun(ctx context.Context, runID, status string) error
}

// Notifier performs one daily sweep: pick a random quote, email it to
// every subscriber, post it once to the chat webhook.
type Notifier struct {
	quotes      QuoteSource
	subscribers SubscriberSource
	runs        RunStore
	deliverer   *Deliverer
	chat        ChatPoster
	subject     string
	workers     int
	logger      *slog.Logger
}

// Config wires a Notifier. Chat may be nil when no webhook URL is
// configured; the webhook step is then skipped.
type Config struct {
	Quotes      QuoteSource
	Subscribers SubscriberSource
	Runs        RunStore
	Deliverer   *Deliverer
	Chat        ChatPoster
	Subject     string
	Workers     int
	Logger      *slog.Logger
}

func New(cfg Config) *Notifier {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Notifier{
		quotes:      cfg.Quotes,
		subscribers: cfg.Subscribers,
		runs:        cfg.Runs,
		deliverer:   cfg.Deliverer,
		chat:        cfg.Chat,
		subject:     cfg.Subject,
		workers:     workers,
		logger:      cfg.Logger,
	}
}

// RunSummary is the outcome of one sweep, printed as the job's exit
// body.
type RunSummary struct {
	RunID            string `json:"run_id"`
	Status           string `json:"status"`
	Quote            string `json:"quote,omitempty"`
	Author           string `json:"author,omitempty"`
	Subscribers      int    `json:"subscribers"`
	Sent             int    `json:"sent"`
	Failed           int    `json:"failed"`
	Skipped          int    `json:"skipped"`
	WebhookDelivered bool   `json:"webhook_delivered"`
}

// FormatMessage renders the notification body: the quote text in
// quotes, a blank line, then the author line.
func FormatMessage(q domain.Quote) string {
	author := q.Author
	if author == "" {
		author = domain.DefaultAuthor
	}
	return fmt.Sprintf("\"%s\"\n\n- %s", q.Text, author)
}

// Run performs one sweep. The returned error is non-nil only for
// failures before any delivery was attempted (store reads); once the
// fan-out starts, the sweep always completes and reports success —
// individual failures are logged, recorded, and counted, nothing more.
func (n *Notifier) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	logger := n.logger.With("run_id", runID)

	subscribers, err := n.subscribers.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		logger.Info("no subscribers, nothing to send")
		n.recordEmpty(ctx, logger, runID, domain.RunNoSubscribers)
		return &RunSummary{RunID: runID, Status: domain.RunNoSubscribers}, nil
	}

	quotes, err := n.quotes.ListQuotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	quote, ok := domain.RandomQuote(quotes)
	if !ok {
		logger.Info("no quotes, nothing to send")
		n.recordEmpty(ctx, logger, runID, domain.RunNoQuotes)
		return &RunSummary{RunID: runID, Status: domain.RunNoQuotes, Subscribers: len(subscribers)}, nil
	}

	message := FormatMessage(quote)
	logger.Info("starting fan-out",
		"quote_id", quote.ID,
		"author", quote.Author,
		"subscribers", len(subscribers),
	)

	if err := n.runs.StartRun(ctx, runID, quote.ID, len(subscribers)); err != nil {
		logger.Error("failed to record run start", "error", err)
	}

	pool := NewPool(n.workers, len(subscribers), n.deliverer, logger)
	pool.Start(ctx)
	for _, sub := range subscribers {
		pool.Submit(Delivery{
			RunID:     runID,
			Recipient: sub.Email,
			Subject:   n.subject,
			Body:      message,
		})
	}
	pool.Stop()

	summary := &RunSummary{
		RunID:       runID,
		Status:      domain.RunCompleted,
		Quote:       quote.Text,
		Author:      quote.Author,
		Subscribers: len(subscribers),
	}
	for res := range pool.Results() {
		switch res.Status {
		case domain.DeliverySent:
			summary.Sent++
		case domain.DeliverySkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	// One webhook post after the email sweep. Failure is logged and
	// counted in the summary, nothing else.
	if n.chat != nil {
		if err := n.chat.Post(ctx, message); err != nil {
			logger.Warn("webhook post failed", "error", err)
		} else {
			summary.WebhookDelivered = true
			logger.Info("webhook posted")
		}
	} else {
		logger.Info("no webhook configured, skipping chat post")
	}

	err = n.runs.FinishRun(ctx, runID, store.RunResult{
		Status:           summary.Status,
		SentCount:        summary.Sent,
		FailedCount:      summary.Failed,
		SkippedCount:     summary.Skipped,
		WebhookDelivered: summary.WebhookDelivered,
	})
	if err != nil {
		logger.Error("failed to finalize run", "error", err)
	}

	logger.Info("fan-out complete",
		"sent", summary.Sent,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"webhook_delivered", summary.WebhookDelivered,
	)

	return summary, nil
}

func (n *Notifier) recordEmpty(ctx context.Context, logger *slog.Logger, runID, status string) {
	if err := n.runs.RecordEmptyRun(ctx, runID, status); err != nil {
		logger.Error("failed to record empty run", "error", err)
	}
}
