package domain

import "time"

// Notification run statuses.
const (
	RunCompleted     = "completed"
	RunNoSubscribers = "no_subscribers"
	RunNoQuotes      = "no_quotes"
)

// Email delivery outcomes within a run.
const (
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliverySkipped = "skipped"
)

// NotificationRun is one sweep of the daily notifier.
type NotificationRun struct {
	ID               string     `json:"id"`
	QuoteID          *string    `json:"quote_id,omitempty"`
	Status           string     `json:"status"`
	SubscriberCount  int        `json:"subscriber_count"`
	SentCount        int        `json:"sent_count"`
	FailedCount      int        `json:"failed_count"`
	SkippedCount     int        `json:"skipped_count"`
	WebhookDelivered bool       `json:"webhook_delivered"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

// EmailDelivery is one recipient's outcome within a run.
type EmailDelivery struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Recipient    string    `json:"recipient"`
	Status       string    `json:"status"`
	DurationMs   int       `json:"duration_ms"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
