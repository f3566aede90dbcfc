package store

import (
	"context"
	"fmt"

	"github.com/dspatel44/daily-quotes/internal/domain"
)

// EmailDeliveryRecord is one recipient's outcome, written as the
// fan-out progresses.
type EmailDeliveryRecord struct {
	RunID        string
	Recipient    string
	Status       string
	DurationMs   int
	ErrorMessage string
}

// RunResult finalizes a notification run row.
type RunResult struct {
	Status           string
	SentCount        int
	FailedCount      int
	SkippedCount     int
	WebhookDelivered bool
}

// RunStats holds aggregated notification statistics for the stats
// endpoint.
type RunStats struct {
	TotalRuns       int     `json:"total_runs"`
	TotalDeliveries int     `json:"total_deliveries"`
	SentCount       int     `json:"sent_count"`
	FailedCount     int     `json:"failed_count"`
	SkippedCount    int     `json:"skipped_count"`
	SuccessRate     float64 `json:"success_rate"`
	AvgDurationMs   float64 `json:"avg_duration_ms"`
	QuoteCount      int     `json:"quote_count"`
	SubscriberCount int     `json:"subscriber_count"`
}

// StartRun opens a run row before the fan-out begins.
func (s *PostgresStore) StartRun(ctx context.Context, runID string, quoteID string, subscriberCount int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_runs (id, quote_id, status, subscriber_count)
		VALUES ($1, $2, 'running', $3)
	`, runID, quoteID, subscriberCount)
	if err != nil {
		return fmt.Errorf("inserting notification run: %w", err)
	}
	return nil
}

// RecordEmailDelivery logs one recipient attempt.
func (s *PostgresStore) RecordEmailDelivery(ctx context.Context, rec EmailDeliveryRecord) error {
	var errMsg *string
	if rec.ErrorMessage != "" {
		errMsg = &rec.ErrorMessage
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_deliveries (run_id, recipient, status, duration_ms, error_message)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.RunID, rec.Recipient, rec.Status, rec.DurationMs, errMsg)
	if err != nil {
		return fmt.Errorf("inserting email delivery: %w", err)
	}
	return nil
}

// FinishRun closes a run row with its final counts.
func (s *PostgresStore) FinishRun(ctx context.Context, runID string, res RunResult) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_runs
		SET status = $2, sent_count = $3, failed_count = $4, skipped_count = $5,
		    webhook_delivered = $6, finished_at = NOW()
		WHERE id = $1
	`, runID, res.Status, res.SentCount, res.FailedCount, res.SkippedCount, res.WebhookDelivered)
	if err != nil {
		return fmt.Errorf("finalizing notification run: %w", err)
	}
	return nil
}

// RecordEmptyRun writes a run that never fanned out (no subscribers or
// no quotes), so the history shows the trigger fired.
func (s *PostgresStore) RecordEmptyRun(ctx context.Context, runID string, status string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_runs (id, status, finished_at)
		VALUES ($1, $2, NOW())
	`, runID, status)
	if err != nil {
		return fmt.Errorf("inserting empty run: %w", err)
	}
	return nil
}

// ListRuns returns recent notification runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]domain.NotificationRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, quote_id, status, subscriber_count, sent_count, failed_count,
		       skipped_count, webhook_delivered, started_at, finished_at
		FROM notification_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notification runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.NotificationRun
	for rows.Next() {
		var run domain.NotificationRun
		err := rows.Scan(
			&run.ID, &run.QuoteID, &run.Status, &run.SubscriberCount,
			&run.SentCount, &run.FailedCount, &run.SkippedCount,
			&run.WebhookDelivered, &run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning notification run: %w", err)
		}
		runs = append(runs, run)
	}

	if runs == nil {
		runs = []domain.NotificationRun{}
	}

	return runs, nil
}

// GetRun returns one run, or nil when it does not exist.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*domain.NotificationRun, error) {
	var run domain.NotificationRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, quote_id, status, subscriber_count, sent_count, failed_count,
		       skipped_count, webhook_delivered, started_at, finished_at
		FROM notification_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.QuoteID, &run.Status, &run.SubscriberCount,
		&run.SentCount, &run.FailedCount, &run.SkippedCount,
		&run.WebhookDelivered, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying notification run: %w", err)
	}
	return &run, nil
}

// ListRunDeliveries returns the per-recipient outcomes of one run.
func (s *PostgresStore) ListRunDeliveries(ctx context.Context, runID string) ([]domain.EmailDelivery, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, run_id, recipient, status, duration_ms, error_message, created_at
		FROM email_deliveries
		WHERE run_id = $1
		ORDER BY created_at
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying email deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []domain.EmailDelivery
	for rows.Next() {
		var d domain.EmailDelivery
		err := rows.Scan(&d.ID, &d.RunID, &d.Recipient, &d.Status, &d.DurationMs, &d.ErrorMessage, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning email delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}

	if deliveries == nil {
		deliveries = []domain.EmailDelivery{}
	}

	return deliveries, nil
}

// GetRunStats returns aggregated delivery statistics across all runs.
func (s *PostgresStore) GetRunStats(ctx context.Context) (*RunStats, error) {
	var st RunStats

	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'sent') AS sent,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'skipped') AS skipped,
			COALESCE(AVG(duration_ms) FILTER (WHERE duration_ms > 0), 0) AS avg_duration_ms
		FROM email_deliveries
	`).Scan(&st.TotalDeliveries, &st.SentCount, &st.FailedCount, &st.SkippedCount, &st.AvgDurationMs)
	if err != nil {
		return nil, fmt.Errorf("querying delivery stats: %w", err)
	}

	if st.TotalDeliveries > 0 {
		st.SuccessRate = float64(st.SentCount) / float64(st.TotalDeliveries) * 100
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_runs`).Scan(&st.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("querying run count: %w", err)
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&st.QuoteCount)
	if err != nil {
		return nil, fmt.Errorf("querying quote count: %w", err)
	}

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&st.SubscriberCount)
	if err != nil {
		return nil, fmt.Errorf("querying subscriber count: %w", err)
	}

	return &st, nil
}
