package store

import (
	"context"
	"fmt"

	"github.com/dspatel44/daily-quotes/internal/domain"
)

// CreateSubscriber enrolls an email address. Uniqueness rides on the
// store's conditional insert: a duplicate returns
// domain.ErrDuplicateSubscriber and leaves the existing row untouched.
// One atomic call — concurrent subscribes for the same address cannot
// race past each other.
func (s *PostgresStore) CreateSubscriber(ctx context.Context, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subscribers (email)
		VALUES ($1)
		ON CONFLICT (email) DO NOTHING
		RETURNING email, subscribed_at
	`, email).Scan(&sub.Email, &sub.SubscribedAt)
	if err != nil {
		if isNoRows(err) {
			// Conflict path: nothing inserted, nothing returned.
			return nil, domain.ErrDuplicateSubscriber
		}
		return nil, fmt.Errorf("inserting subscriber: %w", err)
	}
	return &sub, nil
}

// DeleteSubscriber removes an enrollment. A delete that touched no row
// returns domain.ErrSubscriberNotFound, the single-call equivalent of
// a delete-and-return-old-value.
func (s *PostgresStore) DeleteSubscriber(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM subscribers WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriberNotFound
	}
	return nil
}

// ListSubscribers returns the full subscriber set for the fan-out.
func (s *PostgresStore) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT email, subscribed_at
		FROM subscribers
		ORDER BY subscribed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		if err := rows.Scan(&sub.Email, &sub.SubscribedAt); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		subscribers = append(subscribers, sub)
	}

	if subscribers == nil {
		subscribers = []domain.Subscriber{}
	}

	return subscribers, nil
}
