package store

import (
	"context"
	"fmt"

	"github.com/dspatel44/daily-quotes/internal/domain"
)

// AddQuote persists one quote. The caller assigns the ID; quotes are
// immutable once written.
func (s *PostgresStore) AddQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quotes (id, text, author)
		VALUES ($1, $2, $3)
		RETURNING id, text, author, created_at
	`, q.ID, q.Text, q.Author).Scan(&q.ID, &q.Text, &q.Author, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting quote: %w", err)
	}
	return &q, nil
}

// ListQuotes returns every stored quote. The read is unbounded on
// purpose: random selection happens over the full set in the caller.
func (s *PostgresStore) ListQuotes(ctx context.Context) ([]domain.Quote, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, author, created_at
		FROM quotes
	`)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		var q domain.Quote
		if err := rows.Scan(&q.ID, &q.Text, &q.Author, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	return quotes, nil
}
