package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// CreateSavedSearchParams holds the fields for one search history record.
type CreateSavedSearchParams struct {
	UserID     uuid.UUID
	ISBN       sql.NullString
	Title      sql.NullString
	BestPrice  sql.NullFloat64
	BestSource sql.NullString
}

// CreateSavedSearch appends a record to the search history. The history
// is write-only: nothing reads these rows back.
func (q *Queries) CreateSavedSearch(ctx context.Context, arg CreateSavedSearchParams) (SavedSearch, error) {
	var s SavedSearch
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO saved_searches (user_id, isbn, title, best_price, best_source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, isbn, title, best_price, best_source, created_at`,
		arg.UserID, arg.ISBN, arg.Title, arg.BestPrice, arg.BestSource,
	).Scan(&s.ID, &s.UserID, &s.ISBN, &s.Title, &s.BestPrice, &s.BestSource, &s.CreatedAt)
	return s, err
}
