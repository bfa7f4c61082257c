package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, is_premium, stripe_customer_id,
	premium_expires, searches_today, last_search_reset, created_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.IsPremium,
		&u.StripeCustomerID,
		&u.PremiumExpires,
		&u.SearchesToday,
		&u.LastSearchReset,
		&u.CreatedAt,
	)
	return u, err
}

// CreateUserParams holds the fields required to insert a new account.
type CreateUserParams struct {
	Email        string
	PasswordHash string
}

// CreateUser inserts a new account and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		arg.Email, arg.PasswordHash,
	)
	return scanUser(row)
}

// GetUserByEmail returns the account with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// GetUserByID returns the account with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// UpdateUserSearchCountParams holds the fields for a counter update.
type UpdateUserSearchCountParams struct {
	ID            uuid.UUID
	SearchesToday int
}

// UpdateUserSearchCount persists the per-day search counter.
func (q *Queries) UpdateUserSearchCount(ctx context.Context, arg UpdateUserSearchCountParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET searches_today = $2
		WHERE id = $1`,
		arg.ID, arg.SearchesToday,
	)
	return err
}

// ResetUserSearchCountParams holds the fields for a daily counter reset.
type ResetUserSearchCountParams struct {
	ID              uuid.UUID
	LastSearchReset time.Time
}

// ResetUserSearchCount zeroes the counter and advances the reset marker.
func (q *Queries) ResetUserSearchCount(ctx context.Context, arg ResetUserSearchCountParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET searches_today = 0, last_search_reset = $2
		WHERE id = $1`,
		arg.ID, arg.LastSearchReset,
	)
	return err
}

// UpdateUserPremiumParams holds the fields for a premium activation.
type UpdateUserPremiumParams struct {
	ID             uuid.UUID
	IsPremium      bool
	PremiumExpires sql.NullTime
}

// UpdateUserPremium sets the premium flag and expiry together.
func (q *Queries) UpdateUserPremium(ctx context.Context, arg UpdateUserPremiumParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET is_premium = $2, premium_expires = $3
		WHERE id = $1`,
		arg.ID, arg.IsPremium, arg.PremiumExpires,
	)
	return err
}

// ClearUserPremium clears the premium flag only. The expiry timestamp
// is deliberately left untouched.
func (q *Queries) ClearUserPremium(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET is_premium = FALSE
		WHERE id = $1`,
		id,
	)
	return err
}

// UpdateUserStripeCustomerParams holds the fields to link a billing customer.
type UpdateUserStripeCustomerParams struct {
	ID               uuid.UUID
	StripeCustomerID sql.NullString
}

// UpdateUserStripeCustomer saves the billing provider's customer ID.
func (q *Queries) UpdateUserStripeCustomer(ctx context.Context, arg UpdateUserStripeCustomerParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE users
		SET stripe_customer_id = $2
		WHERE id = $1`,
		arg.ID, arg.StripeCustomerID,
	)
	return err
}
