// Package repository contains the database access layer.
//
// Queries are written against database/sql with the pgx stdlib driver.
// Each method maps to a single statement; services own all business
// rules and error translation.
package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Queries provides access to all database queries.
type Queries struct {
	db *sql.DB
}

// New creates a Queries instance backed by the given database handle.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// User is the database representation of an account row.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	IsPremium        bool
	StripeCustomerID sql.NullString
	PremiumExpires   sql.NullTime
	SearchesToday    int
	LastSearchReset  time.Time
	CreatedAt        time.Time
}

// Session is the database representation of a session row.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SavedSearch is the database representation of a search history row.
type SavedSearch struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ISBN       sql.NullString
	Title      sql.NullString
	BestPrice  sql.NullFloat64
	BestSource sql.NullString
	CreatedAt  time.Time
}
