// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for
// authentication and subscription state. These types are separate from
// the repository models so business logic never touches sql.Null* types.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents a registered TextbookSaver account.
type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string // Never expose this in API responses
	IsPremium        bool
	StripeCustomerID string
	PremiumExpires   *time.Time
	SearchesToday    int
	LastSearchReset  time.Time
	CreatedAt        time.Time
}

// PremiumActive reports whether the user holds an unexpired premium
// subscription at the given instant. The premium flag alone is not
// enough: a cancelled-but-still-flagged account whose expiry has passed
// is treated as free.
func (u *User) PremiumActive(now time.Time) bool {
	return u.IsPremium && u.PremiumExpires != nil && u.PremiumExpires.After(now)
}

// RegisterParams contains the validated parameters for user signup.
type RegisterParams struct {
	Email    string
	Password string // Raw password, hashed by the service
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User  *User
	Token string // Raw session token (not hashed) - only returned once
}

// SavedSearch is the write-only record of one performed search. It is
// recorded for every successful search and never read back.
type SavedSearch struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ISBN       string
	Title      string
	BestPrice  float64
	BestSource string
	CreatedAt  time.Time
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time pointer to sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// ToNullFloat64 converts a float64 to sql.NullFloat64, treating zero as
// absent.
func ToNullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
