// Package service contains the business logic layer.
//
// Services orchestrate interactions between the repository, external
// APIs, and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/repository"
)

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security while being fast enough for login
	// flows. This should NOT be configurable at runtime.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before bcrypt's own 72-byte limit.
	MaxPasswordLength = 72
)

// UserService defines the interface for account operations.
type UserService interface {
	// Register creates a new account.
	// Returns domain.ECONFLICT if the email is already registered.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and creates a new session.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// CreateSession issues a fresh session for an existing account and
	// returns the raw token. Used to log a user in right after signup.
	CreateSession(ctx context.Context, userID uuid.UUID) (string, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by their ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken validates a session token and returns the
	// associated user. Returns domain.EUNAUTHORIZED if the token is
	// invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// ActivatePremium marks the account premium until the given expiry.
	ActivatePremium(ctx context.Context, userID uuid.UUID, expires time.Time) error

	// DeactivatePremiumByEmail clears the premium flag of the account
	// with the given email, leaving the expiry timestamp untouched.
	// Returns domain.ENOTFOUND when no such account exists.
	DeactivatePremiumByEmail(ctx context.Context, email string) error

	// CompleteCheckout records a finished checkout for the account with
	// the given email: stores the billing provider's customer ID and
	// grants premium until the given expiry. Returns domain.ENOTFOUND
	// when no such account exists.
	CompleteCheckout(ctx context.Context, email, customerID string, expires time.Time) error

	// DeleteExpiredSessions removes all expired sessions. Intended as a
	// periodic maintenance call.
	DeleteExpiredSessions(ctx context.Context) error
}

type userService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(queries *repository.Queries, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		logger:  logger,
	}
}

// Register creates a new account with the provided parameters.
//
// Email uniqueness is checked before hashing; to keep timing uniform a
// bcrypt round is still performed when the email is taken.
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	_, err := s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		// Unique constraint violation (registration race)
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// Login authenticates a user and creates a new session.
//
// A dummy bcrypt comparison runs when the email is unknown so that the
// response time does not reveal whether an account exists. The same
// generic message covers both failure modes.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW" // bcrypt hash of "dummy"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := s.CreateSession(ctx, repoUser.ID)
	if err != nil {
		return nil, err
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	return &domain.LoginResult{
		User:  user,
		Token: token,
	}, nil
}

// CreateSession issues a session token for an existing account.
//
// The token is generated with crypto/rand and stored as a SHA-256
// hash; the raw value is returned exactly once.
func (s *userService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "UserService.CreateSession"

	token, err := generateSessionToken()
	if err != nil {
		return "", domain.Internal(err, op, "Failed to generate session token")
	}

	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    userID,
		TokenHash: hashSessionToken(token),
		ExpiresAt: time.Now().Add(SessionDuration),
	})
	if err != nil {
		return "", domain.Internal(err, op, "Failed to create session")
	}

	return token, nil
}

// Logout invalidates a session. Calling with an invalid or
// already-deleted token simply does nothing.
func (s *userService) Logout(ctx context.Context, token string) error {
	if len(token) != hex.EncodedLen(SessionTokenBytes) {
		return nil
	}

	if err := s.queries.DeleteSession(ctx, hashSessionToken(token)); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to delete session", "error", err)
		}
	}

	s.logger.Debug("session invalidated")
	return nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// GetBySessionToken retrieves a user by their session token. The token
// is hashed before lookup and expired sessions are rejected at the
// query level.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if len(token) != hex.EncodedLen(SessionTokenBytes) {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	sess, err := s.queries.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	repoUser, err := s.queries.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Possible if the account was deleted out from under the session
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// ActivatePremium marks the account premium until the given expiry.
func (s *userService) ActivatePremium(ctx context.Context, userID uuid.UUID, expires time.Time) error {
	const op = "UserService.ActivatePremium"

	err := s.queries.UpdateUserPremium(ctx, repository.UpdateUserPremiumParams{
		ID:             userID,
		IsPremium:      true,
		PremiumExpires: domain.ToNullTime(&expires),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to activate premium")
	}

	s.logger.Info("premium activated", "user_id", userID, "expires", expires)
	return nil
}

// DeactivatePremiumByEmail clears the premium flag of the account with
// the given email. The expiry timestamp is left as-is.
func (s *userService) DeactivatePremiumByEmail(ctx context.Context, email string) error {
	const op = "UserService.DeactivatePremiumByEmail"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", email)
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := s.queries.ClearUserPremium(ctx, repoUser.ID); err != nil {
		return domain.Internal(err, op, "Failed to deactivate premium")
	}

	s.logger.Info("premium deactivated", "user_id", repoUser.ID, "email", email)
	return nil
}

// CompleteCheckout stores the billing customer ID and grants premium
// to the account with the given email.
func (s *userService) CompleteCheckout(ctx context.Context, email, customerID string, expires time.Time) error {
	const op = "UserService.CompleteCheckout"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", email)
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	err = s.queries.UpdateUserStripeCustomer(ctx, repository.UpdateUserStripeCustomerParams{
		ID:               repoUser.ID,
		StripeCustomerID: domain.ToNullString(customerID),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to save billing customer ID")
	}

	err = s.queries.UpdateUserPremium(ctx, repository.UpdateUserPremiumParams{
		ID:             repoUser.ID,
		IsPremium:      true,
		PremiumExpires: domain.ToNullTime(&expires),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to activate premium")
	}

	s.logger.Info("checkout completed", "user_id", repoUser.ID, "email", email, "expires", expires)
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	const op = "UserService.DeleteExpiredSessions"

	if err := s.queries.DeleteExpiredSessions(ctx); err != nil {
		return domain.Internal(err, op, "Failed to delete expired sessions")
	}

	s.logger.Info("expired sessions cleaned up")
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// generateSessionToken creates a cryptographically secure session token
// as a 64-character hex string (256 bits of entropy).
func generateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken creates a SHA-256 hash of a session token. Tokens
// are high-entropy random values, so a fast hash is sufficient; the
// point is that a leaked sessions table is useless on its own.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// repoUserToDomain converts a repository.User to domain.User.
func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:               u.ID,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		IsPremium:        u.IsPremium,
		StripeCustomerID: domain.NullStringValue(u.StripeCustomerID),
		PremiumExpires:   domain.NullTimeValue(u.PremiumExpires),
		SearchesToday:    u.SearchesToday,
		LastSearchReset:  u.LastSearchReset,
		CreatedAt:        u.CreatedAt,
	}
}

// validateEmail validates an email address format: single @, dotted
// domain, RFC 5321 length cap.
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	at := strings.Count(email, "@")
	if at != 1 {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}

	idx := strings.Index(email, "@")
	if idx == 0 || idx == len(email)-1 {
		return domain.Invalid("", "Email must have a local part and a domain")
	}

	if !strings.Contains(email[idx+1:], ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}
	if strings.Contains(email, "..") {
		return domain.Invalid("", "Email cannot contain consecutive dots")
	}

	return nil
}

// validatePassword validates password strength requirements.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}
