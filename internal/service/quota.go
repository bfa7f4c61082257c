package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/repository"
)

// QuotaService enforces the daily search allowance.
type QuotaService interface {
	// CanSearch reports whether the user may run a search right now.
	// When the user's counter belongs to a previous UTC day it is reset
	// and the reset is persisted before the allowance is evaluated. The
	// passed user is updated in place to reflect any reset.
	CanSearch(ctx context.Context, user *domain.User, now time.Time) (bool, error)

	// IncrementSearch records one consumed search for a free user and
	// persists the new counter. Premium users are not counted.
	IncrementSearch(ctx context.Context, user *domain.User, now time.Time) error
}

// quotaStore is the subset of repository queries the quota service needs.
type quotaStore interface {
	UpdateUserSearchCount(ctx context.Context, params repository.UpdateUserSearchCountParams) error
	ResetUserSearchCount(ctx context.Context, params repository.ResetUserSearchCountParams) error
}

type quotaService struct {
	store  quotaStore
	logger *slog.Logger
}

// NewQuotaService creates a new QuotaService instance.
func NewQuotaService(store quotaStore, logger *slog.Logger) QuotaService {
	return &quotaService{
		store:  store,
		logger: logger,
	}
}

// CanSearch applies the lazy daily reset, then evaluates the allowance.
//
// The reset is persisted even for premium users so the stored counter
// matches what a later reader expects after the subscription lapses.
func (s *quotaService) CanSearch(ctx context.Context, user *domain.User, now time.Time) (bool, error) {
	const op = "QuotaService.CanSearch"

	if domain.NeedsDailyReset(user.LastSearchReset, now) {
		err := s.store.ResetUserSearchCount(ctx, repository.ResetUserSearchCountParams{
			ID:              user.ID,
			LastSearchReset: now,
		})
		if err != nil {
			return false, domain.Internal(err, op, "Failed to reset search counter")
		}
		user.SearchesToday = 0
		user.LastSearchReset = now
		s.logger.Debug("search counter reset", "user_id", user.ID)
	}

	return domain.AllowSearch(user, now), nil
}

// IncrementSearch persists one consumed search. Premium users with an
// unexpired subscription are never counted.
func (s *quotaService) IncrementSearch(ctx context.Context, user *domain.User, now time.Time) error {
	const op = "QuotaService.IncrementSearch"

	if user.PremiumActive(now) {
		return nil
	}

	user.SearchesToday++
	err := s.store.UpdateUserSearchCount(ctx, repository.UpdateUserSearchCountParams{
		ID:            user.ID,
		SearchesToday: user.SearchesToday,
	})
	if err != nil {
		user.SearchesToday--
		return domain.Internal(err, op, "Failed to update search counter")
	}

	return nil
}
