package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/repository"
)

// OfferSource produces price-sorted offers for a textbook query. It is
// satisfied by the marketplace aggregator.
type OfferSource interface {
	Search(ctx context.Context, query, isbn string) []domain.Offer
}

// SearchResult is the outcome of a single search.
type SearchResult struct {
	Offers    []domain.Offer
	Savings   float64
	Remaining int
}

// SearchService runs textbook searches on behalf of a user.
type SearchService interface {
	// Search validates the input, enforces the daily quota, queries the
	// marketplaces and records the search. Returns domain.EINVALID when
	// both query and ISBN are blank and domain.EFORBIDDEN when the
	// daily allowance is exhausted.
	Search(ctx context.Context, user *domain.User, query, isbn string) (*SearchResult, error)
}

// searchStore is the subset of repository queries the search service needs.
type searchStore interface {
	CreateSavedSearch(ctx context.Context, params repository.CreateSavedSearchParams) (repository.SavedSearch, error)
}

type searchService struct {
	offers OfferSource
	quota  QuotaService
	store  searchStore
	logger *slog.Logger
}

// NewSearchService creates a new SearchService instance.
func NewSearchService(offers OfferSource, quota QuotaService, store searchStore, logger *slog.Logger) SearchService {
	return &searchService{
		offers: offers,
		quota:  quota,
		store:  store,
		logger: logger,
	}
}

// Search runs one quota-checked search for the user.
//
// The quota is consumed only after the marketplaces respond, so a
// search that errors out internally does not cost the user anything. A
// search that legitimately finds nothing still counts.
func (s *searchService) Search(ctx context.Context, user *domain.User, query, isbn string) (*SearchResult, error) {
	const op = "SearchService.Search"

	query = strings.TrimSpace(query)
	isbn = strings.TrimSpace(isbn)

	if query == "" && isbn == "" {
		return nil, domain.Invalid(op, "Please enter a book title or ISBN")
	}

	now := time.Now().UTC()

	allowed, err := s.quota.CanSearch(ctx, user, now)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.Forbidden(op, "Daily search limit reached. Upgrade to Premium for unlimited searches!")
	}

	offers := s.offers.Search(ctx, query, isbn)
	savings := domain.Savings(offers)

	if err := s.quota.IncrementSearch(ctx, user, now); err != nil {
		return nil, err
	}

	s.recordSearch(ctx, user, query, isbn, offers)

	s.logger.Info("search completed",
		"user_id", user.ID,
		"query", query,
		"isbn", isbn,
		"offers", len(offers),
		"savings", savings,
	)

	return &SearchResult{
		Offers:    offers,
		Savings:   savings,
		Remaining: domain.RemainingSearches(user, now),
	}, nil
}

// recordSearch persists the search to the user's history. History is a
// convenience feature, so failures are logged and swallowed.
func (s *searchService) recordSearch(ctx context.Context, user *domain.User, query, isbn string, offers []domain.Offer) {
	params := repository.CreateSavedSearchParams{
		UserID: user.ID,
		Title:  domain.ToNullString(query),
		ISBN:   domain.ToNullString(isbn),
	}

	if best, ok := domain.BestOffer(offers); ok {
		params.BestPrice = domain.ToNullFloat64(best.Price)
		params.BestSource = domain.ToNullString(best.Source)
	}

	if _, err := s.store.CreateSavedSearch(ctx, params); err != nil {
		s.logger.Warn("failed to record search", "user_id", user.ID, "error", err)
	}
}
