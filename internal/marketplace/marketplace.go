// Package marketplace contains the clients that query external book
// marketplaces for offers.
//
// Clients are fail-soft: a marketplace that is down, misconfigured or
// returning garbage contributes zero offers instead of failing the
// whole search.
package marketplace

import (
	"context"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

// Client queries a single marketplace for textbook offers.
type Client interface {
	// Name identifies the marketplace in logs and metrics.
	Name() string

	// Search returns the offers this marketplace has for the given
	// query and ISBN. An empty slice means no results or a failed
	// lookup; clients never return an error.
	Search(ctx context.Context, query, isbn string) []domain.Offer
}

// searchTerm prefers the ISBN when one is given; ISBN lookups are far
// more precise than title keywords.
func searchTerm(query, isbn string) string {
	if isbn != "" {
		return isbn
	}
	return query
}
