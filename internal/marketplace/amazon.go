package marketplace

import (
	"context"
	"strings"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

// amazonSearchURL is the base of Amazon's search page.
const amazonSearchURL = "https://www.amazon.com/s"

// AmazonClient produces a search link into Amazon's catalog. The
// Product Advertising API requires an approved associate account, so
// until then the client contributes a single unpriced link offer that
// renders as a "check Amazon" fallback.
type AmazonClient struct {
	associateTag string
}

// NewAmazonClient creates an Amazon marketplace client. The associate
// tag is optional; when set it is appended to generated links.
func NewAmazonClient(associateTag string) *AmazonClient {
	return &AmazonClient{associateTag: associateTag}
}

// Name identifies the marketplace.
func (c *AmazonClient) Name() string { return "Amazon" }

// Search returns one search-link offer pointing at Amazon's results
// page. The link targets the ISBN-preferred term while the display
// title always echoes the free-text query.
func (c *AmazonClient) Search(_ context.Context, query, isbn string) []domain.Offer {
	term := searchTerm(query, isbn)

	link := amazonSearchURL + "?k=" + strings.ReplaceAll(term, " ", "+")
	if c.associateTag != "" {
		link += "&tag=" + c.associateTag
	}

	return []domain.Offer{
		{
			Source:       c.Name(),
			Price:        0,
			Title:        "Search results for: " + query,
			Condition:    "Various",
			URL:          link,
			IsSearchLink: true,
		},
	}
}
