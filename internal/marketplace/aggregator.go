package marketplace

import (
	"context"
	"log/slog"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

// Recorder observes marketplace query outcomes. Implemented by the
// metrics package; a nil Recorder disables recording.
type Recorder interface {
	RecordMarketplaceSearch(source string, offers int)
}

// Aggregator fans a search out to every configured marketplace and
// merges the results into a single price-sorted list.
type Aggregator struct {
	clients  []Client
	recorder Recorder
	logger   *slog.Logger
}

// NewAggregator creates an aggregator over the given clients. Clients
// are queried in the order supplied.
func NewAggregator(clients []Client, recorder Recorder, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		clients:  clients,
		recorder: recorder,
		logger:   logger,
	}
}

// Search queries each marketplace in turn and returns the merged
// offers sorted by price, search links last. A marketplace returning
// nothing simply contributes nothing.
func (a *Aggregator) Search(ctx context.Context, query, isbn string) []domain.Offer {
	var merged []domain.Offer

	for _, client := range a.clients {
		offers := client.Search(ctx, query, isbn)

		a.logger.Debug("marketplace queried",
			"source", client.Name(),
			"offers", len(offers),
		)
		if a.recorder != nil {
			a.recorder.RecordMarketplaceSearch(client.Name(), len(offers))
		}

		merged = append(merged, offers...)
	}

	return domain.SortOffers(merged)
}
