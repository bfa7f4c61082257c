package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

const (
	// ebayFindingURL is the endpoint of eBay's Finding API.
	ebayFindingURL = "https://svcs.ebay.com/services/search/FindingService/v1"

	// ebayRequestTimeout bounds a single Finding API call.
	ebayRequestTimeout = 10 * time.Second

	// ebayMaxOffers caps how many listings a search contributes.
	ebayMaxOffers = 5

	// ebayPageSize is how many listings the API is asked for.
	ebayPageSize = 10

	// ebayMaxAttempts is how many times a failed call is retried.
	ebayMaxAttempts = 3
)

// EbayClient queries eBay's Finding API for fixed-price listings.
type EbayClient struct {
	appID   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	caser   cases.Caser
}

// NewEbayClient creates an eBay marketplace client. An empty appID
// yields a client that always returns no offers.
func NewEbayClient(appID string, logger *slog.Logger) *EbayClient {
	return &EbayClient{
		appID:   appID,
		baseURL: ebayFindingURL,
		client: &http.Client{
			Timeout: ebayRequestTimeout,
		},
		logger: logger,
		caser:  cases.Title(language.English),
	}
}

// Name identifies the marketplace.
func (c *EbayClient) Name() string { return "eBay" }

// Search queries the Finding API for fixed-price listings sorted by
// price plus shipping, cheapest first. Failures of any kind are logged
// and return an empty slice.
func (c *EbayClient) Search(ctx context.Context, query, isbn string) []domain.Offer {
	if c.appID == "" {
		c.logger.Debug("ebay client not configured, skipping")
		return nil
	}

	keywords := searchTerm(query, isbn)

	resp, err := c.findItems(ctx, keywords)
	if err != nil {
		c.logger.Warn("ebay search failed", "keywords", keywords, "error", err)
		return nil
	}

	return c.collectOffers(resp)
}

// findItems executes the Finding API call with retries.
func (c *EbayClient) findItems(ctx context.Context, keywords string) (*ebayResponse, error) {
	params := url.Values{}
	params.Set("OPERATION-NAME", "findItemsAdvanced")
	params.Set("SERVICE-VERSION", "1.0.0")
	params.Set("SECURITY-APPNAME", c.appID)
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("REST-PAYLOAD", "")
	params.Set("keywords", keywords)
	params.Set("paginationInput.entriesPerPage", strconv.Itoa(ebayPageSize))
	params.Set("itemFilter(0).name", "ListingType")
	params.Set("itemFilter(0).value", "FixedPrice")
	params.Set("sortOrder", "PricePlusShippingLowest")

	requestURL := c.baseURL + "?" + params.Encode()

	var result *ebayResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("finding api status %d", resp.StatusCode)
			}

			var parsed ebayResponse
			if err := json.Unmarshal(body, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}

			result = &parsed
			return nil
		},
		retry.Attempts(ebayMaxAttempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying ebay request", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// collectOffers converts the Finding API response into offers,
// skipping listings missing a parseable price.
func (c *EbayClient) collectOffers(resp *ebayResponse) []domain.Offer {
	items := resp.items()

	offers := make([]domain.Offer, 0, ebayMaxOffers)
	for _, item := range items {
		if len(offers) >= ebayMaxOffers {
			break
		}

		offer, ok := c.itemToOffer(item)
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}

	return offers
}

// itemToOffer extracts one offer from a Finding API listing. The
// Finding API wraps every scalar in a single-element array, hence the
// first() plumbing.
func (c *EbayClient) itemToOffer(item ebayItem) (domain.Offer, bool) {
	priceStr := ""
	if ss := first(item.SellingStatus); ss != nil {
		if cp := first(ss.CurrentPrice); cp != nil {
			priceStr = cp.Value
		}
	}

	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil || price <= 0 {
		c.logger.Debug("skipping ebay listing without a usable price", "price", priceStr)
		return domain.Offer{}, false
	}

	condition := "Used"
	if cond := first(item.Condition); cond != nil {
		if name := firstString(cond.ConditionDisplayName); name != "" {
			condition = c.caser.String(name)
		}
	}

	shipping := "0"
	if si := first(item.ShippingInfo); si != nil {
		if sc := first(si.ShippingServiceCost); sc != nil && sc.Value != "" {
			shipping = sc.Value
		}
	}

	return domain.Offer{
		Source:    c.Name(),
		Price:     price,
		Title:     firstString(item.Title),
		Condition: condition,
		URL:       firstString(item.ViewItemURL),
		Shipping:  shipping,
		Image:     firstString(item.GalleryURL),
	}, true
}

// Finding API response types. Every field arrives as a one-element
// array, and prices carry their value under "__value__".

type ebayResponse struct {
	FindItemsAdvancedResponse []ebayAdvancedResponse `json:"findItemsAdvancedResponse"`
}

func (r *ebayResponse) items() []ebayItem {
	if adv := first(r.FindItemsAdvancedResponse); adv != nil {
		if sr := first(adv.SearchResult); sr != nil {
			return sr.Item
		}
	}
	return nil
}

type ebayAdvancedResponse struct {
	Ack          []string           `json:"ack"`
	SearchResult []ebaySearchResult `json:"searchResult"`
}

type ebaySearchResult struct {
	Count string     `json:"@count"`
	Item  []ebayItem `json:"item"`
}

type ebayItem struct {
	Title         []string            `json:"title"`
	ViewItemURL   []string            `json:"viewItemURL"`
	GalleryURL    []string            `json:"galleryURL"`
	Condition     []ebayCondition     `json:"condition"`
	SellingStatus []ebaySellingStatus `json:"sellingStatus"`
	ShippingInfo  []ebayShippingInfo  `json:"shippingInfo"`
}

type ebayCondition struct {
	ConditionDisplayName []string `json:"conditionDisplayName"`
}

type ebaySellingStatus struct {
	CurrentPrice []ebayAmount `json:"currentPrice"`
}

type ebayShippingInfo struct {
	ShippingServiceCost []ebayAmount `json:"shippingServiceCost"`
}

type ebayAmount struct {
	CurrencyID string `json:"@currencyId"`
	Value      string `json:"__value__"`
}

func first[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

func firstString(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
