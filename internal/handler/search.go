package handler

import (
	"log/slog"
	"net/http"

	"github.com/textbooksaver/textbooksaver/internal/auth"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/metrics"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

// SearchHandler handles textbook search requests.
type SearchHandler struct {
	searchService service.SearchService
	logger        *slog.Logger
}

// NewSearchHandler creates a new SearchHandler instance.
func NewSearchHandler(searchService service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
	ISBN  string `json:"isbn"`
}

// Search handles POST /search. Requires an authenticated user.
//
// The searches_remaining field is a number for free users and the
// string "unlimited" for premium users.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.searchService.Search(r.Context(), user, req.Query, req.ISBN)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(searchErrorStatus(err)).Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	metrics.SearchesTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"results":            result.Offers,
		"savings":            result.Savings,
		"searches_remaining": remainingValue(result.Remaining),
	})
}

// remainingValue renders the remaining-search count for the response.
func remainingValue(remaining int) any {
	if remaining == domain.UnlimitedSearches {
		return "unlimited"
	}
	return remaining
}

// searchErrorStatus picks the metric label for a failed search.
func searchErrorStatus(err error) string {
	switch domain.ErrorCode(err) {
	case domain.EFORBIDDEN:
		return "quota_exceeded"
	case domain.EINVALID:
		return "invalid"
	default:
		return "error"
	}
}
