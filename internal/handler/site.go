package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/auth"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

// SiteHandler serves the landing, health and dashboard endpoints.
type SiteHandler struct {
	quotaService service.QuotaService
	logger       *slog.Logger
}

// NewSiteHandler creates a new SiteHandler instance.
func NewSiteHandler(quotaService service.QuotaService, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{
		quotaService: quotaService,
		logger:       logger,
	}
}

// Home handles GET /. Describes the service; includes the signed-in
// account when a session is present.
func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"service":     "TextbookSaver",
		"description": "Compare textbook prices across marketplaces",
	}

	if user := auth.GetUser(r.Context()); user != nil {
		payload["user"] = userResponse{
			ID:        user.ID.String(),
			Email:     user.Email,
			IsPremium: user.IsPremium,
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

// Health handles GET /health.
func (h *SiteHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dashboard handles GET /dashboard. Requires an authenticated user.
//
// Running the quota check here applies the daily reset, so a user who
// opens the dashboard on a new day sees a full allowance.
func (h *SiteHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	now := time.Now().UTC()
	if _, err := h.quotaService.CanSearch(r.Context(), user, now); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payload := map[string]any{
		"user": userResponse{
			ID:        user.ID.String(),
			Email:     user.Email,
			IsPremium: user.IsPremium,
		},
		"premium_active":     user.PremiumActive(now),
		"searches_today":     user.SearchesToday,
		"searches_remaining": remainingValue(domain.RemainingSearches(user, now)),
	}
	if user.PremiumExpires != nil {
		payload["premium_expires"] = user.PremiumExpires
	}

	writeJSON(w, http.StatusOK, payload)
}
