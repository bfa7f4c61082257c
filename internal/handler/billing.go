package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/auth"
	"github.com/textbooksaver/textbooksaver/internal/billing"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/metrics"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

// PremiumGrantDuration is how much premium time a completed checkout
// grants.
const PremiumGrantDuration = 30 * 24 * time.Hour

// BillingHandler handles checkout and subscription lifecycle requests.
type BillingHandler struct {
	billingService billing.Service
	userService    service.UserService
	logger         *slog.Logger
	baseURL        string
}

// NewBillingHandler creates a new BillingHandler instance. The billing
// service may be nil when Stripe is not configured; billing endpoints
// then report payment errors.
func NewBillingHandler(billingService billing.Service, userService service.UserService, logger *slog.Logger, baseURL string) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		userService:    userService,
		logger:         logger,
		baseURL:        baseURL,
	}
}

// CreateCheckoutSession handles POST /create-checkout-session.
// Requires an authenticated user.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if h.billingService == nil {
		err := domain.Errorf(domain.EPAYMENT, "BillingHandler.CreateCheckoutSession", "Billing is not configured")
		ErrorResponse(w, r, h.logger, err)
		return
	}

	successURL := h.baseURL + "/payment-success"
	cancelURL := h.baseURL + "/dashboard"

	checkoutURL, err := h.billingService.CreateCheckoutSession(user.Email, successURL, cancelURL)
	if err != nil {
		// Provider failures surface their own message to aid debugging
		ErrorResponse(w, r, h.logger, domain.Payment(err, "BillingHandler.CreateCheckoutSession"))
		return
	}

	metrics.CheckoutSessionsTotal.Inc()

	writeJSON(w, http.StatusOK, map[string]string{
		"checkout_url": checkoutURL,
	})
}

// PaymentSuccess handles GET /payment-success, the checkout success
// redirect target. Grants 30 days of premium to the logged-in user.
//
// TODO: verify the checkout session with Stripe before granting;
// today anyone logged in who hits this URL gets the grant, and the
// webhook is the only authoritative signal.
func (h *BillingHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	expires := time.Now().UTC().Add(PremiumGrantDuration)
	if err := h.userService.ActivatePremium(r.Context(), user.ID, expires); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "premium activated",
		"premium_expires": expires,
	})
}
