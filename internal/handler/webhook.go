package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/textbooksaver/textbooksaver/internal/billing"
	"github.com/textbooksaver/textbooksaver/internal/domain"
	"github.com/textbooksaver/textbooksaver/internal/metrics"
	"github.com/textbooksaver/textbooksaver/internal/service"
)

// webhookMaxBodySize caps the webhook payload size (64KB).
const webhookMaxBodySize = 65536

// WebhookHandler processes billing provider webhook events.
type WebhookHandler struct {
	billingService billing.Service
	userService    service.UserService
	logger         *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler instance.
func NewWebhookHandler(billingService billing.Service, userService service.UserService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billingService: billingService,
		userService:    userService,
		logger:         logger,
	}
}

// HandleWebhook handles POST /webhook. Unverifiable payloads are
// rejected with 400 so Stripe retries them; recognized events that
// fail processing return 500 for the same reason.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billingService == nil {
		writeJSONError(w, http.StatusServiceUnavailable, domain.EPAYMENT, "Billing is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookMaxBodySize))
	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		writeJSONError(w, http.StatusBadRequest, domain.EINVALID, "Invalid webhook payload")
		return
	}

	event, err := h.billingService.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		writeJSONError(w, http.StatusBadRequest, domain.EINVALID, "Invalid webhook signature")
		return
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(r, event.Data.Raw); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	case "customer.subscription.deleted":
		if err := h.handleSubscriptionDeleted(r, event.Data.Raw); err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
	default:
		h.logger.Debug("ignoring webhook event", "type", event.Type)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// handleCheckoutCompleted records the Stripe customer ID and grants
// premium to the purchasing account. This is the authoritative grant;
// the payment-success redirect only covers the interactive flow.
func (h *WebhookHandler) handleCheckoutCompleted(r *http.Request, raw json.RawMessage) error {
	var sess struct {
		Customer      string `json:"customer"`
		CustomerEmail string `json:"customer_email"`
	}
	if err := json.Unmarshal(raw, &sess); err != nil {
		h.logger.Warn("failed to parse checkout session event", "error", err)
		return nil
	}
	if sess.CustomerEmail == "" {
		h.logger.Warn("checkout completed event without customer email")
		return nil
	}

	expires := time.Now().UTC().Add(PremiumGrantDuration)
	err := h.userService.CompleteCheckout(r.Context(), sess.CustomerEmail, sess.Customer, expires)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			h.logger.Warn("checkout completed for unknown account", "email", sess.CustomerEmail)
			return nil
		}
		return err
	}

	h.logger.Info("premium granted via checkout", "email", sess.CustomerEmail)
	return nil
}

// handleSubscriptionDeleted clears the premium flag of the subscriber.
// Events without a customer email, or for an unknown account, are
// acknowledged without action so Stripe does not retry them forever.
func (h *WebhookHandler) handleSubscriptionDeleted(r *http.Request, raw json.RawMessage) error {
	var sub struct {
		CustomerEmail string `json:"customer_email"`
	}
	if err := json.Unmarshal(raw, &sub); err != nil {
		h.logger.Warn("failed to parse subscription event", "error", err)
		return nil
	}
	if sub.CustomerEmail == "" {
		h.logger.Warn("subscription deleted event without customer email")
		return nil
	}

	err := h.userService.DeactivatePremiumByEmail(r.Context(), sub.CustomerEmail)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			h.logger.Warn("subscription deleted for unknown account", "email", sub.CustomerEmail)
			return nil
		}
		return err
	}

	h.logger.Info("subscription cancelled", "email", sub.CustomerEmail)
	return nil
}
