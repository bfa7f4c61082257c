package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/textbooksaver/textbooksaver/internal/domain"
)

type mockBillingService struct {
	createCheckoutSessionFunc func(email, successURL, cancelURL string) (string, error)
	verifyFunc                func(payload []byte, signature string) (stripe.Event, error)
}

func (m *mockBillingService) CreateCheckoutSession(email, successURL, cancelURL string) (string, error) {
	if m.createCheckoutSessionFunc != nil {
		return m.createCheckoutSessionFunc(email, successURL, cancelURL)
	}
	return "", nil
}

func (m *mockBillingService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(payload, signature)
	}
	return webhook.ConstructEvent(payload, signature, "whsec_test")
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Run("unauthenticated yields 401", func(t *testing.T) {
		h := NewBillingHandler(&mockBillingService{}, &mockUserService{}, testLogger(), "https://textbooksaver.example")

		req := httptest.NewRequest(http.MethodPost, "/create-checkout-session", nil)
		rec := httptest.NewRecorder()
		h.CreateCheckoutSession(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("success returns checkout url", func(t *testing.T) {
		billingSvc := &mockBillingService{
			createCheckoutSessionFunc: func(email, successURL, cancelURL string) (string, error) {
				if email != "reader@example.com" {
					t.Errorf("email = %q", email)
				}
				if successURL != "https://textbooksaver.example/payment-success" {
					t.Errorf("successURL = %q", successURL)
				}
				if cancelURL != "https://textbooksaver.example/dashboard" {
					t.Errorf("cancelURL = %q", cancelURL)
				}
				return "https://checkout.stripe.com/c/pay/cs_test_123", nil
			},
		}
		h := NewBillingHandler(billingSvc, &mockUserService{}, testLogger(), "https://textbooksaver.example")

		rec := httptest.NewRecorder()
		h.CreateCheckoutSession(rec, authedRequest(http.MethodPost, "/create-checkout-session", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "cs_test_123") {
			t.Errorf("body = %q, want checkout url", rec.Body.String())
		}
	})

	t.Run("provider failure yields 500 with the provider message", func(t *testing.T) {
		billingSvc := &mockBillingService{
			createCheckoutSessionFunc: func(_, _, _ string) (string, error) {
				return "", errors.New("stripe create checkout session: card network unavailable")
			},
		}
		h := NewBillingHandler(billingSvc, &mockUserService{}, testLogger(), "https://textbooksaver.example")

		rec := httptest.NewRecorder()
		h.CreateCheckoutSession(rec, authedRequest(http.MethodPost, "/create-checkout-session", ""))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(rec.Body.String(), "card network unavailable") {
			t.Errorf("body = %q, want the provider message surfaced", rec.Body.String())
		}
	})

	t.Run("billing unconfigured yields 500", func(t *testing.T) {
		h := NewBillingHandler(nil, &mockUserService{}, testLogger(), "https://textbooksaver.example")

		rec := httptest.NewRecorder()
		h.CreateCheckoutSession(rec, authedRequest(http.MethodPost, "/create-checkout-session", ""))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(rec.Body.String(), "Billing is not configured") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})
}

func TestPaymentSuccess(t *testing.T) {
	t.Run("grants thirty days of premium", func(t *testing.T) {
		var gotID uuid.UUID
		var gotExpires time.Time
		userSvc := &mockUserService{
			activatePremiumFunc: func(_ context.Context, userID uuid.UUID, expires time.Time) error {
				gotID = userID
				gotExpires = expires
				return nil
			},
		}
		h := NewBillingHandler(&mockBillingService{}, userSvc, testLogger(), "https://textbooksaver.example")

		rec := httptest.NewRecorder()
		h.PaymentSuccess(rec, authedRequest(http.MethodGet, "/payment-success", ""))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if gotID == uuid.Nil {
			t.Error("ActivatePremium was not called")
		}
		wantExpires := time.Now().UTC().Add(PremiumGrantDuration)
		if diff := gotExpires.Sub(wantExpires); diff < -time.Minute || diff > time.Minute {
			t.Errorf("expires = %v, want about %v", gotExpires, wantExpires)
		}
	})

	t.Run("unauthenticated yields 401", func(t *testing.T) {
		h := NewBillingHandler(&mockBillingService{}, &mockUserService{}, testLogger(), "https://textbooksaver.example")

		req := httptest.NewRequest(http.MethodGet, "/payment-success", nil)
		rec := httptest.NewRecorder()
		h.PaymentSuccess(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("activation failure yields 500", func(t *testing.T) {
		userSvc := &mockUserService{
			activatePremiumFunc: func(_ context.Context, _ uuid.UUID, _ time.Time) error {
				return domain.Internal(context.DeadlineExceeded, "UserService.ActivatePremium", "Failed to activate premium")
			},
		}
		h := NewBillingHandler(&mockBillingService{}, userSvc, testLogger(), "https://textbooksaver.example")

		rec := httptest.NewRecorder()
		h.PaymentSuccess(rec, authedRequest(http.MethodGet, "/payment-success", ""))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}
