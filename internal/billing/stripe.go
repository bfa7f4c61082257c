// Package billing provides Stripe billing integration for the premium
// subscription.
package billing

import (
	"fmt"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for the
	// premium subscription. Returns the checkout URL to redirect the
	// user to.
	CreateCheckoutSession(email, successURL, cancelURL string) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	priceID       string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls, the webhookSecret
// verifies incoming webhook signatures, and the priceID is the single
// premium subscription price.
func NewStripeService(secretKey, webhookSecret, priceID string) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret: webhookSecret,
		priceID:       priceID,
	}
}

func (s *stripeService) CreateCheckoutSession(email, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		CustomerEmail: stripe.String(email),
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}
