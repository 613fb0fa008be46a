package payment

import (
	"context"       // Request-scoped cancellation
	"encoding/json" // Event payload decoding
	"errors"        // Sentinel errors
	"fmt"           // Error wrapping

	"github.com/stripe/stripe-go/v76"         // Stripe API types
	"github.com/stripe/stripe-go/v76/client"  // Stripe API client
	"github.com/stripe/stripe-go/v76/webhook" // Webhook signature verification
)

// ErrWebhookDisabled is returned when no signing secret is configured
var ErrWebhookDisabled = errors.New("stripe webhook secret not configured")

// StripeProvider implements Provider with Stripe Checkout
type StripeProvider struct {
	api           *client.API // Client bound to the secret key
	webhookSecret string      // Signing secret, empty disables webhooks
}

// NewStripeProvider builds a client bound to secretKey
func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil) // Default backends
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

// CreateCheckoutSession opens a one-item payment-mode session
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.ProductName),
					Description: stripe.String(req.ProductDetail),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx                          // Cancel with the request
	s, err := p.api.CheckoutSessions.New(params) // Create the session
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(s), nil
}

// RetrieveSession fetches a session by id
func (p *StripeProvider) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session %s: %w", id, err)
	}
	return fromStripe(s), nil
}

// ParseWebhookEvent verifies the Stripe-Signature header and decodes the event
func (p *StripeProvider) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, ErrWebhookDisabled
	}
	// Account API version may differ from the library's pinned one
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}
	ev := &WebhookEvent{Type: string(event.Type)}
	if ev.Type == EventCheckoutCompleted && event.Data != nil {
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		ev.SessionID = s.ID
	}
	return ev, nil
}

// fromStripe copies the fields the bridge reads off a Stripe session
func fromStripe(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	// Sessions opened without customer_email collect it at checkout
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}
