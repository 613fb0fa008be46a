// Package payment bridges tuition applications to a hosted checkout provider.
//
// Checkout creates a provider session whose metadata names the application,
// the tuition post and the tutor. Reconcile turns a paid session into exactly
// one payment record and approves the application; it is driven either by
// the client returning to the success URL or by the provider's webhook.
package payment

import "context" // Request-scoped cancellation

// Metadata keys attached to every checkout session
const (
	MetaApplicationID = "applicationId"
	MetaTuitionID     = "tuitionId"
	MetaTutorEmail    = "tutorEmail"
)

// CheckoutRequest describes one hosted checkout for one application
type CheckoutRequest struct {
	AmountMinor   int64             // Price in minor currency units
	Currency      string            // ISO currency, lower-case
	ProductName   string            // Line item title
	ProductDetail string            // Line item description
	CustomerEmail string            // Prefilled payer email, optional
	SuccessURL    string            // Redirect after payment
	CancelURL     string            // Redirect when abandoned
	Metadata      map[string]string // Meta* keys
}

// Session is the provider's view of a checkout session
type Session struct {
	ID              string            // Session id, also the payment's idempotency key
	URL             string            // Hosted checkout page
	PaymentStatus   string            // "paid" once funds are captured
	PaymentIntentID string            // Recorded as the transaction id
	AmountTotal     int64             // Minor units
	Currency        string            // ISO currency, lower-case
	CustomerEmail   string            // Payer
	Metadata        map[string]string // Meta* keys set at checkout
}

// WebhookEvent is a verified provider notification
type WebhookEvent struct {
	Type      string // Provider event type
	SessionID string // Set for checkout session events
}

// EventCheckoutCompleted is the webhook type that triggers reconciliation
const EventCheckoutCompleted = "checkout.session.completed"

// Provider is the hosted checkout collaborator
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}
