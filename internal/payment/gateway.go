// Package payment abstracts the card processor behind a small gateway
// interface so services and handlers never touch processor types directly.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable is returned when the processor cannot be
	// reached, including while the circuit breaker is open.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidSignature is returned when a webhook payload fails
	// signature verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// CheckoutItem is one display line sent to the processor's hosted page.
// Price is in dollars; the gateway converts to minor units.
type CheckoutItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// SessionRequest is everything needed to open a hosted checkout page.
// SuccessURL/CancelURL may be empty; the gateway falls back to the
// configured site URL.
type SessionRequest struct {
	Email      string
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

// Session is a created hosted-checkout session.
type Session struct {
	ID  string
	URL string
}

// EventCheckoutCompleted is the only webhook event type the reconciler
// acts on; all others are acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

// Event is a verified, decoded webhook notification.
type Event struct {
	Type          string
	SessionID     string
	CustomerEmail string
	AmountTotal   float64 // dollars
}

// Gateway creates hosted checkout sessions and verifies webhook callbacks.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
