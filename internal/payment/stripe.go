package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implements Gateway on the Stripe hosted checkout API.
// Session creation runs through a circuit breaker so a processor outage
// fails fast instead of tying up request handlers.
type StripeGateway struct {
	webhookSecret string
	siteURL       string
	logger        *slog.Logger
	breaker       *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

// NewStripeGateway configures the global Stripe client key and returns a
// gateway redirecting back to siteURL after payment.
func NewStripeGateway(secretKey, webhookSecret, siteURL string, logger *slog.Logger) *StripeGateway {
	stripe.Key = secretKey

	settings := gobreaker.Settings{
		Name:    "stripe-checkout",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &StripeGateway{
		webhookSecret: webhookSecret,
		siteURL:       siteURL,
		logger:        logger,
		breaker:       gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](settings),
	}
}

// CreateCheckoutSession builds a hosted checkout session from the given
// display lines. Prices are converted to cents here; callers pass dollars.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(toCents(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = g.siteURL + "/order-confirmation?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.siteURL + "/checkout"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return session.New(params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn("checkout session rejected by circuit breaker", "error", err)
			return nil, ErrGatewayUnavailable
		}
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}

	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the signature and decodes the event. Unknown event
// types are returned with their type set so callers can acknowledge them.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	out := &Event{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding checkout session: %w", err)
	}

	out.SessionID = sess.ID
	out.AmountTotal = float64(sess.AmountTotal) / 100
	if sess.CustomerDetails != nil {
		out.CustomerEmail = sess.CustomerDetails.Email
	}
	if out.CustomerEmail == "" {
		out.CustomerEmail = sess.CustomerEmail
	}
	return out, nil
}

func toCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
