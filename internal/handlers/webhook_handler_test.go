package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fiestaliquor/storefront/internal/payment"
	"github.com/fiestaliquor/storefront/internal/service"
)

func webhookRouter(env *testEnv, gw payment.Gateway) *chi.Mux {
	h := NewWebhookHandler(gw, env.orderSvc, env.logger)
	r := chi.NewRouter()
	r.Post("/webhook/stripe", h.HandleStripe)
	return r
}

func TestWebhookConfirmsPayment(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.orderSvc.CreateOrder(context.Background(), service.CreateOrderInput{
		Customer:         testCustomer(),
		Items:            testItems(),
		OrderType:        "pickup",
		GatewaySessionID: "cs_test_123",
	})
	if err != nil {
		t.Fatalf("creating order: %v", err)
	}

	gw := &fakeGateway{event: &payment.Event{
		Type:          payment.EventCheckoutCompleted,
		SessionID:     "cs_test_123",
		CustomerEmail: "alice@example.com",
		AmountTotal:   47.14,
	}}
	r := webhookRouter(env, gw)

	w := doJSON(t, r, http.MethodPost, "/webhook/stripe", "", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := env.orders.GetByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("loading order: %v", err)
	}
	if stored.GatewayTotal == nil || *stored.GatewayTotal != 47.14 {
		t.Errorf("expected confirmed total 47.14, got %+v", stored.GatewayTotal)
	}
}

func TestWebhookBadSignature(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env, &fakeGateway{parseErr: payment.ErrInvalidSignature})

	w := doJSON(t, r, http.MethodPost, "/webhook/stripe", "", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestWebhookNoMatchingOrder(t *testing.T) {
	env := newTestEnv(t)
	gw := &fakeGateway{event: &payment.Event{
		Type:          payment.EventCheckoutCompleted,
		SessionID:     "cs_test_999",
		CustomerEmail: "nobody@example.com",
		AmountTotal:   10.00,
	}}
	r := webhookRouter(env, gw)

	// Non-2xx so the processor retries once the order write lands.
	w := doJSON(t, r, http.MethodPost, "/webhook/stripe", "", `{}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env, &fakeGateway{event: &payment.Event{Type: "invoice.paid"}})

	w := doJSON(t, r, http.MethodPost, "/webhook/stripe", "", `{}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}
