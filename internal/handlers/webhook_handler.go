package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fiestaliquor/storefront/internal/payment"
	"github.com/fiestaliquor/storefront/internal/service"
)

// maxWebhookBody bounds the payload read from the payment processor.
const maxWebhookBody = 1 << 16

// WebhookHandler receives payment processor callbacks and hands confirmed
// charges to the order reconciler.
type WebhookHandler struct {
	gateway payment.Gateway
	orders  *service.OrderService
	logger  *slog.Logger
}

func NewWebhookHandler(gateway payment.Gateway, orders *service.OrderService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, orders: orders, logger: logger}
}

// HandleStripe handles POST /webhook/stripe. Non-2xx responses make the
// processor retry delivery, so only conditions a retry could fix return
// errors; an ambiguous match never resolves itself and is answered 200
// after logging so it reaches manual review instead of a retry loop.
func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body", h.logger)
		return
	}

	event, err := h.gateway.ParseWebhook(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook rejected", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid webhook signature", h.logger)
		return
	}

	if err := h.orders.AttachGatewayTotal(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, service.ErrAmbiguousOrder):
			// Already logged at error level by the reconciler.
		case errors.Is(err, service.ErrNoMatchingOrder):
			// The order may still be in flight; a retry can succeed.
			h.logger.Warn("payment event with no matching order", "session_id", event.SessionID)
			WriteError(w, http.StatusNotFound, "No matching order", h.logger)
			return
		default:
			h.logger.Error("payment reconciliation failed", "session_id", event.SessionID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"received": true}, h.logger)
}
