package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fiestaliquor/storefront/internal/payment"
)

// CheckoutHandler creates hosted payment sessions from the line items the
// client assembled (product lines plus fee/tax lines). The charged amount is
// reconciled against the order's server-computed total by the webhook
// handler, so a tampered line item can shift the provisional display, never
// the recorded totals.
type CheckoutHandler struct {
	gateway payment.Gateway
	logger  *slog.Logger
}

func NewCheckoutHandler(gateway payment.Gateway, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{gateway: gateway, logger: logger}
}

type checkoutRequest struct {
	Items      []payment.CheckoutItem `json:"items"`
	SuccessURL string                 `json:"successUrl"`
	CancelURL  string                 `json:"cancelUrl"`
	Email      string                 `json:"customerEmail"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Create handles POST /create-checkout-session
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if len(req.Items) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one line item is required", h.logger)
		return
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" || item.Price < 0 || item.Quantity < 1 {
			WriteError(w, http.StatusBadRequest, "Invalid line item", h.logger)
			return
		}
	}

	session, err := h.gateway.CreateCheckoutSession(r.Context(), payment.SessionRequest{
		Email:      strings.TrimSpace(strings.ToLower(req.Email)),
		Items:      req.Items,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			WriteError(w, http.StatusServiceUnavailable, "Payment processing is temporarily unavailable", h.logger)
			return
		}
		h.logger.Error("failed to create checkout session", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, checkoutResponse{ID: session.ID, URL: session.URL}, h.logger)
}
