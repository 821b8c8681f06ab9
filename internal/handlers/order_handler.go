package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/middleware"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/promo"
	"github.com/fiestaliquor/storefront/internal/repository"
	"github.com/fiestaliquor/storefront/internal/service"
)

// OrderHandler serves order creation and the customer-facing lifecycle
// endpoints plus the admin order management surface.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

type createOrderRequest struct {
	Customer             models.Customer `json:"customer"`
	Items                []cart.RawItem  `json:"items"`
	OrderType            string          `json:"orderType"`
	PaymentMethod        string          `json:"paymentMethod"`
	PromoCode            string          `json:"promoCode"`
	DeliveryTimeEstimate string          `json:"deliveryTimeEstimate"`
	GatewaySessionID     string          `json:"stripeSessionId"`
}

// Create handles POST /api/orders. The order is linked to the
// authenticated account.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	req.Customer.Email = strings.TrimSpace(strings.ToLower(req.Customer.Email))
	if req.Customer.Name == "" || req.Customer.Email == "" {
		WriteError(w, http.StatusBadRequest, "Customer name and email are required", h.logger)
		return
	}
	if req.OrderType != models.OrderTypePickup && req.OrderType != models.OrderTypeDelivery {
		WriteError(w, http.StatusBadRequest, "Order type must be pickup or delivery", h.logger)
		return
	}

	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderInput{
		Customer:             req.Customer,
		Items:                cart.Sanitize(req.Items),
		OrderType:            req.OrderType,
		PaymentMethod:        req.PaymentMethod,
		PromoCode:            req.PromoCode,
		DeliveryTimeEstimate: req.DeliveryTimeEstimate,
		GatewaySessionID:     req.GatewaySessionID,
		UserID:               claims.UserID,
	})
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, order, h.logger)
}

// Get handles GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, order, h.logger)
}

// Cancel handles POST /api/orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	cancelled, err := h.orders.CancelOrder(r.Context(), order.ID, order.Customer.Email)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"order":           cancelled,
		"cancellationFee": cancelled.CancellationFee,
		"refundAmount":    cancelled.RefundAmount,
	}, h.logger)
}

// ConfirmReceived handles POST /api/orders/{id}/confirm-received
func (h *OrderHandler) ConfirmReceived(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}

	confirmed, err := h.orders.ConfirmReceived(r.Context(), order.ID, order.Customer.Email)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, confirmed, h.logger)
}

// List handles GET /api/admin/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, orders, h.logger)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatus handles PUT /api/orders/{id}/status (admin only)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	updated, err := h.orders.UpdateStatus(r.Context(), id, models.OrderStatus(req.Status), claims.Identity(), req.Notes)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated, h.logger)
}

type refundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Refund handles POST /api/admin/orders/{id}/refund
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}
	if req.Amount <= 0 {
		WriteError(w, http.StatusBadRequest, "Refund amount must be positive", h.logger)
		return
	}

	claims, _ := middleware.ClaimsFrom(r.Context())
	updated, err := h.orders.IssueRefund(r.Context(), id, req.Amount, req.Reason, claims.Identity())
	if err != nil {
		h.writeOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated, h.logger)
}

func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid order ID", h.logger)
		return 0, false
	}
	return id, true
}

// ownedOrder loads the order and enforces ownership: admins see everything,
// customers only orders placed with their own email.
func (h *OrderHandler) ownedOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, ok := h.orderID(w, r)
	if !ok {
		return nil, false
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeOrderError(w, err)
		return nil, false
	}

	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required", h.logger)
		return nil, false
	}
	if !claims.IsAdmin() && !strings.EqualFold(claims.Email, order.Customer.Email) {
		WriteError(w, http.StatusForbidden, "You do not have access to this order", h.logger)
		return nil, false
	}
	return order, true
}

func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error) {
	var minErr *promo.MinOrderError
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "Order not found", h.logger)
	case errors.Is(err, service.ErrEmptyOrder):
		WriteError(w, http.StatusBadRequest, "Order contains no valid items", h.logger)
	case errors.Is(err, service.ErrOrderFinal):
		WriteError(w, http.StatusConflict, "This order can no longer be cancelled", h.logger)
	case errors.Is(err, service.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, "Invalid order status", h.logger)
	case errors.Is(err, promo.ErrNotFound):
		WriteError(w, http.StatusBadRequest, "Invalid promo code", h.logger)
	case errors.As(err, &minErr),
		errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrUsageLimit),
		errors.Is(err, promo.ErrAlreadyUsed):
		WriteError(w, http.StatusBadRequest, capitalize(err.Error()), h.logger)
	default:
		h.logger.Error("order operation failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
	}
}
