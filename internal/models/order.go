package models

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusAccepted       OrderStatus = "accepted"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

// ValidStatuses lists every status an admin may set, in lifecycle order.
var ValidStatuses = []OrderStatus{
	StatusPending, StatusAccepted, StatusPreparing, StatusReady,
	StatusOutForDelivery, StatusDelivered, StatusCompleted, StatusCancelled,
}

// IsValid reports whether s is a known order status.
func (s OrderStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel an order in this
// state. Delivered, completed and already-cancelled orders are final.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusDelivered, StatusCompleted, StatusCancelled:
		return false
	}
	return true
}

// Customer holds the contact and delivery details captured at checkout.
type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

// OrderItem is one priced line of an order. Unlike CartItem it carries the
// unit price and display name fixed at order time.
type OrderItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
}

// StatusChange records one admin-driven status transition.
type StatusChange struct {
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedBy string      `json:"changedBy"`
	ChangedAt time.Time   `json:"changedAt"`
	Notes     string      `json:"notes,omitempty"`
}

// Refund is one admin-issued refund against an order. The refund list is
// append-only.
type Refund struct {
	Amount   float64   `json:"amount"`
	Reason   string    `json:"reason,omitempty"`
	Type     string    `json:"type"` // "full" or "partial"
	IssuedBy string    `json:"issuedBy"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Order is a confirmed order. The financial fields (Subtotal, Tax,
// ProcessingFee) are fixed at creation from the server-side recomputation;
// Total may be overwritten exactly once by the payment gateway's confirmed
// charge amount (GatewayTotal).
type Order struct {
	ID                   int64          `json:"id"`
	Customer             Customer       `json:"customer"`
	Items                []OrderItem    `json:"items"`
	Subtotal             float64        `json:"subtotal"`
	DeliveryFee          float64        `json:"deliveryFee"`
	Tax                  float64        `json:"tax"`
	ProcessingFee        float64        `json:"stripeFee"`
	Total                float64        `json:"total"`
	GatewayTotal         *float64       `json:"stripeTotal"`
	GatewaySessionID     string         `json:"stripeSessionId,omitempty"`
	OrderType            string         `json:"orderType"`
	PaymentMethod        string         `json:"paymentMethod"`
	DeliveryTimeEstimate string         `json:"deliveryTimeEstimate,omitempty"`
	OrderDate            time.Time      `json:"orderDate"`
	Status               OrderStatus    `json:"status"`
	StatusHistory        []StatusChange `json:"statusHistory,omitempty"`
	UpdatedAt            *time.Time     `json:"updatedAt,omitempty"`
	UpdatedBy            string         `json:"updatedBy,omitempty"`
	CancelledBy          string         `json:"cancelledBy,omitempty"`
	CancelledAt          *time.Time     `json:"cancelledAt,omitempty"`
	CancellationFee      float64        `json:"cancellationFee,omitempty"`
	RefundAmount         float64        `json:"refundAmount,omitempty"`
	CustomerConfirmed    bool           `json:"customerConfirmed,omitempty"`
	CustomerConfirmedAt  *time.Time     `json:"customerConfirmedAt,omitempty"`
	Refunds              []Refund       `json:"refunds,omitempty"`
	Version              int64          `json:"version"`
}

// OrderType values
const (
	OrderTypePickup   = "pickup"
	OrderTypeDelivery = "delivery"
)
