package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/notify"
	"github.com/fiestaliquor/storefront/internal/payment"
	"github.com/fiestaliquor/storefront/internal/pricing"
	"github.com/fiestaliquor/storefront/internal/promo"
	"github.com/fiestaliquor/storefront/internal/repository"
)

var (
	// ErrEmptyOrder is returned when no valid line survives catalog lookup.
	ErrEmptyOrder = errors.New("order has no valid items")

	// ErrOrderFinal is returned when cancelling a delivered, completed or
	// already-cancelled order.
	ErrOrderFinal = errors.New("order can no longer be cancelled")

	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrNoMatchingOrder is returned when a payment event cannot be
	// attached to any order.
	ErrNoMatchingOrder = errors.New("no order matches payment event")

	// ErrAmbiguousOrder is returned when two unconfirmed orders for the
	// same email share the newest timestamp. Attaching to either would be
	// a guess, so the event is rejected for manual review.
	ErrAmbiguousOrder = errors.New("multiple orders match payment event")
)

// conflictRetries bounds re-reads after an optimistic concurrency failure.
const conflictRetries = 3

// OrderService creates orders with server-recomputed totals and drives the
// order lifecycle: status changes, cancellation, receipt confirmation,
// refunds and payment-gateway reconciliation.
type OrderService struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	products repository.ProductRepository
	promos   *promo.Validator
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	products repository.ProductRepository,
	promos *promo.Validator,
	notifier notify.Notifier,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		products: products,
		promos:   promos,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrderInput is the customer-supplied part of an order. Prices are
// deliberately absent: every amount is recomputed from the catalog.
type CreateOrderInput struct {
	Customer             models.Customer
	Items                []models.CartItem
	OrderType            string
	PaymentMethod        string
	PromoCode            string
	DeliveryTimeEstimate string
	GatewaySessionID     string
	UserID               int64 // 0 for guest checkout
}

// CreateOrder prices the cart against the catalog, applies and redeems the
// promo code if present, and persists the order in pending state. Items
// referencing unknown products are dropped.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	var (
		orderItems []models.OrderItem
		subtotal   float64
	)
	for _, item := range in.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				s.logger.Warn("dropping unknown product from order", "product_id", item.ProductID)
				continue
			}
			return nil, err
		}
		price := product.SizePrice(item.Size)
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Size:      item.Size,
		})
		subtotal += price * float64(item.Quantity)
	}
	if len(orderItems) == 0 {
		return nil, ErrEmptyOrder
	}
	subtotal = pricing.Round2(subtotal)

	discount := 0.0
	if in.PromoCode != "" {
		result, err := s.promos.Validate(ctx, in.Customer.Email, in.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		if _, err := s.promos.Redeem(ctx, in.Customer.Email, in.PromoCode); err != nil {
			return nil, err
		}
		discount = result.Discount
	}

	delivery := in.OrderType == models.OrderTypeDelivery
	totals := pricing.ComputeTotals(subtotal, delivery, discount)

	order := &models.Order{
		Customer:         in.Customer,
		Items:            orderItems,
		Subtotal:         totals.Subtotal,
		DeliveryFee:      totals.DeliveryFee,
		Tax:              totals.Tax,
		ProcessingFee:    totals.ProcessingFee,
		Total:            totals.Total,
		GatewaySessionID: in.GatewaySessionID,
		OrderType:        in.OrderType,
		PaymentMethod:    in.PaymentMethod,
		OrderDate:        s.now(),
		Status:           models.StatusPending,
	}
	if delivery {
		order.DeliveryTimeEstimate = in.DeliveryTimeEstimate
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if in.UserID > 0 {
		if err := s.users.AppendOrder(ctx, in.UserID, order.ID); err != nil {
			s.logger.Warn("linking order to user failed", "user_id", in.UserID, "order_id", order.ID, "error", err)
		}
	}

	go s.notifier.NewOrder(context.WithoutCancel(ctx), order.ID, order.Customer.Name, order.Total)

	return order, nil
}

// GetOrder returns a single order by id.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns all orders, for the admin dashboard.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

// CancelOrder cancels an order on the customer's behalf. A 10% fee on the
// item subtotal is retained; the rest is recorded as the refund amount.
func (s *OrderService) CancelOrder(ctx context.Context, id int64, cancelledBy string) (*models.Order, error) {
	order, err := s.mutate(ctx, id, func(order *models.Order) error {
		if !order.Status.Cancellable() {
			return ErrOrderFinal
		}
		fee, refund := pricing.CancellationFee(order.Subtotal)
		now := s.now()
		order.StatusHistory = append(order.StatusHistory, models.StatusChange{
			From:      order.Status,
			To:        models.StatusCancelled,
			ChangedBy: cancelledBy,
			ChangedAt: now,
		})
		order.Status = models.StatusCancelled
		order.CancelledBy = cancelledBy
		order.CancelledAt = &now
		order.CancellationFee = fee
		order.RefundAmount = refund
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.OrderCancelled(context.WithoutCancel(ctx), order.ID, order.CancellationFee)

	return order, nil
}

// UpdateStatus moves an order to a new lifecycle state and records the
// transition in the status history.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, to models.OrderStatus, changedBy, notes string) (*models.Order, error) {
	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}
	order, err := s.mutate(ctx, id, func(order *models.Order) error {
		now := s.now()
		order.StatusHistory = append(order.StatusHistory, models.StatusChange{
			From:      order.Status,
			To:        to,
			ChangedBy: changedBy,
			ChangedAt: now,
			Notes:     notes,
		})
		order.Status = to
		order.UpdatedAt = &now
		order.UpdatedBy = changedBy
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Let the customer know when the order is ready or on its way.
	switch to {
	case models.StatusReady:
		go s.notifier.OrderStatus(context.WithoutCancel(ctx), order.ID, order.Customer.Phone,
			"your order is ready for pickup")
	case models.StatusOutForDelivery:
		go s.notifier.OrderStatus(context.WithoutCancel(ctx), order.ID, order.Customer.Phone,
			"your order is out for delivery")
	}
	return order, nil
}

// ConfirmReceived marks an order as confirmed by the customer. A delivered
// order is also advanced to completed.
func (s *OrderService) ConfirmReceived(ctx context.Context, id int64, confirmedBy string) (*models.Order, error) {
	return s.mutate(ctx, id, func(order *models.Order) error {
		now := s.now()
		order.CustomerConfirmed = true
		order.CustomerConfirmedAt = &now
		if order.Status == models.StatusDelivered {
			order.StatusHistory = append(order.StatusHistory, models.StatusChange{
				From:      order.Status,
				To:        models.StatusCompleted,
				ChangedBy: confirmedBy,
				ChangedAt: now,
			})
			order.Status = models.StatusCompleted
		}
		return nil
	})
}

// IssueRefund appends a refund record to an order. Amounts are not validated
// against the total; partial refunds over several events are allowed.
func (s *OrderService) IssueRefund(ctx context.Context, id int64, amount float64, reason, issuedBy string) (*models.Order, error) {
	refundType := "partial"
	return s.mutate(ctx, id, func(order *models.Order) error {
		if amount >= order.Total {
			refundType = "full"
		}
		order.Refunds = append(order.Refunds, models.Refund{
			Amount:   pricing.Round2(amount),
			Reason:   reason,
			Type:     refundType,
			IssuedBy: issuedBy,
			IssuedAt: s.now(),
		})
		return nil
	})
}

// AttachGatewayTotal reconciles a payment confirmation with its order.
// Matching is by session id first. When the order was created without a
// session id, it falls back to the newest unconfirmed pending order for the
// payer's email; an exact timestamp tie between two candidates is rejected
// as ambiguous rather than guessed at. The confirmed charge overwrites the
// order total exactly once.
func (s *OrderService) AttachGatewayTotal(ctx context.Context, event *payment.Event) error {
	if event.Type != payment.EventCheckoutCompleted {
		return nil
	}

	order, err := s.orders.GetBySessionID(ctx, event.SessionID)
	if err == nil {
		if order.GatewayTotal != nil {
			s.logger.Info("duplicate payment event ignored", "order_id", order.ID, "session_id", event.SessionID)
			return nil
		}
		return s.confirmPayment(ctx, order.ID, event)
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		return err
	}

	if event.CustomerEmail == "" {
		return ErrNoMatchingOrder
	}
	candidates, err := s.orders.FindUnconfirmed(ctx, event.CustomerEmail)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return ErrNoMatchingOrder
	}
	if len(candidates) > 1 && candidates[0].OrderDate.Equal(candidates[1].OrderDate) {
		s.logger.Error("ambiguous payment event",
			"email", event.CustomerEmail,
			"order_ids", []int64{candidates[0].ID, candidates[1].ID})
		return ErrAmbiguousOrder
	}
	return s.confirmPayment(ctx, candidates[0].ID, event)
}

func (s *OrderService) confirmPayment(ctx context.Context, orderID int64, event *payment.Event) error {
	order, err := s.mutate(ctx, orderID, func(order *models.Order) error {
		if order.GatewayTotal != nil {
			return nil
		}
		amount := event.AmountTotal
		order.GatewayTotal = &amount
		order.Total = amount
		if order.GatewaySessionID == "" {
			order.GatewaySessionID = event.SessionID
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("payment confirmed", "order_id", order.ID, "amount", event.AmountTotal)
	return nil
}

// mutate applies fn to a fresh copy of the order and writes it back,
// retrying on optimistic concurrency conflicts.
func (s *OrderService) mutate(ctx context.Context, id int64, fn func(*models.Order) error) (*models.Order, error) {
	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		order, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(order); err != nil {
			return nil, err
		}
		if err := s.orders.Update(ctx, order); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return order, nil
	}
	return nil, lastErr
}
