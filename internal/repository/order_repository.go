package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fiestaliquor/storefront/internal/models"
)

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	// FindUnconfirmed returns the orders for the given email that are still
	// pending and have no gateway-confirmed total, newest first. Used as the
	// degraded-mode fallback when a webhook carries no matching session id.
	FindUnconfirmed(ctx context.Context, email string) ([]models.Order, error)
}

// FileOrderRepository implements OrderRepository over the orders JSON file.
type FileOrderRepository struct {
	file *jsonFile[models.Order]
}

// NewFileOrderRepository creates an order repository backed by
// <dir>/orders.json.
func NewFileOrderRepository(dir string) *FileOrderRepository {
	return &FileOrderRepository{file: newJSONFile[models.Order](dir, "orders.json")}
}

// List returns all orders.
func (r *FileOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := r.file.view(func(orders []models.Order) error {
		out = append(out, orders...)
		return nil
	})
	return out, err
}

// GetByID returns an order by id.
func (r *FileOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var found *models.Order
	err := r.file.view(func(orders []models.Order) error {
		for i := range orders {
			if orders[i].ID == id {
				o := orders[i]
				found = &o
				return nil
			}
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Create stores a new order, assigning the next id.
func (r *FileOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.file.update(func(orders []models.Order) ([]models.Order, error) {
		var maxID int64
		for i := range orders {
			if orders[i].ID > maxID {
				maxID = orders[i].ID
			}
		}
		order.ID = maxID + 1
		order.Version = 1
		if order.OrderDate.IsZero() {
			order.OrderDate = time.Now().UTC()
		}
		return append(orders, *order), nil
	})
}

// Update persists a modified order. The stored version must match the one
// the caller read, otherwise ErrVersionConflict is returned.
func (r *FileOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.file.update(func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID == order.ID {
				if orders[i].Version != order.Version {
					return nil, ErrVersionConflict
				}
				order.Version++
				orders[i] = *order
				return orders, nil
			}
		}
		return nil, ErrOrderNotFound
	})
}

// GetBySessionID returns the order linked to a gateway checkout session.
func (r *FileOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, ErrOrderNotFound
	}
	var found *models.Order
	err := r.file.view(func(orders []models.Order) error {
		for i := range orders {
			if orders[i].GatewaySessionID == sessionID {
				o := orders[i]
				found = &o
				return nil
			}
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindUnconfirmed implements the webhook fallback query.
func (r *FileOrderRepository) FindUnconfirmed(ctx context.Context, email string) ([]models.Order, error) {
	var out []models.Order
	err := r.file.view(func(orders []models.Order) error {
		for i := range orders {
			o := orders[i]
			if !strings.EqualFold(o.Customer.Email, email) {
				continue
			}
			if o.Status != models.StatusPending {
				continue
			}
			if o.GatewayTotal != nil {
				continue
			}
			out = append(out, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out, nil
}
