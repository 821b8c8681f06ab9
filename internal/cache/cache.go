package cache

import (
	"context"
	"errors"

	"github.com/fiestaliquor/storefront/internal/models"
)

// CartCache is a read-through cache in front of the user store's cart
// records. Consumers define this interface, not the Redis implementation.
type CartCache interface {
	Get(ctx context.Context, userID int64) ([]models.CartItem, error)
	Set(ctx context.Context, userID int64, items []models.CartItem) error
	Delete(ctx context.Context, userID int64) error
}

var ErrCacheMiss = errors.New("cache miss")
