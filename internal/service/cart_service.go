package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/fiestaliquor/storefront/internal/cache"
	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
)

// CartService reads and writes a user's server-side cart. Reads go through
// the cache; concurrent misses for the same user are collapsed with
// singleflight so only one hits the data file.
type CartService struct {
	users  repository.UserRepository
	cache  cache.CartCache
	group  singleflight.Group
	logger *slog.Logger
}

func NewCartService(users repository.UserRepository, cartCache cache.CartCache, logger *slog.Logger) *CartService {
	return &CartService{
		users:  users,
		cache:  cartCache,
		logger: logger,
	}
}

// GetCart returns the user's stored cart, empty slice if none.
func (s *CartService) GetCart(ctx context.Context, userID int64) ([]models.CartItem, error) {
	if s.cache != nil {
		items, err := s.cache.Get(ctx, userID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache read failed", "user_id", userID, "error", err)
		}
	}

	v, err, _ := s.group.Do(fmt.Sprintf("cart:%d", userID), func() (interface{}, error) {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		items := user.Cart
		if items == nil {
			items = []models.CartItem{}
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, userID, items); err != nil {
				s.logger.Warn("cart cache write failed", "user_id", userID, "error", err)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.CartItem), nil
}

// SyncCart replaces the user's stored cart with the client snapshot.
// The payload is sanitized first: malformed lines are dropped and duplicate
// product/size pairs are summed, so a noisy client cannot corrupt the store.
func (s *CartService) SyncCart(ctx context.Context, userID int64, raw []cart.RawItem) ([]models.CartItem, error) {
	items := cart.Sanitize(raw)

	if _, err := s.users.UpdateCart(ctx, userID, items); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, items); err != nil {
			s.logger.Warn("cart cache write failed", "user_id", userID, "error", err)
		}
	}
	return items, nil
}

// MergeOnAuth folds a cart carried over from before login into the user's
// stored cart. The stored cart wins ties on ordering; quantities take the
// larger of the two sides so a re-login never shrinks a cart.
func (s *CartService) MergeOnAuth(ctx context.Context, userID int64, incoming []models.CartItem) ([]models.CartItem, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cart.Empty(user.Cart, incoming) {
		return []models.CartItem{}, nil
	}

	merged := cart.Merge(user.Cart, incoming)
	if _, err := s.users.UpdateCart(ctx, userID, merged); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, merged); err != nil {
			s.logger.Warn("cart cache write failed", "user_id", userID, "error", err)
		}
	}
	return merged, nil
}
