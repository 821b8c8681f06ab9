package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiestaliquor/storefront/internal/cache"
	"github.com/fiestaliquor/storefront/internal/cart"
	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
)

type memCache struct {
	data map[int64][]models.CartItem
	hits int
}

func newMemCache() *memCache {
	return &memCache{data: map[int64][]models.CartItem{}}
}

func (m *memCache) Get(ctx context.Context, userID int64) ([]models.CartItem, error) {
	items, ok := m.data[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	m.hits++
	return items, nil
}

func (m *memCache) Set(ctx context.Context, userID int64, items []models.CartItem) error {
	m.data[userID] = items
	return nil
}

func (m *memCache) Delete(ctx context.Context, userID int64) error {
	delete(m.data, userID)
	return nil
}

func newTestCartService(t *testing.T) (*CartService, *repository.FileUserRepository, *memCache) {
	t.Helper()
	users := repository.NewFileUserRepository(t.TempDir())
	cc := newMemCache()
	return NewCartService(users, cc, testLogger()), users, cc
}

func seedUser(t *testing.T, users *repository.FileUserRepository, items []models.CartItem) *models.User {
	t.Helper()
	user := &models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleCustomer, Cart: items}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestGetCartPopulatesCache(t *testing.T) {
	svc, users, cc := newTestCartService(t)
	ctx := context.Background()

	user := seedUser(t, users, []models.CartItem{{ProductID: 1, Quantity: 2}})

	items, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{{ProductID: 1, Quantity: 2}}, items)
	assert.Equal(t, 0, cc.hits)

	_, err = svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cc.hits)
}

func TestGetCartUnknownUser(t *testing.T) {
	svc, _, _ := newTestCartService(t)

	_, err := svc.GetCart(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestSyncCartSanitizesPayload(t *testing.T) {
	svc, users, cc := newTestCartService(t)
	ctx := context.Background()

	user := seedUser(t, users, nil)

	items, err := svc.SyncCart(ctx, user.ID, []cart.RawItem{
		{ProductID: 1, Quantity: 2, Size: "750ml"},
		{ProductID: 1, Quantity: 1, Size: "750ml"}, // dup, summed
		{ProductID: 0, Quantity: 5},                // invalid id, dropped
		{ProductID: 3, Quantity: -1},               // invalid quantity, dropped
	})
	require.NoError(t, err)

	want := []models.CartItem{{ProductID: 1, Quantity: 3, Size: "750ml"}}
	assert.Equal(t, want, items)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.Cart)
	assert.Equal(t, want, cc.data[user.ID])
}

func TestMergeOnAuthKeepsLargerQuantity(t *testing.T) {
	svc, users, _ := newTestCartService(t)
	ctx := context.Background()

	user := seedUser(t, users, []models.CartItem{
		{ProductID: 1, Quantity: 3, Size: "750ml"},
		{ProductID: 2, Quantity: 1},
	})

	merged, err := svc.MergeOnAuth(ctx, user.ID, []models.CartItem{
		{ProductID: 1, Quantity: 1, Size: "750ml"}, // server copy larger, wins
		{ProductID: 5, Quantity: 2},                // only on client, appended
	})
	require.NoError(t, err)

	assert.Equal(t, []models.CartItem{
		{ProductID: 1, Quantity: 3, Size: "750ml"},
		{ProductID: 2, Quantity: 1},
		{ProductID: 5, Quantity: 2},
	}, merged)
}

func TestMergeOnAuthAllEmpty(t *testing.T) {
	svc, users, _ := newTestCartService(t)
	ctx := context.Background()

	user := seedUser(t, users, nil)

	merged, err := svc.MergeOnAuth(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, merged)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version) // no write happened
}
