package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiestaliquor/storefront/internal/models"
)

func TestFileUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFileUserRepository(t.TempDir())

	user := &models.User{
		Name:  "Amber",
		Email: "amber@example.com",
		Role:  models.RoleCustomer,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, int64(1), user.ID)

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.Create(ctx, &models.User{Email: "AMBER@example.com"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("lookup by email is case-insensitive", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "Amber@Example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("cart replaced and survives reload", func(t *testing.T) {
		items := []models.CartItem{{ProductID: 3, Quantity: 2, Size: "750ml"}}
		updated, err := repo.UpdateCart(ctx, user.ID, items)
		require.NoError(t, err)
		assert.Equal(t, items, updated.Cart)

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, items, got.Cart)
	})

	t.Run("stale version rejected", func(t *testing.T) {
		fresh, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)

		stale := *fresh
		stale.Version = fresh.Version - 1
		stale.Name = "Someone Else"
		assert.ErrorIs(t, repo.Update(ctx, &stale), ErrVersionConflict)

		fresh.Phone = "210-555-0101"
		assert.NoError(t, repo.Update(ctx, fresh))
	})
}

func TestFileOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFileOrderRepository(t.TempDir())

	mkOrder := func(email string, placed time.Time, sessionID string) *models.Order {
		o := &models.Order{
			Customer:  models.Customer{Email: email},
			Status:    models.StatusPending,
			OrderDate: placed,
			Subtotal:  42.00,
			Total:     47.14,
		}
		o.GatewaySessionID = sessionID
		require.NoError(t, repo.Create(ctx, o))
		return o
	}

	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	first := mkOrder("amber@example.com", base, "cs_test_1")
	second := mkOrder("amber@example.com", base.Add(5*time.Minute), "")
	mkOrder("dave@example.com", base.Add(time.Minute), "")

	t.Run("ids are sequential", func(t *testing.T) {
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("session id lookup", func(t *testing.T) {
		got, err := repo.GetBySessionID(ctx, "cs_test_1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		_, err = repo.GetBySessionID(ctx, "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("unconfirmed orders newest first", func(t *testing.T) {
		got, err := repo.FindUnconfirmed(ctx, "amber@example.com")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("confirmed totals excluded from fallback", func(t *testing.T) {
		confirmed, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		total := 47.14
		confirmed.GatewayTotal = &total
		require.NoError(t, repo.Update(ctx, confirmed))

		got, err := repo.FindUnconfirmed(ctx, "amber@example.com")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
	})
}

func TestFilePromoRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewFilePromoRepository(t.TempDir())

	promo := &models.PromoCode{
		Code:        "SAVE10",
		Type:        models.PromoTypePercentage,
		Value:       10,
		MaxDiscount: 5.00,
		Active:      true,
	}
	require.NoError(t, repo.Create(ctx, promo))

	t.Run("duplicate code rejected case-insensitively", func(t *testing.T) {
		err := repo.Create(ctx, &models.PromoCode{Code: "save10"})
		assert.ErrorIs(t, err, ErrCodeTaken)
	})

	t.Run("mark used tracks identity once", func(t *testing.T) {
		got, err := repo.MarkUsed(ctx, "save10", "amber@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, got.UsageCount)
		assert.True(t, got.UsedByUser("amber@example.com"))

		got, err = repo.MarkUsed(ctx, "SAVE10", "amber@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, got.UsageCount)
		assert.Len(t, got.UsedBy, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, promo.ID))
		_, err := repo.GetByCode(ctx, "SAVE10")
		assert.ErrorIs(t, err, ErrPromoNotFound)
	})
}
