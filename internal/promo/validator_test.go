package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/repository"
)

func newTestValidator(t *testing.T, promos ...models.PromoCode) *Validator {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewFilePromoRepository(t.TempDir())
	for i := range promos {
		if err := repo.Create(ctx, &promos[i]); err != nil {
			t.Fatalf("seed promo: %v", err)
		}
	}
	v := NewValidator(repo)
	if err := v.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return v
}

func TestValidate(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	promos := []models.PromoCode{
		{Code: "HALFOFF", Type: models.PromoTypePercentage, Value: 50, MaxDiscount: 5.00, Active: true},
		{Code: "TENBUCKS", Type: models.PromoTypeFixed, Value: 10, Active: true},
		{Code: "BIGSPENDER", Type: models.PromoTypePercentage, Value: 10, MinOrder: 50, Active: true},
		{Code: "RETIRED", Type: models.PromoTypeFixed, Value: 5, Active: false},
		{Code: "BYGONE", Type: models.PromoTypeFixed, Value: 5, Active: true, ExpiresAt: &past},
		{Code: "FRESH", Type: models.PromoTypeFixed, Value: 5, Active: true, ExpiresAt: &future},
		{Code: "CROWDED", Type: models.PromoTypeFixed, Value: 5, Active: true, UsageLimit: 1, UsageCount: 1},
		{Code: "ONESHOT", Type: models.PromoTypeFixed, Value: 5, Active: true, UsedBy: []string{"amber@example.com"}},
	}

	tests := []struct {
		name         string
		code         string
		user         string
		orderTotal   float64
		wantDiscount float64
		wantErr      error
	}{
		{
			name:       "percentage discount capped at maxDiscount",
			code:       "HALFOFF",
			orderTotal: 40.00,
			// 50% of 40 is 20, capped at 5
			wantDiscount: 5.00,
		},
		{
			name:         "percentage under the cap",
			code:         "HALFOFF",
			orderTotal:   8.00,
			wantDiscount: 4.00,
		},
		{
			name:         "fixed discount",
			code:         "TENBUCKS",
			orderTotal:   40.00,
			wantDiscount: 10.00,
		},
		{
			name:         "case-insensitive lookup",
			code:         "tenbucks",
			orderTotal:   40.00,
			wantDiscount: 10.00,
		},
		{
			name:       "unknown code",
			code:       "NOSUCHCODE",
			orderTotal: 40.00,
			wantErr:    ErrNotFound,
		},
		{
			name:       "inactive code",
			code:       "RETIRED",
			orderTotal: 40.00,
			wantErr:    ErrInactive,
		},
		{
			name:       "expired code",
			code:       "BYGONE",
			orderTotal: 40.00,
			wantErr:    ErrExpired,
		},
		{
			name:         "unexpired code passes",
			code:         "FRESH",
			orderTotal:   40.00,
			wantDiscount: 5.00,
		},
		{
			name:       "usage limit reached",
			code:       "CROWDED",
			orderTotal: 40.00,
			wantErr:    ErrUsageLimit,
		},
		{
			name:       "already redeemed by this account",
			code:       "ONESHOT",
			user:       "amber@example.com",
			orderTotal: 40.00,
			wantErr:    ErrAlreadyUsed,
		},
		{
			name:         "other accounts may still redeem",
			code:         "ONESHOT",
			user:         "dave@example.com",
			orderTotal:   40.00,
			wantDiscount: 5.00,
		},
	}

	v := newTestValidator(t, promos...)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(context.Background(), tt.user, tt.code, tt.orderTotal)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if got.Discount != tt.wantDiscount {
				t.Errorf("Discount = %v, want %v", got.Discount, tt.wantDiscount)
			}
		})
	}
}

func TestValidateMinOrder(t *testing.T) {
	v := newTestValidator(t, models.PromoCode{
		Code: "BIGSPENDER", Type: models.PromoTypePercentage, Value: 10, MinOrder: 50, Active: true,
	})

	_, err := v.Validate(context.Background(), "", "BIGSPENDER", 30.00)
	var minErr *MinOrderError
	if !errors.As(err, &minErr) {
		t.Fatalf("error = %v, want MinOrderError", err)
	}
	if minErr.Min != 50 {
		t.Errorf("Min = %v, want 50", minErr.Min)
	}

	got, err := v.Validate(context.Background(), "", "BIGSPENDER", 60.00)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}
	if got.Discount != 6.00 {
		t.Errorf("Discount = %v, want 6.00", got.Discount)
	}
}

func TestRedeem(t *testing.T) {
	v := newTestValidator(t, models.PromoCode{
		Code: "ONETIME", Type: models.PromoTypeFixed, Value: 5, Active: true,
	})
	ctx := context.Background()

	if _, err := v.Redeem(ctx, "amber@example.com", "ONETIME"); err != nil {
		t.Fatalf("Redeem: %v", err)
	}

	// the second validation for the same identity must now fail
	_, err := v.Validate(ctx, "amber@example.com", "ONETIME", 40.00)
	if !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("error = %v, want ErrAlreadyUsed", err)
	}
}
