// Package promo validates discount codes against an order subtotal. The
// validator is server-authoritative: clients only ever see the computed
// discount, never the rules.
package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/fiestaliquor/storefront/internal/models"
	"github.com/fiestaliquor/storefront/internal/pricing"
	"github.com/fiestaliquor/storefront/internal/repository"
)

var (
	ErrNotFound    = errors.New("invalid promo code")
	ErrInactive    = errors.New("this promo code is no longer active")
	ErrExpired     = errors.New("this promo code has expired")
	ErrUsageLimit  = errors.New("this promo code has reached its usage limit")
	ErrAlreadyUsed = errors.New("this promo code has already been used by your account")
)

// MinOrderError carries the minimum order amount a code requires.
type MinOrderError struct {
	Min float64
}

func (e *MinOrderError) Error() string {
	return fmt.Sprintf("minimum order of $%.2f required for this promo code", e.Min)
}

// Result is a successful validation: the discount to apply to one checkout.
// Results are transient and must be revalidated per checkout session.
type Result struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Type     string  `json:"type"`
	Message  string  `json:"message"`
}

// Validator checks promo codes against the promo store. A Bloom filter over
// the known codes rejects the overwhelmingly common case (a mistyped or
// guessed code) without touching the store; the filter is rebuilt whenever
// codes change.
type Validator struct {
	repo repository.PromoRepository

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewValidator creates a validator over the given promo store.
func NewValidator(repo repository.PromoRepository) *Validator {
	return &Validator{repo: repo}
}

// Reload rebuilds the Bloom filter from the store. Call at startup and after
// admin CRUD on codes.
func (v *Validator) Reload(ctx context.Context) error {
	promos, err := v.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load promo codes: %w", err)
	}

	n := uint(len(promos))
	if n < 64 {
		n = 64
	}
	filter := bloom.NewWithEstimates(n, 0.01)
	for _, p := range promos {
		filter.AddString(strings.ToLower(p.Code))
	}

	v.mu.Lock()
	v.filter = filter
	v.mu.Unlock()
	return nil
}

// mightExist reports whether the code could be in the store. False negatives
// never happen; false positives fall through to the store lookup.
func (v *Validator) mightExist(code string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.filter == nil {
		return true
	}
	return v.filter.TestString(strings.ToLower(code))
}

// Validate checks a code for the given user and order subtotal and returns
// the discount to apply. The discount for percentage codes is capped at the
// code's maxDiscount when one is set.
func (v *Validator) Validate(ctx context.Context, userIdent, code string, orderTotal float64) (*Result, error) {
	if !v.mightExist(code) {
		return nil, ErrNotFound
	}

	promoCode, err := v.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !promoCode.Active {
		return nil, ErrInactive
	}
	if promoCode.Expired(time.Now()) {
		return nil, ErrExpired
	}
	if promoCode.UsageExceeded() {
		return nil, ErrUsageLimit
	}
	if promoCode.UsedByUser(userIdent) {
		return nil, ErrAlreadyUsed
	}
	if promoCode.MinOrder > 0 && orderTotal < promoCode.MinOrder {
		return nil, &MinOrderError{Min: promoCode.MinOrder}
	}

	var discount float64
	if promoCode.Type == models.PromoTypePercentage {
		discount = orderTotal * promoCode.Value / 100
		if promoCode.MaxDiscount > 0 && discount > promoCode.MaxDiscount {
			discount = promoCode.MaxDiscount
		}
	} else {
		discount = promoCode.Value
	}
	discount = pricing.Round2(discount)

	return &Result{
		Code:     promoCode.Code,
		Discount: discount,
		Type:     promoCode.Type,
		Message:  fmt.Sprintf("Promo code applied! You save $%.2f", discount),
	}, nil
}

// Redeem marks the code as used by the given user after a completed
// checkout.
func (v *Validator) Redeem(ctx context.Context, userIdent, code string) (*models.PromoCode, error) {
	promoCode, err := v.repo.MarkUsed(ctx, code, userIdent)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return promoCode, nil
}
