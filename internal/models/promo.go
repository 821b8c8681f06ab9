package models

import "time"

// Promo code discount types
const (
	PromoTypePercentage = "percentage"
	PromoTypeFixed      = "fixed"
)

// PromoCode is an admin-managed discount code. UsedBy tracks per-user
// redemption so a code can be applied at most once per account.
type PromoCode struct {
	ID          int64      `json:"id"`
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       float64    `json:"value"`
	MinOrder    float64    `json:"minOrder,omitempty"`
	MaxDiscount float64    `json:"maxDiscount,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	UsageLimit  int        `json:"usageLimit,omitempty"`
	UsageCount  int        `json:"usageCount"`
	Active      bool       `json:"active"`
	UsedBy      []string   `json:"usedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	Version     int64      `json:"version"`
}

// Expired reports whether the code's expiry has passed at the given time.
func (p *PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// UsageExceeded reports whether the code's global usage limit is exhausted.
func (p *PromoCode) UsageExceeded() bool {
	return p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit
}

// UsedByUser reports whether the given user identifier already redeemed this
// code.
func (p *PromoCode) UsedByUser(ident string) bool {
	if ident == "" {
		return false
	}
	for _, u := range p.UsedBy {
		if u == ident {
			return true
		}
	}
	return false
}
