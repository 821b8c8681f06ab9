package cartstore

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/fiestaliquor/storefront/internal/models"
)

// CookieThreshold is the serialized size above which a cart is stored in its
// compressed form. Cookies cap out near 4KB; the margin leaves room for the
// cookie name and attributes.
const CookieThreshold = 3500

// Line is the display copy of a cart item held by the store. Only the
// productId/quantity/size triple is authoritative; the rest is re-derived
// from the catalog.
type Line struct {
	CartItemID string  `json:"cartItemId"`
	ProductID  int64   `json:"productId"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Size       string  `json:"size,omitempty"`
	Category   string  `json:"category,omitempty"`
}

// Item returns the authoritative triple for the line.
func (l Line) Item() models.CartItem {
	return models.CartItem{ProductID: l.ProductID, Quantity: l.Quantity, Size: l.Size}
}

// CompressedLine is the space-saving cookie form of a cart line. Display
// fields are dropped and re-hydrated from the product catalog on next load.
type CompressedLine struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
}

// Compress strips cart lines down to their essential triples.
func Compress(lines []Line) []CompressedLine {
	out := make([]CompressedLine, len(lines))
	for i, l := range lines {
		out[i] = CompressedLine{ID: l.ProductID, Quantity: l.Quantity, Size: l.Size}
	}
	return out
}

// Encode serializes cart lines for the cookie tier, switching to the
// compressed form when the full serialization exceeds CookieThreshold bytes.
func Encode(lines []Line) (payload string, compressed bool, err error) {
	full, err := json.Marshal(lines)
	if err != nil {
		return "", false, fmt.Errorf("encode cart: %w", err)
	}
	if len(full) <= CookieThreshold {
		return string(full), false, nil
	}

	small, err := json.Marshal(Compress(lines))
	if err != nil {
		return "", false, fmt.Errorf("encode compressed cart: %w", err)
	}
	return string(small), true, nil
}

// Decode parses a stored cart payload, returning either full lines or, when
// the payload is in compressed form, the compressed lines pending expansion.
func Decode(payload string) (lines []Line, pending []CompressedLine, err error) {
	// Probe for the compressed shape: compressed entries carry "id",
	// full entries carry "productId".
	var probe []struct {
		ID        int64 `json:"id"`
		ProductID int64 `json:"productId"`
	}
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, nil, fmt.Errorf("decode cart: %w", err)
	}
	if len(probe) == 0 {
		return nil, nil, nil
	}

	if probe[0].ProductID == 0 && probe[0].ID != 0 {
		if err := json.Unmarshal([]byte(payload), &pending); err != nil {
			return nil, nil, fmt.Errorf("decode compressed cart: %w", err)
		}
		return nil, pending, nil
	}

	if err := json.Unmarshal([]byte(payload), &lines); err != nil {
		return nil, nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil, nil
}

// Catalog resolves product ids for re-hydrating compressed carts.
type Catalog interface {
	Product(id int64) (models.Product, bool)
}

// Expand re-hydrates compressed lines against the product catalog. Lines
// whose product no longer exists are dropped; prices and display fields come
// from the catalog, so the expanded cart is functionally equivalent to the
// original (same productId/quantity/size triples).
func Expand(pending []CompressedLine, catalog Catalog) []Line {
	out := make([]Line, 0, len(pending))
	for _, c := range pending {
		p, ok := catalog.Product(c.ID)
		if !ok {
			continue
		}
		qty := c.Quantity
		if qty < 1 {
			qty = 1
		}
		out = append(out, Line{
			CartItemID: uuid.New().String(),
			ProductID:  p.ID,
			Name:       p.Name,
			Image:      p.Image,
			Price:      p.SizePrice(c.Size),
			Quantity:   qty,
			Size:       c.Size,
			Category:   p.Category,
		})
	}
	return out
}

// Rehydrate builds display lines for authoritative triples, used after a
// login merge when the result must be shown with catalog prices.
func Rehydrate(items []models.CartItem, catalog Catalog) []Line {
	compressed := make([]CompressedLine, len(items))
	for i, it := range items {
		compressed[i] = CompressedLine{ID: it.ProductID, Quantity: it.Quantity, Size: it.Size}
	}
	return Expand(compressed, catalog)
}
