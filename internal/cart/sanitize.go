// Package cart implements the server-side cart pipeline: sanitizing raw
// client payloads into canonical cart lines and reconciling carts from
// multiple sources at login.
package cart

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fiestaliquor/storefront/internal/models"
)

// FlexInt decodes a JSON number or numeric string into an int64. Client cart
// payloads historically carry product ids as either; anything that does not
// parse to an integer decodes to zero rather than failing the whole payload,
// so the sanitizer can drop just the bad entry.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(n)
	return nil
}

// RawItem is one cart line as received from a client, before validation.
// Display-only fields (name, image, price) are accepted and discarded.
type RawItem struct {
	ProductID FlexInt `json:"productId"`
	Quantity  FlexInt `json:"quantity"`
	Size      string  `json:"size,omitempty"`
}

var _ json.Unmarshaler = (*FlexInt)(nil)

// Sanitize normalizes raw cart entries into canonical cart lines:
//
//   - entries whose product id or quantity does not parse to a positive
//     integer are dropped
//   - duplicate (productId, size) lines are collapsed by summing quantities
//   - first-seen input order is preserved
//
// Summing on collision is deliberate here and differs from Merge, which takes
// the max: a sync payload with a repeated line means the client really added
// it twice.
func Sanitize(raw []RawItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(raw))
	index := make(map[models.LineKey]int)

	for _, r := range raw {
		productID := int64(r.ProductID)
		quantity := int(r.Quantity)
		if productID <= 0 || quantity <= 0 {
			continue
		}

		key := models.LineKey{ProductID: productID, Size: r.Size}
		if i, ok := index[key]; ok {
			out[i].Quantity += quantity
			continue
		}

		index[key] = len(out)
		out = append(out, models.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			Size:      r.Size,
		})
	}

	return out
}

// SanitizeItems runs Sanitize over already-typed cart items, collapsing
// duplicates and dropping invalid lines. Used when merging server-held carts
// where the payload has already been decoded.
func SanitizeItems(items []models.CartItem) []models.CartItem {
	raw := make([]RawItem, len(items))
	for i, it := range items {
		raw[i] = RawItem{
			ProductID: FlexInt(it.ProductID),
			Quantity:  FlexInt(it.Quantity),
			Size:      it.Size,
		}
	}
	return Sanitize(raw)
}
