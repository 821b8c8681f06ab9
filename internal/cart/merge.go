package cart

import "github.com/fiestaliquor/storefront/internal/models"

// Merge reconciles cart candidates from multiple sources into one
// deduplicated cart. Sources are given in priority order (server-persisted
// cart first, then the pre-login cache, then any guest-scoped cart).
//
// When the same (productId, size) line appears in more than one source the
// quantity is the max of the candidates, not the sum: the same guest cart is
// often present in two sources at once and summing would double-count it.
// Result order is insertion order across the processed sources.
func Merge(sources ...[]models.CartItem) []models.CartItem {
	var out []models.CartItem
	index := make(map[models.LineKey]int)

	for _, source := range sources {
		for _, item := range source {
			if item.ProductID <= 0 || item.Quantity <= 0 {
				continue
			}
			key := item.Key()
			if i, ok := index[key]; ok {
				if item.Quantity > out[i].Quantity {
					out[i].Quantity = item.Quantity
				}
				continue
			}
			index[key] = len(out)
			out = append(out, item)
		}
	}

	return out
}

// Empty reports whether every source cart is empty, in which case no merge
// round-trip to the server is needed.
func Empty(sources ...[]models.CartItem) bool {
	for _, s := range sources {
		if len(s) > 0 {
			return false
		}
	}
	return true
}
