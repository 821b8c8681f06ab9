package models

// CartItem is the persisted form of one cart line. Display fields carried by
// client copies (name, image, price) are stripped before storage; only the
// productId/quantity/size triple is authoritative.
//
// Two items refer to the same line iff ProductID and Size match exactly. An
// empty Size means the product has no size variants.
type CartItem struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

// LineKey identifies a cart line for dedup and merging.
type LineKey struct {
	ProductID int64
	Size      string
}

// Key returns the identity key of the item.
func (c CartItem) Key() LineKey {
	return LineKey{ProductID: c.ProductID, Size: c.Size}
}
