package cartstore

import (
	"fmt"

	"github.com/fiestaliquor/storefront/internal/pricing"
)

// CheckoutLines turns the current cart into the line items sent to the
// payment gateway: one line per cart line (discount folded into the first),
// then delivery fee, tax and processing fee lines. The returned totals are
// the same breakdown the server recomputes at order creation.
func (s *Store) CheckoutLines(deliverySelected bool, discount float64) ([]pricing.LineItem, pricing.Totals) {
	s.mu.Lock()
	lines := s.snapshot()
	s.mu.Unlock()

	cartLines := make([]pricing.LineItem, 0, len(lines))
	var subtotal float64
	for _, l := range lines {
		name := l.Name
		if l.Size != "" {
			name = fmt.Sprintf("%s (%s)", l.Name, l.Size)
		}
		cartLines = append(cartLines, pricing.LineItem{Name: name, Price: l.Price, Quantity: l.Quantity})
		subtotal += l.Price * float64(l.Quantity)
	}
	subtotal = pricing.Round2(subtotal)

	totals := pricing.ComputeTotals(subtotal, deliverySelected, discount)
	return pricing.BuildLineItems(cartLines, totals, deliverySelected), totals
}
