// Package pricing is the single shared implementation of the order total
// pipeline. Every path that prices a cart (order summary, checkout session
// line items, server-side order creation) goes through ComputeTotals so the
// amounts agree bit-for-bit.
package pricing

import "math"

// Fee and tax constants. The processing rate/fixed pair mirrors the card
// gateway's own pricing so the fee can be grossed up (see ProcessingFee).
const (
	DeliveryFee      = 7.99
	TaxRate          = 0.0825
	ProcessingRate   = 0.029
	ProcessingFixed  = 0.30
	CancellationRate = 0.10
)

// Totals is the full breakdown of a checkout amount. Each field is already
// rounded to cents; Total == Subtotal + DeliveryFee - Discount + Tax +
// ProcessingFee up to the intermediate rounding steps.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	DeliveryFee   float64 `json:"deliveryFee"`
	Tax           float64 `json:"tax"`
	ProcessingFee float64 `json:"stripeFee"`
	Total         float64 `json:"total"`
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ProcessingFee computes the fee to add so that after the gateway takes
// ProcessingRate of the charged total plus ProcessingFixed, the merchant
// nets exactly amount. The gateway's fee-on-fee is passed to the customer:
//
//	totalCharged = (amount + ProcessingFixed) / (1 - ProcessingRate)
//	fee          = totalCharged - amount
func ProcessingFee(amount float64) float64 {
	totalWithFee := (amount + ProcessingFixed) / (1 - ProcessingRate)
	return Round2(totalWithFee - amount)
}

// ComputeTotals turns a cart subtotal, delivery selection and discount into
// the full checkout breakdown. The rounding order is load-bearing: each step
// rounds to cents before the next step consumes it.
func ComputeTotals(subtotal float64, deliverySelected bool, discount float64) Totals {
	deliveryFee := 0.0
	if deliverySelected {
		deliveryFee = DeliveryFee
	}

	discountedSubtotal := math.Max(0, subtotal-discount)
	subtotalWithFee := Round2(discountedSubtotal + deliveryFee)
	tax := Round2(subtotalWithFee * TaxRate)
	amountBeforeFee := subtotalWithFee + tax
	fee := ProcessingFee(amountBeforeFee)
	total := Round2(amountBeforeFee + fee)

	return Totals{
		Subtotal:      Round2(subtotal),
		Discount:      Round2(discount),
		DeliveryFee:   deliveryFee,
		Tax:           tax,
		ProcessingFee: fee,
		Total:         total,
	}
}

// CancellationFee returns the customer-cancellation fee and the resulting
// refund for an order subtotal. The fee is 10% of the subtotal.
func CancellationFee(subtotal float64) (fee, refund float64) {
	fee = Round2(subtotal * CancellationRate)
	refund = Round2(subtotal - fee)
	return fee, refund
}

// LineItem is a priced line sent to the payment gateway.
type LineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// ApplyDiscount subtracts the discount from the first line's unit price,
// floored at zero. The gateway cannot carry negative line items, so the
// discount is folded into an existing line instead of appended as its own.
// The input slice is modified in place.
func ApplyDiscount(items []LineItem, discount float64) {
	if discount <= 0 || len(items) == 0 {
		return
	}
	items[0].Price = math.Max(0, items[0].Price-discount)
}

// BuildLineItems converts cart lines plus computed totals into the gateway
// line item list: product lines (with the discount folded into the first),
// then delivery fee, tax and processing fee as their own lines so the charged
// amount matches Totals.Total.
func BuildLineItems(cartLines []LineItem, t Totals, deliverySelected bool) []LineItem {
	items := make([]LineItem, len(cartLines))
	copy(items, cartLines)

	ApplyDiscount(items, t.Discount)

	if deliverySelected && t.DeliveryFee > 0 {
		items = append(items, LineItem{Name: "Delivery Fee", Price: t.DeliveryFee, Quantity: 1})
	}
	if t.Tax > 0 {
		items = append(items, LineItem{Name: "Tax (8.25%)", Price: t.Tax, Quantity: 1})
	}
	if t.ProcessingFee > 0 {
		items = append(items, LineItem{Name: "Payment Processing Fee", Price: t.ProcessingFee, Quantity: 1})
	}
	return items
}
