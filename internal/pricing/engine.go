package pricing

import "math"

// Money represents a monetary value stored in minor units (paise).
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed cart pricing components.
type Summary struct {
	Subtotal Money
	Delivery Money
	Total    Money
}

// Subtotal sums line totals, skipping non-positive quantities.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// Compute calculates cart totals. Delivery is waived once the subtotal
// reaches the free-delivery threshold.
func Compute(items []Item, freeDeliveryThreshold, deliveryFee Money) Summary {
	subtotal := Subtotal(items)
	delivery := deliveryFee
	if subtotal >= freeDeliveryThreshold {
		delivery = 0
	}
	if subtotal == 0 {
		delivery = 0
	}
	return Summary{
		Subtotal: subtotal,
		Delivery: delivery,
		Total:    subtotal + delivery,
	}
}

// ApplyRate applies a percentage rate to an amount, rounding half away
// from zero to the nearest minor unit.
func ApplyRate(amount Money, ratePct float64) Money {
	return Money(math.Round(float64(amount) * ratePct / 100))
}
