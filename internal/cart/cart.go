// Package cart holds the client-side cart math: plain summation plus the
// flat-rate shipping rule.
package cart

const (
	// Orders at or above $50.00 ship free, unless they weigh more than 5 lb.
	FreeShippingFloorCents = 5000
	FreeShippingMaxOz      = 80
	FlatRateCents          = 799
)

type Item struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int    `json:"price"`
	Quantity   int    `json:"quantity"`
	WeightOz   int    `json:"weight"`
	ImageURL   string `json:"image,omitempty"`
}

func Subtotal(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.PriceCents * it.Quantity
	}
	return total
}

func TotalWeight(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.WeightOz * it.Quantity
	}
	return total
}

// ShippingCost is free exactly when the subtotal reaches the floor and the
// weight stays within the ceiling; both bounds are inclusive.
func ShippingCost(subtotalCents, totalWeightOz int) int {
	if subtotalCents >= FreeShippingFloorCents && totalWeightOz <= FreeShippingMaxOz {
		return 0
	}
	return FlatRateCents
}
