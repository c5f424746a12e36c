package orders

import "time"

type Product struct {
	ID         string
	Name       string
	PriceCents int
	Stock      int
	Active     bool
	ImageURL   string
	Category   string
	WeightOz   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Purchasable reports whether the product may appear in a new checkout.
// Existing order items are snapshots and stay valid regardless.
func (p Product) Purchasable() bool {
	return p.Active && p.Stock > 0
}

type Address struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Line1    string `json:"address_line1"`
	Line2    string `json:"address_line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

type Order struct {
	ID                string
	UserID            string
	Email             string
	FullName          string
	Shipping          Address
	TotalCents        int
	ShippingCents     int
	Status            Status
	FulfillmentStatus FulfillmentStatus
	PaymentSessionID  string
	PaymentIntentID   string
	ShippingOrderID   string
	TrackingNumber    string
	Carrier           string
	ShippedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem is a historical snapshot: name and unit price are denormalized at
// purchase time and never follow later product edits.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int
}
