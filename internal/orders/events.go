package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPaid      = "OrderPaid"
	EventOrderFulfilled = "OrderFulfilled"
	EventOrderShipped   = "OrderShipped"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemSnapshot struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	ImageURL       string `json:"image_url,omitempty"`
}

type OrderCreatedPayload struct {
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Items      []ItemSnapshot `json:"items"`
	TotalCents int            `json:"total_cents"`
}

type OrderPaidPayload struct {
	OrderID    string         `json:"order_id"`
	Email      string         `json:"email"`
	FullName   string         `json:"full_name"`
	Items      []ItemSnapshot `json:"items"`
	TotalCents int            `json:"total_cents"`
}

type OrderFulfilledPayload struct {
	OrderID         string `json:"order_id"`
	ShippingOrderID string `json:"shipping_order_id"`
}

type OrderShippedPayload struct {
	OrderID        string `json:"order_id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	TotalShipments int    `json:"total_shipments"`
	IsPartial      bool   `json:"is_partial"`
}

type OrderCancelledPayload struct {
	OrderID  string `json:"order_id"`
	RefundID string `json:"refund_id,omitempty"`
}
