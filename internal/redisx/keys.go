package redisx

import "time"

const (
	// Cache of the customer-visible order status payload: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event/webhook processing: dedup:{service}:{id}
	// (id = event_id, or order_id:kind for per-order email dedup)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
