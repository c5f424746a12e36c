package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderFulfilled = "order.fulfilled"
	TopicOrderShipped   = "order.shipped"
	TopicOrderCancelled = "order.cancelled"
)

// Partition key = order_id so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
