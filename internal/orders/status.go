package orders

// Status is the payment axis of an order. It is independent from
// FulfillmentStatus: payment state and shipment state are never conflated.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

// FulfillmentStatus is the shipment axis of an order.
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
	FulfillmentShipped   FulfillmentStatus = "shipped"
	FulfillmentDelivered FulfillmentStatus = "delivered"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusRefunded: true, StatusCancelled: true},
	StatusRefunded:  {},
	StatusCancelled: {},
}

var validNextFulfillment = map[FulfillmentStatus]map[FulfillmentStatus]bool{
	FulfillmentPending:   {FulfillmentFulfilled: true, FulfillmentCancelled: true},
	FulfillmentFulfilled: {FulfillmentShipped: true, FulfillmentCancelled: true},
	// Re-running the tracking reconciler re-enters shipped.
	FulfillmentShipped:   {FulfillmentShipped: true, FulfillmentDelivered: true, FulfillmentCancelled: true},
	FulfillmentDelivered: {},
	FulfillmentCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func CanTransitionFulfillment(from, to FulfillmentStatus) bool {
	return validNextFulfillment[from][to]
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

func (f FulfillmentStatus) Valid() bool {
	switch f {
	case FulfillmentPending, FulfillmentFulfilled, FulfillmentShipped,
		FulfillmentDelivered, FulfillmentCancelled:
		return true
	}
	return false
}
