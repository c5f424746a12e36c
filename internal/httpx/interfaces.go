package httpx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/parcelworks/storefront/internal/audit"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/payment"
	"github.com/parcelworks/storefront/internal/shipping"
)

// Handlers depend on these narrow interfaces; the pgx/vendor types satisfy
// them in production and tests substitute in-memory fakes.

type OrderStore interface {
	LoadProducts(ctx context.Context, ids []string) (map[string]orders.Product, error)
	ListProducts(ctx context.Context) ([]orders.Product, error)
	CreateOrder(ctx context.Context, userID string, addr orders.Address, lines []orders.LineInput,
		products map[string]orders.Product, shippingCents int, sessionID string) (string, int, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (orders.Order, error)
	GetItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	MarkPaid(ctx context.Context, orderID, paymentIntentID string) (bool, error)
	SetFulfilled(ctx context.Context, orderID, shippingOrderID string, shippedAt time.Time) error
	SetTracking(ctx context.Context, orderID, trackingNumber, carrier string, shippedAt time.Time) error
	FinalizeCancel(ctx context.Context, orderID string, refunded bool) error
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutSessionReq) (payment.CheckoutSession, error)
	ResolvePaymentIntent(ctx context.Context, ref string) (string, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (payment.Refund, error)
}

type ShippingProvider interface {
	CreateFulfillmentOrder(ctx context.Context, req shipping.FulfillmentOrderReq) (shipping.FulfillmentOrder, error)
	ListShipments(ctx context.Context, fulfillmentOrderID string) ([]shipping.Shipment, error)
}

type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Publishers groups the per-topic producers the handlers emit to.
type Publishers struct {
	Created   Publisher
	Paid      Publisher
	Fulfilled Publisher
	Shipped   Publisher
	Cancelled Publisher
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisCache struct{ r *redis.Client }

func NewRedisCache(r *redis.Client) Cache { return redisCache{r: r} }

func (c redisCache) Get(ctx context.Context, key string) (string, error) {
	return c.r.Get(ctx, key).Result()
}

func (c redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.r.Set(ctx, key, value, ttl).Err()
}
