package httpx

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/parcelworks/storefront/internal/audit"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/payment"
	"github.com/parcelworks/storefront/internal/shipping"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[string]orders.Product
	orders   map[string]*orders.Order
	items    map[string][]orders.OrderItem
	writes   int

	failCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]orders.Product{},
		orders:   map[string]*orders.Order{},
		items:    map[string][]orders.OrderItem{},
	}
}

func (s *fakeStore) LoadProducts(_ context.Context, ids []string) (map[string]orders.Product, error) {
	out := map[string]orders.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *fakeStore) ListProducts(_ context.Context) ([]orders.Product, error) {
	var out []orders.Product
	for _, p := range s.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateOrder(_ context.Context, userID string, addr orders.Address, lines []orders.LineInput,
	products map[string]orders.Product, shippingCents int, sessionID string) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return "", 0, fmt.Errorf("insert failed")
	}
	s.writes++
	total := shippingCents
	id := fmt.Sprintf("order-%d", len(s.orders)+1)
	var items []orders.OrderItem
	for _, ln := range lines {
		p := products[ln.ProductID]
		total += p.PriceCents * ln.Quantity
		items = append(items, orders.OrderItem{
			OrderID: id, ProductID: p.ID, ProductName: p.Name,
			Quantity: ln.Quantity, UnitPriceCents: p.PriceCents,
		})
	}
	s.orders[id] = &orders.Order{
		ID: id, UserID: userID, Email: addr.Email, FullName: addr.FullName,
		Shipping: addr, TotalCents: total, ShippingCents: shippingCents,
		Status: orders.StatusPending, FulfillmentStatus: orders.FulfillmentPending,
		PaymentSessionID: sessionID, CreatedAt: time.Now(),
	}
	s.items[id] = items
	return id, total, nil
}

func (s *fakeStore) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return *o, nil
}

func (s *fakeStore) GetByPaymentSession(_ context.Context, sessionID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentSessionID == sessionID {
			return *o, nil
		}
	}
	return orders.Order{}, orders.ErrNotFound
}

func (s *fakeStore) GetItems(_ context.Context, orderID string) ([]orders.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[orderID], nil
}

func (s *fakeStore) MarkPaid(_ context.Context, orderID, paymentIntentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, orders.ErrNotFound
	}
	if o.Status == orders.StatusPaid {
		return false, nil
	}
	if !orders.CanTransition(o.Status, orders.StatusPaid) {
		return false, orders.ErrBadTransition
	}
	s.writes++
	o.Status = orders.StatusPaid
	if paymentIntentID != "" {
		o.PaymentIntentID = paymentIntentID
	}
	return true, nil
}

func (s *fakeStore) SetFulfilled(_ context.Context, orderID, shippingOrderID string, shippedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	if !orders.CanTransitionFulfillment(o.FulfillmentStatus, orders.FulfillmentFulfilled) {
		return orders.ErrBadTransition
	}
	s.writes++
	o.FulfillmentStatus = orders.FulfillmentFulfilled
	o.ShippingOrderID = shippingOrderID
	o.ShippedAt = &shippedAt
	return nil
}

func (s *fakeStore) SetTracking(_ context.Context, orderID, trackingNumber, carrier string, shippedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	if !orders.CanTransitionFulfillment(o.FulfillmentStatus, orders.FulfillmentShipped) {
		return orders.ErrBadTransition
	}
	s.writes++
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.FulfillmentStatus = orders.FulfillmentShipped
	o.ShippedAt = &shippedAt
	return nil
}

func (s *fakeStore) FinalizeCancel(_ context.Context, orderID string, refunded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	if o.Status == orders.StatusCancelled || o.Status == orders.StatusRefunded {
		return orders.ErrAlreadyCancelled
	}
	s.writes++
	if refunded {
		o.Status = orders.StatusRefunded
	} else {
		o.Status = orders.StatusCancelled
	}
	o.FulfillmentStatus = orders.FulfillmentCancelled
	return nil
}

type fakePayments struct {
	sessions      int
	refunds       []string
	refundErr     error
	sessionErr    error
	resolvedFrom  []string
	paymentIntent string
}

func (p *fakePayments) CreateCheckoutSession(_ context.Context, _ payment.CheckoutSessionReq) (payment.CheckoutSession, error) {
	if p.sessionErr != nil {
		return payment.CheckoutSession{}, p.sessionErr
	}
	p.sessions++
	id := fmt.Sprintf("cs_%d", p.sessions)
	return payment.CheckoutSession{ID: id, URL: "https://pay.example/" + id}, nil
}

func (p *fakePayments) ResolvePaymentIntent(_ context.Context, ref string) (string, error) {
	p.resolvedFrom = append(p.resolvedFrom, ref)
	if p.paymentIntent != "" {
		return p.paymentIntent, nil
	}
	return ref, nil
}

func (p *fakePayments) CreateRefund(_ context.Context, paymentIntentID string) (payment.Refund, error) {
	if p.refundErr != nil {
		return payment.Refund{}, p.refundErr
	}
	p.refunds = append(p.refunds, paymentIntentID)
	return payment.Refund{ID: fmt.Sprintf("re_%d", len(p.refunds)), Status: "succeeded"}, nil
}

type fakeShipping struct {
	created   []shipping.FulfillmentOrderReq
	shipments []shipping.Shipment
	listErr   error
}

func (f *fakeShipping) CreateFulfillmentOrder(_ context.Context, req shipping.FulfillmentOrderReq) (shipping.FulfillmentOrder, error) {
	f.created = append(f.created, req)
	return shipping.FulfillmentOrder{ID: fmt.Sprintf("fo_%d", len(f.created))}, nil
}

func (f *fakeShipping) ListShipments(_ context.Context, _ string) ([]shipping.Shipment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.shipments, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []kafkago.Message
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeAuditor struct{ entries []audit.Entry }

func (f *fakeAuditor) Record(_ context.Context, e audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakeRoles struct{ admins map[string]bool }

func (f fakeRoles) HasRole(_ context.Context, userID, role string) (bool, error) {
	return role == "admin" && f.admins[userID], nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("cache miss")
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string]string{}
	}
	c.data[key] = value
	return nil
}
