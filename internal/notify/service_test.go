package notify

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/email"
	"github.com/parcelworks/storefront/internal/kafka"
	"github.com/parcelworks/storefront/internal/orders"
)

type fakeSender struct {
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type memDeduper struct{ seen map[string]bool }

func (d *memDeduper) Claim(_ context.Context, key string) (bool, error) {
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func paidMessage(eventID, orderID string) kafkago.Message {
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    orders.EventOrderPaid,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload: kafka.MustMarshal(orders.OrderPaidPayload{
			OrderID:  orderID,
			Email:    "jo@example.com",
			FullName: "Jo Doe",
			Items: []orders.ItemSnapshot{
				{ProductName: "Mailer 10-pack", Quantity: 2, UnitPriceCents: 1500},
			},
			TotalCents: 3799,
		}),
	}
	return kafkago.Message{Value: kafka.MustMarshal(env)}
}

func newService(sender *fakeSender) *Service {
	return &Service{
		Sender:      sender,
		Dedup:       &memDeduper{},
		Log:         zap.NewNop(),
		ServiceName: "notifier-test",
	}
}

func TestHandleOrderPaidSendsConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_1", "order-1")))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jo@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "order-1")
	assert.Contains(t, sender.sent[0].HTML, "Mailer 10-pack")
}

func TestHandleOrderPaidDedupsByEventID(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_1", "order-1")))
	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_1", "order-1")))

	assert.Len(t, sender.sent, 1)
}

func TestHandleOrderPaidDedupsByOrder(t *testing.T) {
	// A replayed webhook could mint a fresh event id for the same order.
	sender := &fakeSender{}
	svc := newService(sender)

	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_1", "order-1")))
	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_2", "order-1")))

	assert.Len(t, sender.sent, 1)
}

func TestHandleOrderPaidIgnoresOtherEvents(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	env := orders.Envelope{EventID: "evt_x", EventType: orders.EventOrderCreated, Payload: []byte(`{}`)}
	require.NoError(t, svc.HandleOrderPaid(context.Background(), kafkago.Message{Value: kafka.MustMarshal(env)}))
	assert.Empty(t, sender.sent)
}

func TestEmailFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: assert.AnError}
	svc := newService(sender)

	// failure must not bubble up and block the consumer offset
	require.NoError(t, svc.HandleOrderPaid(context.Background(), paidMessage("evt_1", "order-1")))
}

func TestHandleOrderShipped(t *testing.T) {
	sender := &fakeSender{}
	svc := newService(sender)

	env := orders.Envelope{
		EventID:   "evt_s1",
		EventType: orders.EventOrderShipped,
		Payload: kafka.MustMarshal(orders.OrderShippedPayload{
			OrderID:        "order-1",
			Email:          "jo@example.com",
			FullName:       "Jo Doe",
			TrackingNumber: "1Z999",
			Carrier:        "UPS",
			TotalShipments: 2,
			IsPartial:      true,
		}),
	}
	require.NoError(t, svc.HandleOrderShipped(context.Background(), kafkago.Message{Value: kafka.MustMarshal(env)}))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].HTML, "https://www.ups.com/track?tracknum=1Z999")
	assert.Contains(t, sender.sent[0].HTML, "more packages are on the way")
}
