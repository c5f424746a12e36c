// Package notify turns order lifecycle events into customer email. It is the
// only place mail is sent from, so business state can never depend on a mail
// provider being up.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/email"
	kafkax "github.com/parcelworks/storefront/internal/kafka"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/redisx"
	"github.com/parcelworks/storefront/internal/shipping"
)

type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// Deduper claims a processing slot; Claim returns false when another worker
// (or an earlier replay) already owns it.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
}

type RedisDeduper struct{ R *redis.Client }

func (d RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	return redisx.SetIfAbsent(ctx, d.R, key, redisx.TTLDedup)
}

type Service struct {
	Sender      Sender
	Dedup       Deduper
	Log         *zap.Logger
	ServiceName string
}

// HandleOrderPaid sends the order-confirmation email, at most once per order.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}

	ok, err := s.claim(ctx, env.EventID, p.OrderID, "confirmation")
	if err != nil || !ok {
		return err
	}

	items := make([]email.LineData, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, email.LineData{
			Name:       it.ProductName,
			Quantity:   it.Quantity,
			PriceCents: it.UnitPriceCents,
			ImageURL:   it.ImageURL,
		})
	}
	subject, html, err := email.RenderConfirmation(email.ConfirmationData{
		FullName:   p.FullName,
		OrderID:    p.OrderID,
		Items:      items,
		TotalCents: p.TotalCents,
	})
	if err != nil {
		return err
	}

	s.send(ctx, p.OrderID, email.Message{To: p.Email, Subject: subject, HTML: html})
	return nil
}

// HandleOrderShipped sends the shipping-confirmation email with a tracking
// link, at most once per order.
func (s *Service) HandleOrderShipped(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderShipped {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderShippedPayload](env.Payload)
	if err != nil {
		return err
	}

	ok, err := s.claim(ctx, env.EventID, p.OrderID, "shipping")
	if err != nil || !ok {
		return err
	}

	subject, html, err := email.RenderShipping(email.ShippingData{
		FullName:       p.FullName,
		OrderID:        p.OrderID,
		Carrier:        p.Carrier,
		TrackingNumber: p.TrackingNumber,
		TrackingURL:    shipping.TrackingURL(p.Carrier, p.TrackingNumber),
		IsPartial:      p.IsPartial,
		TotalShipments: p.TotalShipments,
	})
	if err != nil {
		return err
	}

	s.send(ctx, p.OrderID, email.Message{To: p.Email, Subject: subject, HTML: html})
	return nil
}

// claim dedups twice: by event id (kafka redelivery) and by order+kind
// (replayed webhooks producing fresh events must still mail only once).
func (s *Service) claim(ctx context.Context, eventID, orderID, kind string) (bool, error) {
	ok, err := s.Dedup.Claim(ctx, fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return s.Dedup.Claim(ctx, fmt.Sprintf(redisx.KeyDedup, s.ServiceName, orderID+":"+kind))
}

// Email failure is logged and swallowed: the order state already committed
// and must not be rolled back or endlessly retried over a mail outage.
func (s *Service) send(ctx context.Context, orderID string, msg email.Message) {
	if err := s.Sender.Send(ctx, msg); err != nil {
		s.Log.Error("send email failed",
			zap.String("order_id", orderID),
			zap.String("to", msg.To),
			zap.Error(err))
		return
	}
	s.Log.Info("email sent", zap.String("order_id", orderID), zap.String("subject", msg.Subject))
}
