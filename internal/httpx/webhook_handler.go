package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/payment"
)

// SignatureHeader carries the vendor's webhook signature.
const SignatureHeader = "X-Payment-Signature"

// WebhookHandler receives provider-signed payment events. The signature
// check is the only authentication on this endpoint.
type WebhookHandler struct {
	Store         OrderStore
	Producers     Publishers
	Log           *zap.Logger
	Service       string
	WebhookSecret string

	// Now is swapped in tests to pin signature timestamps.
	Now func() time.Time
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhooks/payment", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	ok := false
	defer func() { recordOrderOperation("payment_webhook", ok) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	ev, err := payment.VerifyAndParse(h.WebhookSecret, r.Header.Get(SignatureHeader), body, now())
	if err != nil {
		h.Log.Warn("webhook rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	if ev.Type != payment.EventCheckoutCompleted {
		ok = true
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Store.GetByPaymentSession(ctx, ev.Data.Object.ID)
	if errors.Is(err, orders.ErrNotFound) {
		// unknown or replayed-for-a-foreign-env session: idempotent no-op
		writeError(w, http.StatusNotFound, "no order for session")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	transitioned, err := h.Store.MarkPaid(ctx, o.ID, ev.Data.Object.PaymentIntent)
	if err != nil {
		h.Log.Error("mark paid failed", zap.String("order_id", o.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !transitioned {
		// replayed event; the order is already paid and nothing else runs
		ok = true
		writeJSON(w, http.StatusOK, map[string]string{"status": "already processed"})
		return
	}

	h.Log.Info("order paid",
		zap.String("order_id", o.ID),
		zap.String("session_id", ev.Data.Object.ID))

	items, err := h.Store.GetItems(ctx, o.ID)
	if err != nil {
		h.Log.Error("load items for confirmation failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	snapshots := make([]orders.ItemSnapshot, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	images := map[string]orders.Product{}
	if len(ids) > 0 {
		// best effort: product images make the email nicer but are not required
		if m, err := h.Store.LoadProducts(ctx, ids); err == nil {
			images = m
		}
	}
	for _, it := range items {
		snapshots = append(snapshots, orders.ItemSnapshot{
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			ImageURL:       images[it.ProductID].ImageURL,
		})
	}

	publishEvent(h.Producers.Paid, h.Service, orders.EventOrderPaid, o.ID,
		middleware.GetReqID(r.Context()), orders.OrderPaidPayload{
			OrderID:    o.ID,
			Email:      o.Email,
			FullName:   o.FullName,
			Items:      snapshots,
			TotalCents: o.TotalCents,
		})

	ok = true
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}
