package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/audit"
	"github.com/parcelworks/storefront/internal/auth"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/shipping"
)

// AdminHandler owns the operator-only order lifecycle actions: fulfillment
// dispatch, tracking reconciliation and cancellation/refund.
type AdminHandler struct {
	Store     OrderStore
	Payments  PaymentProvider
	Shipping  ShippingProvider
	Producers Publishers
	Audit     Auditor
	Log       *zap.Logger
	Service   string
}

func (h *AdminHandler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Route("/admin/orders/{id}", func(r chi.Router) {
		r.Use(requireUser, RequireAdmin)
		r.Post("/fulfill", h.fulfill)
		r.Post("/tracking-sync", h.trackingSync)
		r.Post("/cancel", h.cancel)
	})
}

func (h *AdminHandler) fulfill(w http.ResponseWriter, r *http.Request) {
	ok := false
	defer func() { recordOrderOperation("fulfill", ok) }()

	sess, _ := auth.SessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// checked before the vendor call so a rejected order never produces a
	// stray fulfillment order; the repo re-checks under lock
	if !orders.CanTransitionFulfillment(o.FulfillmentStatus, orders.FulfillmentFulfilled) {
		writeError(w, http.StatusConflict,
			fmt.Sprintf("cannot fulfill order in fulfillment state %q", o.FulfillmentStatus))
		return
	}

	items, err := h.Store.GetItems(ctx, orderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	fitems := make([]shipping.FulfillmentItem, 0, len(items))
	for _, it := range items {
		fitems = append(fitems, shipping.FulfillmentItem{Name: it.ProductName, Quantity: it.Quantity})
	}
	fo, err := h.Shipping.CreateFulfillmentOrder(ctx, shipping.FulfillmentOrderReq{
		Reference: o.ID,
		Recipient: shipping.Recipient{
			Name:     o.FullName,
			Address1: o.Shipping.Line1,
			Address2: o.Shipping.Line2,
			City:     o.Shipping.City,
			State:    o.Shipping.State,
			Zip:      o.Shipping.Zip,
		},
		Items: fitems,
	})
	if err != nil {
		// pass the provider message through for operator diagnosis
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	if err := h.Store.SetFulfilled(ctx, o.ID, fo.ID, now); err != nil {
		if errors.Is(err, orders.ErrBadTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit(ctx, sess.UserID, "fulfill", o.ID, bson.M{"shipping_order_id": fo.ID})
	publishEvent(h.Producers.Fulfilled, h.Service, orders.EventOrderFulfilled, o.ID,
		middleware.GetReqID(r.Context()), orders.OrderFulfilledPayload{OrderID: o.ID, ShippingOrderID: fo.ID})

	ok = true
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "order submitted for fulfillment",
	})
}

type trackingResp struct {
	Success        bool   `json:"success"`
	Reason         string `json:"reason,omitempty"`
	Message        string `json:"message,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	ShipmentDate   string `json:"shipment_date,omitempty"`
	TotalShipments int    `json:"total_shipments,omitempty"`
	IsPartial      bool   `json:"is_partial,omitempty"`
}

func (h *AdminHandler) trackingSync(w http.ResponseWriter, r *http.Request) {
	ok := false
	defer func() { recordOrderOperation("tracking_sync", ok) }()

	sess, _ := auth.SessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if o.ShippingOrderID == "" {
		writeJSON(w, http.StatusConflict, trackingResp{
			Success: false,
			Reason:  "not_fulfilled",
			Message: "order has not been submitted for fulfillment",
		})
		return
	}

	shipments, err := h.Shipping.ListShipments(ctx, o.ShippingOrderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	primary, total, found := shipping.Primary(shipments)
	if !found {
		// expected transient state: the label may not exist yet
		ok = true
		writeJSON(w, http.StatusOK, trackingResp{
			Success: false,
			Reason:  "no_shipments",
			Message: "no shipments with tracking numbers yet",
		})
		return
	}

	if err := h.Store.SetTracking(ctx, o.ID, primary.TrackingNumber, primary.Carrier, primary.CreatedAt); err != nil {
		if errors.Is(err, orders.ErrBadTransition) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit(ctx, sess.UserID, "tracking_sync", o.ID, bson.M{
		"tracking_number": primary.TrackingNumber,
		"carrier":         primary.Carrier,
		"total_shipments": total,
	})
	publishEvent(h.Producers.Shipped, h.Service, orders.EventOrderShipped, o.ID,
		middleware.GetReqID(r.Context()), orders.OrderShippedPayload{
			OrderID:        o.ID,
			Email:          o.Email,
			FullName:       o.FullName,
			TrackingNumber: primary.TrackingNumber,
			Carrier:        primary.Carrier,
			TotalShipments: total,
			IsPartial:      total > 1,
		})

	ok = true
	writeJSON(w, http.StatusOK, trackingResp{
		Success:        true,
		TrackingNumber: primary.TrackingNumber,
		Carrier:        primary.Carrier,
		ShipmentDate:   primary.CreatedAt.Format(time.RFC3339),
		TotalShipments: total,
		IsPartial:      total > 1,
	})
}

type cancelReq struct {
	Refund bool `json:"refund"`
}

func (h *AdminHandler) cancel(w http.ResponseWriter, r *http.Request) {
	ok := false
	defer func() { recordOrderOperation("cancel", ok) }()

	sess, _ := auth.SessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	var req cancelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if o.Status == orders.StatusCancelled || o.Status == orders.StatusRefunded {
		// double-cancel is surfaced, not silently accepted
		writeError(w, http.StatusConflict, "order already cancelled")
		return
	}

	refundID := ""
	refunded := false
	if req.Refund {
		ref := o.PaymentIntentID
		if ref == "" {
			ref = o.PaymentSessionID
		}
		if ref != "" {
			// Refund strictly before the status write: cancellation must never
			// report success while a requested refund silently failed.
			pi, err := h.Payments.ResolvePaymentIntent(ctx, ref)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			refund, err := h.Payments.CreateRefund(ctx, pi)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			refundID = refund.ID
			refunded = true
		}
	}

	if err := h.Store.FinalizeCancel(ctx, o.ID, refunded); err != nil {
		if errors.Is(err, orders.ErrAlreadyCancelled) {
			writeError(w, http.StatusConflict, "order already cancelled")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.audit(ctx, sess.UserID, "cancel", o.ID, bson.M{"refund": req.Refund, "refund_id": refundID})
	publishEvent(h.Producers.Cancelled, h.Service, orders.EventOrderCancelled, o.ID,
		middleware.GetReqID(r.Context()), orders.OrderCancelledPayload{OrderID: o.ID, RefundID: refundID})

	ok = true
	resp := map[string]any{"success": true}
	if refundID != "" {
		resp["refund_id"] = refundID
	}
	writeJSON(w, http.StatusOK, resp)
}

// Audit failures are logged, never surfaced; the business mutation already
// happened.
func (h *AdminHandler) audit(ctx context.Context, actor, action, orderID string, details bson.M) {
	if h.Audit == nil {
		return
	}
	e := audit.Entry{Actor: actor, Action: action, OrderID: orderID, Details: details}
	if err := h.Audit.Record(ctx, e); err != nil {
		h.Log.Error("audit write failed",
			zap.String("action", action),
			zap.String("order_id", orderID),
			zap.Error(err))
	}
}
