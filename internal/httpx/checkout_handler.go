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
	"go.uber.org/zap"

	"github.com/parcelworks/storefront/internal/auth"
	"github.com/parcelworks/storefront/internal/cart"
	"github.com/parcelworks/storefront/internal/orders"
	"github.com/parcelworks/storefront/internal/payment"
	"github.com/parcelworks/storefront/internal/redisx"
)

// StoreHandler serves the customer-facing surface: catalog, checkout and the
// order-status view.
type StoreHandler struct {
	Store      OrderStore
	Payments   PaymentProvider
	Producers  Publishers
	Cache      Cache
	Log        *zap.Logger
	Service    string
	SuccessURL string
	CancelURL  string
}

func (h *StoreHandler) Register(r chi.Router, requireUser func(http.Handler) http.Handler) {
	r.Get("/products", h.listProducts)
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/checkout", h.createCheckout)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getOrderStatus)
	})
}

type checkoutReq struct {
	Items    []orders.LineInput `json:"items"`
	Shipping orders.Address     `json:"shipping"`
}

func (r checkoutReq) validate() error {
	if len(r.Items) == 0 {
		return errors.New("cart is empty")
	}
	for _, it := range r.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return errors.New("invalid line item")
		}
	}
	s := r.Shipping
	if s.FullName == "" || s.Email == "" || s.Line1 == "" || s.City == "" || s.State == "" || s.Zip == "" {
		return errors.New("incomplete shipping address")
	}
	return nil
}

func (h *StoreHandler) createCheckout(w http.ResponseWriter, r *http.Request) {
	ok := false
	defer func() { recordOrderOperation("checkout", ok) }()

	sess, found := auth.SessionFrom(r.Context())
	if !found {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.Store.LoadProducts(ctx, ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Prices, names and weights come from the catalog, never from the client.
	subtotal, weight := 0, 0
	lineItems := make([]payment.LineItem, 0, len(req.Items)+1)
	snapshots := make([]orders.ItemSnapshot, 0, len(req.Items))
	for _, ln := range req.Items {
		p, found := products[ln.ProductID]
		if !found {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("product not found: %s", ln.ProductID))
			return
		}
		if !p.Purchasable() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("product not available: %s", p.Name))
			return
		}
		subtotal += p.PriceCents * ln.Quantity
		weight += p.WeightOz * ln.Quantity
		lineItems = append(lineItems, payment.LineItem{Name: p.Name, UnitAmount: p.PriceCents, Quantity: ln.Quantity})
		snapshots = append(snapshots, orders.ItemSnapshot{
			ProductID: p.ID, ProductName: p.Name, Quantity: ln.Quantity,
			UnitPriceCents: p.PriceCents, ImageURL: p.ImageURL,
		})
	}

	shippingCents := cart.ShippingCost(subtotal, weight)
	if shippingCents > 0 {
		lineItems = append(lineItems, payment.LineItem{Name: "Shipping", UnitAmount: shippingCents, Quantity: 1})
	}

	itemsJSON, _ := json.Marshal(snapshots)
	addrJSON, _ := json.Marshal(req.Shipping)
	psess, err := h.Payments.CreateCheckoutSession(ctx, payment.CheckoutSessionReq{
		LineItems:     lineItems,
		SuccessURL:    h.SuccessURL,
		CancelURL:     h.CancelURL,
		CustomerEmail: req.Shipping.Email,
		Metadata: map[string]string{
			"user_id":  sess.UserID,
			"items":    string(itemsJSON),
			"shipping": string(addrJSON),
		},
	})
	if err != nil {
		h.Log.Error("create checkout session failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	// If the insert fails the customer has no persisted order, so the whole
	// operation reports failure; the stray vendor session simply expires.
	orderID, total, err := h.Store.CreateOrder(ctx, sess.UserID, req.Shipping, req.Items, products, shippingCents, psess.ID)
	if err != nil {
		h.Log.Error("persist order failed", zap.String("session_id", psess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	publishEvent(h.Producers.Created, h.Service, orders.EventOrderCreated, orderID,
		middleware.GetReqID(r.Context()), orders.OrderCreatedPayload{
			OrderID: orderID, UserID: sess.UserID, Items: snapshots, TotalCents: total,
		})

	ok = true
	writeJSON(w, http.StatusCreated, map[string]string{"url": psess.URL, "order_id": orderID})
}

func (h *StoreHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Store.ListProducts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

type orderView struct {
	ID                string                   `json:"id"`
	Status            orders.Status            `json:"status"`
	FulfillmentStatus orders.FulfillmentStatus `json:"fulfillment_status"`
	TrackingNumber    string                   `json:"tracking_number,omitempty"`
	Carrier           string                   `json:"carrier,omitempty"`
	TotalCents        int                      `json:"total_cents"`
	ShippingCents     int                      `json:"shipping_cents"`
	Shipping          orders.Address           `json:"shipping"`
	Items             []orderItemView          `json:"items"`
	CreatedAt         time.Time                `json:"created_at"`
}

type orderItemView struct {
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

func (h *StoreHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Store.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil || (o.UserID != sess.UserID && !sess.Admin) {
		// non-owners get the same 404 as a missing order
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	items, err := h.Store.GetItems(ctx, o.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := orderView{
		ID: o.ID, Status: o.Status, FulfillmentStatus: o.FulfillmentStatus,
		TrackingNumber: o.TrackingNumber, Carrier: o.Carrier,
		TotalCents: o.TotalCents, ShippingCents: o.ShippingCents,
		Shipping: o.Shipping, CreatedAt: o.CreatedAt,
	}
	for _, it := range items {
		view.Items = append(view.Items, orderItemView{
			ProductName: it.ProductName, Quantity: it.Quantity, UnitPriceCents: it.UnitPriceCents,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// getOrderStatus is the cheap polling endpoint behind the order-confirmation
// page; it serves from the redis cache when it can.
func (h *StoreHandler) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFrom(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Cache.Get(ctx, key); err == nil && s != "" {
		var cached struct {
			UserID string `json:"user_id"`
		}
		if json.Unmarshal([]byte(s), &cached) == nil && (cached.UserID == sess.UserID || sess.Admin) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Store.GetOrder(ctx, orderID)
	if err != nil || (o.UserID != sess.UserID && !sess.Admin) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	body, _ := json.Marshal(map[string]any{
		"user_id":            o.UserID,
		"status":             o.Status,
		"fulfillment_status": o.FulfillmentStatus,
		"tracking_number":    o.TrackingNumber,
		"carrier":            o.Carrier,
	})
	_ = h.Cache.Set(ctx, key, string(body), redisx.TTLStatusCache)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
