package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		var req CheckoutSessionReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.LineItems, 2)
		assert.Equal(t, "order-1", req.Metadata["order_ref"])

		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_123", URL: "https://pay.example/cs_123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	sess, err := c.CreateCheckoutSession(context.Background(), CheckoutSessionReq{
		LineItems: []LineItem{
			{Name: "Mailer 10-pack", UnitAmount: 1500, Quantity: 2},
			{Name: "Shipping", UnitAmount: 799, Quantity: 1},
		},
		Metadata: map[string]string{"order_ref": "order-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_123", sess.ID)
	assert.Equal(t, "https://pay.example/cs_123", sess.URL)
}

func TestResolvePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/sessions/cs_123", r.URL.Path)
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_123", PaymentIntent: "pi_456"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")

	// payment-intent refs pass through without a lookup
	pi, err := c.ResolvePaymentIntent(context.Background(), "pi_789")
	require.NoError(t, err)
	assert.Equal(t, "pi_789", pi)

	// session refs resolve via the vendor
	pi, err = c.ResolvePaymentIntent(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, "pi_456", pi)
}

func TestRefundAPIFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"charge already refunded"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	_, err := c.CreateRefund(context.Background(), "pi_456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "charge already refunded")
}
