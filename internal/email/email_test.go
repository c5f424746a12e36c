package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendUsesDefaultFrom(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer em_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "em_test", "Parcelworks <orders@parcelworks.example>")
	err := c.Send(context.Background(), Message{
		To:      "jo@example.com",
		Subject: "hello",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Parcelworks <orders@parcelworks.example>", got["from"])
	assert.Equal(t, []any{"jo@example.com"}, got["to"])
	_, hasText := got["text"]
	assert.False(t, hasText)
}

func TestSendFromOverrideAndText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "em_test", "default@x")
	err := c.Send(context.Background(), Message{
		To: "jo@example.com", Subject: "s", HTML: "<p>h</p>",
		Text: "h", From: "Support <support@parcelworks.example>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Support <support@parcelworks.example>", got["from"])
	assert.Equal(t, "h", got["text"])
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid recipient"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "em_test", "default@x")
	err := c.Send(context.Background(), Message{To: "nope", Subject: "s", HTML: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestRenderConfirmation(t *testing.T) {
	subject, html, err := RenderConfirmation(ConfirmationData{
		FullName: "Jo Doe",
		OrderID:  "order-1",
		Items: []LineData{
			{Name: "Mailer 10-pack", Quantity: 2, PriceCents: 1500, ImageURL: "https://cdn/x.png"},
			{Name: "Packing tape", Quantity: 1, PriceCents: 499},
		},
		TotalCents: 4298,
	})
	require.NoError(t, err)
	assert.Equal(t, "Your Parcelworks order is confirmed", subject)
	assert.Contains(t, html, "Jo Doe")
	assert.Contains(t, html, "order-1")
	assert.Contains(t, html, "$42.98")
	assert.Contains(t, html, "https://cdn/x.png")
}

func TestRenderShipping(t *testing.T) {
	subject, html, err := RenderShipping(ShippingData{
		FullName:       "Jo Doe",
		OrderID:        "order-1",
		Carrier:        "ups",
		TrackingNumber: "1Z999",
		TrackingURL:    "https://www.ups.com/track?tracknum=1Z999",
		IsPartial:      true,
		TotalShipments: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Your Parcelworks order has shipped", subject)
	assert.Contains(t, html, "1Z999")
	assert.Contains(t, html, "more packages are on the way")
	assert.Contains(t, html, "1 of 3")

	_, html, err = RenderShipping(ShippingData{FullName: "Jo", OrderID: "o", Carrier: "usps",
		TrackingNumber: "9400", TrackingURL: "https://x", TotalShipments: 1})
	require.NoError(t, err)
	assert.NotContains(t, html, "more packages")
}
