// Package payment is a thin client for the hosted-checkout payment vendor:
// session creation, session lookup and refunds, plus webhook signature
// verification. The vendor owns everything behind these endpoints.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int    `json:"unit_amount"` // cents
	Quantity   int    `json:"quantity"`
}

type CheckoutSessionReq struct {
	LineItems     []LineItem        `json:"line_items"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentIntent string `json:"payment_intent,omitempty"`
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionReq) (CheckoutSession, error) {
	var out CheckoutSession
	err := c.post(ctx, "/checkout/sessions", req, &out)
	return out, err
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	var out CheckoutSession
	err := c.get(ctx, "/checkout/sessions/"+sessionID, &out)
	return out, err
}

func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) (Refund, error) {
	var out Refund
	err := c.post(ctx, "/refunds", map[string]string{"payment_intent": paymentIntentID}, &out)
	return out, err
}

// ResolvePaymentIntent accepts either a checkout-session id (cs_*) or a
// payment-intent id and returns the payment-intent id, looking the session
// up when needed.
func (c *Client) ResolvePaymentIntent(ctx context.Context, ref string) (string, error) {
	if !strings.HasPrefix(ref, "cs_") {
		return ref, nil
	}
	sess, err := c.GetCheckoutSession(ctx, ref)
	if err != nil {
		return "", err
	}
	if sess.PaymentIntent == "" {
		return "", fmt.Errorf("session %s has no payment intent", ref)
	}
	return sess.PaymentIntent, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("payment api %s: %s", resp.Status, apiErr.Error.Message)
		}
		return fmt.Errorf("payment api %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
