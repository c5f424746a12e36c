// Package shipping talks to the fulfillment vendor: submitting orders for
// physical dispatch and pulling shipment/tracking state back.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
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

type FulfillmentItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type FulfillmentOrderReq struct {
	Reference string            `json:"reference"` // our order id
	Recipient Recipient         `json:"recipient"`
	Items     []FulfillmentItem `json:"items"`
}

type Recipient struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
}

type FulfillmentOrder struct {
	ID string `json:"id"`
}

type Shipment struct {
	ID             string    `json:"id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Voided         bool      `json:"voided"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Client) CreateFulfillmentOrder(ctx context.Context, req FulfillmentOrderReq) (FulfillmentOrder, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return FulfillmentOrder{}, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/fulfillment-orders", bytes.NewReader(b))
	if err != nil {
		return FulfillmentOrder{}, err
	}
	hreq.Header.Set("Content-Type", "application/json")

	var out FulfillmentOrder
	if err := c.do(hreq, &out); err != nil {
		return FulfillmentOrder{}, err
	}
	return out, nil
}

// ListShipments returns every shipment the vendor has for one of our
// fulfillment orders, voided ones included; callers filter.
func (c *Client) ListShipments(ctx context.Context, fulfillmentOrderID string) ([]Shipment, error) {
	u := c.baseURL + "/shipments?fulfillment_order_id=" + url.QueryEscape(fulfillmentOrderID)
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		Shipments []Shipment `json:"shipments"`
	}
	if err := c.do(hreq, &out); err != nil {
		return nil, err
	}
	return out.Shipments, nil
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
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("shipping api %s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("shipping api %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Primary picks the shipment the customer should be pointed at: the most
// recently created non-voided shipment that carries a tracking number.
// total is the count of qualifying shipments; >1 means a partial fulfillment
// with more packages on the way.
func Primary(shipments []Shipment) (primary Shipment, total int, ok bool) {
	for _, s := range shipments {
		if s.Voided || s.TrackingNumber == "" {
			continue
		}
		total++
		if !ok || s.CreatedAt.After(primary.CreatedAt) {
			primary = s
			ok = true
		}
	}
	return primary, total, ok
}
