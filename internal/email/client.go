// Package email delivers transactional mail through the hosted provider.
// There is no retry here; callers treat failure as non-fatal and only log it.
package email

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
	baseURL     string
	apiKey      string
	defaultFrom string
	http        *http.Client
}

func NewClient(baseURL, apiKey, defaultFrom string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		defaultFrom: defaultFrom,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string // optional
	From    string // optional override
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = c.defaultFrom
	}
	body := map[string]any{
		"from":    from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.Text != "" {
		body["text"] = msg.Text
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
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
			return fmt.Errorf("email api %s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("email api %s", resp.Status)
	}
	return nil
}
