// Package notify pushes domain events to the external workflow engine over
// signed webhooks.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Event is one webhook payload.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// Client wraps interactions with the workflow webhook endpoint. Payloads are
// signed with HMAC-SHA256 over the raw body so the receiver can verify origin.
type Client struct {
	endpoint   string
	secret     []byte
	httpClient *http.Client
}

// NewClient constructs a new webhook client. An empty endpoint yields a nil
// client, which Send treats as a no-op.
func NewClient(endpoint, secret string) *Client {
	if endpoint == "" {
		return nil
	}
	return &Client{
		endpoint: endpoint,
		secret:   []byte(secret),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers one event. Delivery is best effort; callers decide whether a
// failure matters.
func (c *Client) Send(ctx context.Context, event Event) error {
	if c == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Kapas-Event", event.Type)
	if len(c.secret) > 0 {
		req.Header.Set("X-Kapas-Signature", c.sign(body))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: deliver event: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) sign(body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
