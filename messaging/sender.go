// Package messaging is the one-way outbound channel for citizen-facing
// notifications. Delivery is best-effort: failures are logged by the caller
// and never roll back the originating change.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"civicfix/models"
)

// Client sends a text message to a recipient. Recipient addressing (phone,
// chat id) is resolved by the external channel; the engine only knows the
// user id.
type Client interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// WebhookSender posts messages to a configured webhook URL as JSON.
type WebhookSender struct {
	url    string
	client *http.Client
}

// NewWebhookSender creates a sender with a per-call timeout
func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type outboundMessage struct {
	RecipientID int64  `json:"recipient_id"`
	Text        string `json:"text"`
}

// Send delivers one message. Any failure maps to ExternalUnavailable.
func (s *WebhookSender) Send(ctx context.Context, recipientID int64, text string) error {
	body, err := json.Marshal(outboundMessage{RecipientID: recipientID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode outbound message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.NewDomainError(models.ErrExternalUnavailable, "messaging send failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 300 {
		return models.NewDomainError(models.ErrExternalUnavailable,
			"messaging channel returned %d", resp.StatusCode)
	}
	return nil
}

// Noop discards every message; used when no channel is configured
type Noop struct{}

// Send does nothing
func (Noop) Send(ctx context.Context, recipientID int64, text string) error { return nil }
