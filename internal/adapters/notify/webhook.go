// Package notify delivers best-effort outcome messages to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Webhook implements ports.Notifier against a Slack-compatible incoming
// webhook. Delivery failures are reported to the caller but must never be
// allowed to replace the primary session outcome; callers log and move on.
type Webhook struct {
	url    string
	client *http.Client
}

var _ ports.Notifier = (*Webhook)(nil)

// NewWebhook creates a Webhook notifier for the given URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type attachment struct {
	Username string   `json:"username"`
	Title    string   `json:"title"`
	Color    string   `json:"color"`
	Text     string   `json:"text"`
	MrkdwnIn []string `json:"mrkdwn_in"`
}

type payload struct {
	Attachments []attachment `json:"attachments"`
}

// Notify posts the notification. Non-2xx responses are errors.
func (w *Webhook) Notify(ctx context.Context, n ports.Notification) error {
	color := "danger"
	if n.Success {
		color = "good"
	}
	body, err := json.Marshal(payload{Attachments: []attachment{{
		Username: "rebake",
		Title:    n.Title,
		Color:    color,
		Text:     n.Text,
		MrkdwnIn: []string{"text"},
	}}})
	if err != nil {
		return zerr.Wrap(err, "failed to encode notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return zerr.Wrap(err, "invalid webhook URL")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return zerr.Wrap(err, "webhook delivery failed")
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zerr.With(zerr.New("webhook returned non-success status"), "status", resp.StatusCode)
	}
	return nil
}

// Noop is the notifier used when notifications are disabled or debug mode
// is active.
type Noop struct{}

var _ ports.Notifier = Noop{}

// Notify discards the notification.
func (Noop) Notify(context.Context, ports.Notification) error { return nil }
