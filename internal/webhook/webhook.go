// Package webhook sends Discord webhook notifications for shard lifecycle
// changes, so an operator hears about a dead session without watching logs.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Notifier sends Discord webhook notifications. A nil Notifier is valid and
// does nothing, so callers never need to branch on whether notifications
// are configured.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     zerolog.Logger
}

// Embed represents a Discord embed object.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
}

// Field represents a Discord embed field.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Payload represents a Discord webhook message.
type Payload struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

// Colors for different notification types.
const (
	ColorRed    = 0xFF0000 // fatal
	ColorGreen  = 0x00FF00 // active
	ColorYellow = 0xFFFF00 // reconnecting
)

const notifierUsername = "Shard Monitor"

// NewNotifier creates a webhook notifier. Returns nil if webhookURL is
// empty.
func NewNotifier(webhookURL string, logger zerolog.Logger) *Notifier {
	if webhookURL == "" {
		return nil
	}
	return &Notifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "webhook").Logger(),
	}
}

// NotifyActive reports a shard reaching an active session.
func (n *Notifier) NotifyActive(shard int, sessionID string, resumed bool) {
	if n == nil {
		return
	}

	title := "🟢 Session Established"
	description := "Shard identified and is receiving events."
	if resumed {
		title = "🟢 Session Resumed"
		description = "Shard reattached to its previous session."
	}

	n.send(Embed{
		Title:       title,
		Description: description,
		Color:       ColorGreen,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []Field{
			{Name: "Shard", Value: strconv.Itoa(shard), Inline: true},
			{Name: "Session", Value: sessionID, Inline: true},
		},
	})
}

// NotifyReconnecting reports a shard backing off before its next connect
// attempt.
func (n *Notifier) NotifyReconnecting(shard, attempt int, delay time.Duration) {
	if n == nil {
		return
	}

	n.send(Embed{
		Title:       "🟡 Reconnecting",
		Description: fmt.Sprintf("Connect attempt #%d failed; retrying.", attempt),
		Color:       ColorYellow,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []Field{
			{Name: "Shard", Value: strconv.Itoa(shard), Inline: true},
			{Name: "Retry In", Value: delay.Round(time.Second).String(), Inline: true},
		},
	})
}

// NotifyFatal reports a shard terminating on a non-resumable close code.
func (n *Notifier) NotifyFatal(shard int, reason string) {
	if n == nil {
		return
	}

	n.send(Embed{
		Title:       "🔴 Shard Terminated",
		Description: "The gateway closed the connection with a fatal code; the shard will not reconnect.",
		Color:       ColorRed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Fields: []Field{
			{Name: "Shard", Value: strconv.Itoa(shard), Inline: true},
			{Name: "Reason", Value: reason, Inline: false},
		},
	})
}

// send posts the embed to the webhook URL.
func (n *Notifier) send(embed Embed) {
	payload := Payload{
		Username: notifierUsername,
		Embeds:   []Embed{embed},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to marshal webhook payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to create webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to send webhook")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		n.logger.Error().Int("status", resp.StatusCode).Msg("webhook returned error")
		return
	}

	n.logger.Debug().Msg("webhook sent")
}
