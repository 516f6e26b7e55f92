// Copyright 2024-2026 Aiku AI

// Package discord delivers formatted posts to Discord-compatible channel
// webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiku/tweetbridge/pkg/forwarder/tweetfmt"
	"github.com/aiku/tweetbridge/pkg/subs"
)

// WebhookSender implements the forwarder's Delivery interface by POSTing
// embed payloads to per-channel webhook URLs.
type WebhookSender struct {
	client   *http.Client
	webhooks map[string]string
	log      zerolog.Logger
}

// NewWebhookSender creates a sender over a channel ID -> webhook URL map.
func NewWebhookSender(webhooks map[string]string, log zerolog.Logger) *WebhookSender {
	return &WebhookSender{
		client:   &http.Client{Timeout: 15 * time.Second},
		webhooks: webhooks,
		log:      log.With().Str("component", "webhook_sender").Logger(),
	}
}

// webhookPayload is the wire shape webhooks accept.
type webhookPayload struct {
	Content string           `json:"content,omitempty"`
	Embeds  []tweetfmt.Embed `json:"embeds,omitempty"`
}

// resolve maps a destination to its webhook URL. Direct-message
// destinations use the same map; a missing entry is a configuration error.
func (s *WebhookSender) resolve(dest subs.Destination) (string, error) {
	url, ok := s.webhooks[dest.ChannelID]
	if !ok {
		return "", fmt.Errorf("no webhook configured for channel %s", dest.ChannelID)
	}
	return url, nil
}

// SendEmbed delivers a formatted post. Extra file attachments ride along as
// plain links in the message content so the client unfurls them.
func (s *WebhookSender) SendEmbed(ctx context.Context, dest subs.Destination, msg *tweetfmt.Message) error {
	payload := webhookPayload{
		Content: strings.Join(msg.Files, "\n"),
		Embeds:  []tweetfmt.Embed{msg.Embed},
	}
	return s.post(ctx, dest, payload)
}

// SendText delivers a plain message, such as the broadcast-attention ping.
func (s *WebhookSender) SendText(ctx context.Context, dest subs.Destination, text string) error {
	return s.post(ctx, dest, webhookPayload{Content: text})
}

func (s *WebhookSender) post(ctx context.Context, dest subs.Destination, payload webhookPayload) error {
	url, err := s.resolve(dest)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook rejected message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	s.log.Debug().Str("channel_id", dest.ChannelID).Bool("is_direct", dest.IsDirect).Msg("Delivered message")
	return nil
}
