package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bths-action/club-api/internal/render"
	"github.com/bths-action/club-api/pkg/config"
)

// WebhookMessage is the JSON body posted to the chat webhook. The publisher's
// display identity becomes the message's apparent sender.
type WebhookMessage struct {
	Content   string         `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []render.Embed `json:"embeds"`
}

// WebhookAck is the synchronous acknowledgment returned by the webhook when
// asked to wait. The id is required for later edit/delete.
type WebhookAck struct {
	ID string `json:"id"`
}

// WebhookClient talks to a single pre-configured chat webhook endpoint.
type WebhookClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookClient builds a client for the configured endpoint.
func NewWebhookClient(cfg config.WebhookConfig, logger *zap.Logger) *WebhookClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Send posts a message and waits for the acknowledgment carrying the new
// message's identifier.
func (c *WebhookClient) Send(ctx context.Context, msg WebhookMessage) (*WebhookAck, error) {
	if c.url == "" {
		return nil, fmt.Errorf("webhook URL not configured")
	}

	body, err := c.do(ctx, http.MethodPost, c.url+"?wait=true", msg)
	if err != nil {
		return nil, err
	}

	var ack WebhookAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, fmt.Errorf("decode webhook ack: %w", err)
	}
	if ack.ID == "" {
		return nil, fmt.Errorf("webhook ack missing message id")
	}
	return &ack, nil
}

// Edit rewrites a previously sent message in place. Editing an unknown
// identifier is a no-op.
func (c *WebhookClient) Edit(ctx context.Context, messageID string, msg WebhookMessage) error {
	if messageID == "" {
		return nil
	}
	_, err := c.do(ctx, http.MethodPatch, c.url+"/messages/"+messageID, msg)
	return err
}

// Delete removes a previously sent message. Deleting an unknown or empty
// identifier is a no-op, not an error.
func (c *WebhookClient) Delete(ctx context.Context, messageID string) error {
	if messageID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url+"/messages/"+messageID, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete webhook message: status %d", resp.StatusCode)
	}
	return nil
}

func (c *WebhookClient) do(ctx context.Context, method, url string, msg WebhookMessage) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("webhook request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("method", method))
		return nil, fmt.Errorf("webhook request failed: status %d", resp.StatusCode)
	}
	return body, nil
}
