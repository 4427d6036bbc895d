// Package notify owns outbound announcement delivery: the chat webhook, the
// announcement email, and the fan-out that sends to both at once.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bths-action/club-api/internal/models"
	"github.com/bths-action/club-api/internal/render"
)

// webhookSender and emailSender narrow the channel clients for testing.
type webhookSender interface {
	Send(ctx context.Context, msg WebhookMessage) (*WebhookAck, error)
}

type emailSender interface {
	Send(ctx context.Context, subject, html string) (string, error)
}

// Announcement bundles the rendered artifacts for one dispatch.
type Announcement struct {
	Embed     render.Embed
	Subject   string
	HTML      string
	Publisher models.Publisher
}

// ChannelResult is one channel's outcome: an identifier or a failure.
type ChannelResult struct {
	ID  string
	Err error
}

// DispatchResult collects both channel outcomes. One channel failing while
// the other succeeds is a valid terminal state.
type DispatchResult struct {
	Webhook ChannelResult
	Email   ChannelResult
}

// Dispatcher fans an announcement out to the webhook and email channels.
type Dispatcher struct {
	webhook webhookSender
	mailer  emailSender
	banner  string
	logger  *zap.Logger
}

// NewDispatcher wires the two channels together. banner is the fixed
// call-to-action text prepended to every webhook message.
func NewDispatcher(webhook webhookSender, mailer emailSender, banner string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{webhook: webhook, mailer: mailer, banner: banner, logger: logger}
}

// Dispatch sends to both channels concurrently and waits for both to settle.
// Neither send is retried; a duplicate send would duplicate a user-visible
// announcement.
func (d *Dispatcher) Dispatch(ctx context.Context, ann Announcement) DispatchResult {
	var result DispatchResult
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ack, err := d.webhook.Send(ctx, WebhookMessage{
			Content:   d.banner,
			Username:  ann.Publisher.PreferredName,
			AvatarURL: ann.Publisher.AvatarURL,
			Embeds:    []render.Embed{ann.Embed},
		})
		if err != nil {
			d.logger.Error("webhook dispatch failed", zap.Error(err))
			result.Webhook.Err = err
			return
		}
		result.Webhook.ID = ack.ID
	}()

	go func() {
		defer wg.Done()
		id, err := d.mailer.Send(ctx, ann.Subject, ann.HTML)
		if err != nil {
			d.logger.Error("email dispatch failed", zap.Error(err))
			result.Email.Err = err
			return
		}
		result.Email.ID = id
	}()

	wg.Wait()
	return result
}
