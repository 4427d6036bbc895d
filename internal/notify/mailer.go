package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/bths-action/club-api/pkg/config"
)

// Mailer sends announcement email through Resend. The recipient address is a
// distribution managed by the mail provider; subscription handling is not
// this service's concern.
type Mailer struct {
	client  *resend.Client
	from    string
	to      string
	enabled bool
	logger  *zap.Logger
}

// NewMailer builds a Mailer from email configuration.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mailer{
		from:    cfg.From,
		to:      cfg.To,
		enabled: cfg.Enabled,
		logger:  logger,
	}
	if cfg.Enabled {
		m.client = resend.NewClient(cfg.APIKey)
	}
	return m
}

// NewMailerWithClient allows injecting a pre-built Resend client, used by
// tests to point at a fake API.
func NewMailerWithClient(client *resend.Client, from, to string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{client: client, from: from, to: to, enabled: true, logger: logger}
}

// Send dispatches one HTML email and returns the provider-assigned id.
// A disabled mailer silently drops the send; the announcement record and
// webhook message do not depend on it.
func (m *Mailer) Send(ctx context.Context, subject, html string) (string, error) {
	if !m.enabled {
		m.logger.Debug("email disabled, skipping send", zap.String("subject", subject))
		return "", nil
	}
	if m.client == nil {
		return "", fmt.Errorf("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: subject,
		Html:    html,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn("resend rate limit exceeded",
				zap.String("limit", rateLimitErr.Limit),
				zap.String("remaining", rateLimitErr.Remaining),
				zap.String("reset", rateLimitErr.Reset))
			return "", fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return "", fmt.Errorf("resend API error: %w", err)
	}

	m.logger.Info("announcement email sent",
		zap.String("email_id", sent.Id),
		zap.String("subject", subject))
	return sent.Id, nil
}
