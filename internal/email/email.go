// Package email sends transactional mail. Delivery failures are logged and
// reported as false; they never propagate as errors.
package email

import (
	"context"
	"log/slog"

	"socialhub/internal/config"
	"socialhub/internal/middleware"
	"socialhub/internal/observability"

	"github.com/resend/resend-go/v2"
)

// Sender delivers one HTML message and reports whether it was accepted.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) bool
}

// NewSender returns a Resend-backed sender, or a LogSender when no API key is configured.
func NewSender(cfg *config.Config) Sender {
	if cfg.ResendAPIKey == "" {
		middleware.Logger.Warn("RESEND_API_KEY not set, emails will only be logged")
		return LogSender{}
	}
	return NewResendSender(cfg.ResendAPIKey, cfg.ResendFromEmail)
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) bool {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		observability.EmailsSent.WithLabelValues(observability.OutcomeFailure).Inc()
		middleware.Logger.ErrorContext(ctx, "failed to send email",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		return false
	}
	observability.EmailsSent.WithLabelValues(observability.OutcomeSuccess).Inc()
	middleware.Logger.InfoContext(ctx, "email sent", slog.String("id", sent.Id), slog.String("subject", subject))
	return true
}

// LogSender writes the subject to the log instead of sending. It always succeeds.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, _ string) bool {
	middleware.Logger.InfoContext(ctx, "email delivery disabled, message dropped",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return true
}
