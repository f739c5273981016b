package notification

import (
	"context"
	"log/slog"

	"github.com/wneessen/go-mail"

	"certmint/internal/platform/config"
	"certmint/internal/platform/metrics"
)

// Mailer delivers HTML mail over SMTPS. Send is strictly advisory: it
// returns false on any failure and never an error, so core operations
// (registration, minting) cannot be failed by a broken relay.
type Mailer struct {
	cfg     config.SMTPConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewMailer(cfg config.SMTPConfig, logger *slog.Logger, m *metrics.Metrics) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, metrics: m}
}

func (m *Mailer) Send(ctx context.Context, to, subject, html string) bool {
	if m.cfg.Host == "" {
		m.logger.DebugContext(ctx, "smtp not configured, skipping mail", "to", to)
		return false
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		m.observeFailure(ctx, to, err)
		return false
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		m.observeFailure(ctx, to, err)
		return false
	}
	if err := msg.To(to); err != nil {
		m.observeFailure(ctx, to, err)
		return false
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		m.observeFailure(ctx, to, err)
		return false
	}

	if m.metrics != nil {
		m.metrics.EmailsSent.WithLabelValues("sent").Inc()
	}
	return true
}

func (m *Mailer) observeFailure(ctx context.Context, to string, err error) {
	m.logger.WarnContext(ctx, "mail delivery failed",
		"to", to,
		"error", err,
	)
	if m.metrics != nil {
		m.metrics.EmailsSent.WithLabelValues("failed").Inc()
	}
}
