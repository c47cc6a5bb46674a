package mail

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
)

// LogSender writes messages to the log instead of sending them. Used in
// development when no SMTP account is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg *entities.MailMessage) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("text_bytes", len(msg.TextBody)).
		Msg("mail not sent: SMTP not configured")
	return nil
}

// NewMailSender returns an SMTP sender when credentials are configured and a
// LogSender otherwise.
func NewMailSender(cfg config.SMTPConfig) (providers.MailSender, error) {
	if !cfg.MailConfigured() {
		log.Warn().Msg("SMTP credentials missing, mail will only be logged")
		return LogSender{}, nil
	}
	return NewSMTPSender(cfg)
}
