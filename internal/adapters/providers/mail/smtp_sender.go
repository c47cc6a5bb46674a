package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

type smtpDialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPSender sends notification mail through an authenticated SMTP relay.
// The SMTP username is also the From address.
type SMTPSender struct {
	from     string
	fromName string
	client   smtpDialer
}

// NewSMTPSender creates a sender from SMTP settings
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if !cfg.MailConfigured() {
		return nil, apperrors.NewValidationError("SMTP_USERNAME and SMTP_PASSWORD must be set")
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create SMTP client", err)
	}

	return &SMTPSender{
		from:     cfg.Username,
		fromName: cfg.FromName,
		client:   client,
	}, nil
}

// Send delivers one message
func (s *SMTPSender) Send(ctx context.Context, msg *entities.MailMessage) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return apperrors.NewExternalError(fmt.Sprintf("failed to send mail to %s", msg.To), err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(msg *entities.MailMessage) (*gomail.Msg, error) {
	if msg == nil || strings.TrimSpace(msg.To) == "" {
		return nil, apperrors.NewValidationError("mail recipient address is empty")
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.from); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid sender address %q: %v", s.from, err))
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid recipient address %q: %v", msg.To, err))
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	if msg.TextBody != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

var _ providers.MailSender = (*SMTPSender)(nil)
