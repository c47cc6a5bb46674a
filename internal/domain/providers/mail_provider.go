package providers

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// MailSender delivers rendered notification emails.
type MailSender interface {
	Send(ctx context.Context, msg *entities.MailMessage) error
}
