package providers

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// CalendarProvider creates events on a recipient's calendar using their
// stored credentials.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, token *entities.CalendarToken, event *entities.CalendarEvent) error
}
