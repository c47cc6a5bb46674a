package providers

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DispatchEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DispatchEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelDispatchPrefix is the prefix for per-cycle dispatch channels
const EventChannelDispatchPrefix = "dispatch:"

// GetDispatchChannel returns the channel name for a dispatch cycle
func GetDispatchChannel(cycleID string) string {
	return EventChannelDispatchPrefix + cycleID
}
