package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
)

// MemoryEventBus fans events out to in-process subscribers. It backs the
// API when Redis is disabled and the CLI.
type MemoryEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.DispatchEvent]struct{}
	closed      bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() providers.EventBus {
	return &MemoryEventBus{
		subscribers: make(map[string]map[chan *entities.DispatchEvent]struct{}),
	}
}

// Publish delivers the event to current subscribers without blocking. A
// full subscriber misses the event.
func (b *MemoryEventBus) Publish(_ context.Context, channel string, event *entities.DispatchEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
	return nil
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DispatchEvent, error) {
	eventChan := make(chan *entities.DispatchEvent, 100)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(eventChan)
		return eventChan, nil
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.DispatchEvent]struct{})
	}
	b.subscribers[channel][eventChan] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *MemoryEventBus) remove(channel string, eventChan chan *entities.DispatchEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

func (b *MemoryEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}
