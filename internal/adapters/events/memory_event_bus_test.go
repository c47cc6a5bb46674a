package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
)

func TestMemoryEventBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel := providers.GetDispatchChannel("cycle-1")
	events, err := bus.Subscribe(ctx, channel)
	require.NoError(t, err)

	event := entities.NewDispatchEvent("cycle-1", entities.DispatchEventStarted, nil, 3)
	require.NoError(t, bus.Publish(ctx, channel, event))

	select {
	case got := <-events:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, 3, got.Total)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestMemoryEventBus_OtherChannelNotDelivered(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx := context.Background()
	events, err := bus.Subscribe(ctx, providers.GetDispatchChannel("a"))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, providers.GetDispatchChannel("b"),
		entities.NewDispatchEvent("b", entities.DispatchEventFinished, nil, 0)))

	select {
	case <-events:
		t.Fatal("unexpected event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_ContextCancelClosesChannel(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.Subscribe(ctx, "dispatch:x")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestMemoryEventBus_CloseClosesSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()
	events, err := bus.Subscribe(context.Background(), "dispatch:y")
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, ok := <-events
	assert.False(t, ok)
}
