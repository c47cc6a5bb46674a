package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var notified []int

	err := Do(context.Background(), fastConfig(5), "postgres", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		notified = append(notified, attempt)
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0

	err := Do(context.Background(), fastConfig(3), "redis", func(ctx context.Context) error {
		calls++
		return sentinel
	}, nil)

	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "redis: max retry attempts (3) exceeded")
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(3), "postgres", func(ctx context.Context) error {
		t.Fatal("fn must not run on a cancelled context")
		return nil
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
