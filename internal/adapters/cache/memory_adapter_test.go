package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

func TestMemoryAdapter_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter()

	require.NoError(t, c.Set(ctx, "cycle:1", []byte("payload"), 60))

	got, err := c.Get(ctx, "cycle:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	exists, err := c.Exists(ctx, "cycle:1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryAdapter_MissingKeyIsNotFound(t *testing.T) {
	_, err := NewMemoryAdapter().Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	c := newMemoryAdapter(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10))

	now = now.Add(9 * time.Second)
	exists, _ := c.Exists(ctx, "k")
	assert.True(t, exists)

	now = now.Add(time.Second)
	exists, _ = c.Exists(ctx, "k")
	assert.False(t, exists)

	_, err := c.Get(ctx, "k")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestMemoryAdapter_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter()

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, c.Delete(ctx, "k"))
	exists, _ := c.Exists(ctx, "k")
	assert.False(t, exists)
}
