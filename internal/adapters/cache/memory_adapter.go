package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is a process-local CacheProvider used when Redis is disabled
// and by the CLI, where a cycle never outlives the process.
type MemoryAdapter struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryAdapter creates an in-memory cache
func NewMemoryAdapter() providers.CacheProvider {
	return newMemoryAdapter(time.Now)
}

func newMemoryAdapter(now func() time.Time) *MemoryAdapter {
	return &MemoryAdapter{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// lookup returns the live entry for key, evicting it if expired. Callers
// hold the lock.
func (a *MemoryAdapter) lookup(key string) (memoryEntry, bool) {
	entry, ok := a.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !a.now().Before(entry.expiresAt) {
		delete(a.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.lookup(key)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cache key %s", key))
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores a copy of value. A non-positive expiration keeps it until
// deleted.
func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := memoryEntry{value: stored}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}

	a.mu.Lock()
	a.entries[key] = entry
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	delete(a.entries, key)
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.lookup(key)
	return ok, nil
}
