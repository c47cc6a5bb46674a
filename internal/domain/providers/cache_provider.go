package providers

import (
	"context"
)

// CacheProvider holds uploaded cycles between the upload request and the
// operator's dispatch. Get reports a missing or expired key as a NotFound
// AppError.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for expirationSeconds; zero keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)
}
