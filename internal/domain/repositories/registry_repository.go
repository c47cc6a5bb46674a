package repositories

import (
	"context"
)

// RegistryRepository is a key/value registry organised in scopes such as
// "users", "doctor_users" and "patients/{userKey}". Values are JSON objects.
type RegistryRepository interface {
	// Get returns one record, or a NotFound error.
	Get(ctx context.Context, scope, key string) (map[string]interface{}, error)

	// Children returns every record in a scope keyed by record key. An empty
	// scope yields an empty map, not an error.
	Children(ctx context.Context, scope string) (map[string]map[string]interface{}, error)

	// Set replaces a record.
	Set(ctx context.Context, scope, key string, value map[string]interface{}) error

	// Update merges fields into an existing record.
	Update(ctx context.Context, scope, key string, fields map[string]interface{}) error

	// Delete removes a record.
	Delete(ctx context.Context, scope, key string) error
}
