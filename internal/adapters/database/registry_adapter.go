package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/repositories"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

type registryRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

// RegistryAdapter stores registry records as JSONB rows keyed by scope and
// key.
type RegistryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewRegistryAdapter creates a new registry adapter
func NewRegistryAdapter(client *postgres.Client) repositories.RegistryRepository {
	return &RegistryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// Get retrieves one record
func (a *RegistryAdapter) Get(ctx context.Context, scope, key string) (map[string]interface{}, error) {
	query, args, err := a.db.From(registryTable).
		Prepared(true).
		Select("value").
		Where(goqu.Ex{"scope": scope, "key": key}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build registry get query", err)
	}

	var raw []byte
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("registry record %s/%s", scope, key))
	}
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to read registry", err)
	}

	value, err := decodeValue(raw)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("registry record %s/%s is not an object", scope, key), err)
	}
	return value, nil
}

// Children lists every record in a scope
func (a *RegistryAdapter) Children(ctx context.Context, scope string) (map[string]map[string]interface{}, error) {
	query, args, err := a.db.From(registryTable).
		Prepared(true).
		Select("key", "value").
		Where(goqu.Ex{"scope": scope}).
		Order(goqu.C("key").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build registry list query", err)
	}

	var rows []registryRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewUnavailableError("failed to read registry", err)
	}

	out := make(map[string]map[string]interface{}, len(rows))
	for _, row := range rows {
		value, err := decodeValue(row.Value)
		if err != nil {
			// malformed records are dropped, not fatal to the scope
			continue
		}
		out[row.Key] = value
	}
	return out, nil
}

// Set replaces a record
func (a *RegistryAdapter) Set(ctx context.Context, scope, key string, value map[string]interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("registry record %s/%s cannot be encoded: %v", scope, key, err))
	}

	query, args, err := a.db.Insert(registryTable).
		Prepared(true).
		Rows(goqu.Record{
			"scope":      scope,
			"key":        key,
			"value":      string(data),
			"updated_at": a.now(),
		}).
		OnConflict(goqu.DoUpdate("scope, key", goqu.Record{
			"value":      goqu.L("EXCLUDED.value"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build registry upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewUnavailableError("failed to write registry", err)
	}
	return nil
}

// Update merges fields into an existing record
func (a *RegistryAdapter) Update(ctx context.Context, scope, key string, fields map[string]interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("registry fields for %s/%s cannot be encoded: %v", scope, key, err))
	}

	query, args, err := a.db.Update(registryTable).
		Prepared(true).
		Set(goqu.Record{
			"value":      goqu.L("value || ?::jsonb", string(data)),
			"updated_at": a.now(),
		}).
		Where(goqu.Ex{"scope": scope, "key": key}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build registry update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewUnavailableError("failed to update registry", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("registry record %s/%s", scope, key))
	}
	return nil
}

// Delete removes a record
func (a *RegistryAdapter) Delete(ctx context.Context, scope, key string) error {
	query, args, err := a.db.Delete(registryTable).
		Prepared(true).
		Where(goqu.Ex{"scope": scope, "key": key}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build registry delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewUnavailableError("failed to delete registry record", err)
	}
	return nil
}

func decodeValue(raw []byte) (map[string]interface{}, error) {
	value := make(map[string]interface{})
	if len(raw) == 0 {
		return value, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
