package database

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

const (
	registryTable = "registry_entries"
	analysisTable = "ocs_analysis"

	latestAnalysisKey = "latest"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS registry_entries (
		scope      TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      JSONB       NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (scope, key)
	)`,
	`CREATE TABLE IF NOT EXISTS ocs_analysis (
		key           TEXT        PRIMARY KEY,
		result        JSONB       NOT NULL,
		file_name     TEXT        NOT NULL,
		analysis_date TIMESTAMPTZ NOT NULL
	)`,
}

// InitSchema creates the registry and analysis tables if they are missing.
func InitSchema(ctx context.Context, client *postgres.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return apperrors.NewInternalError("failed to initialize schema", err)
		}
	}
	return nil
}
