package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/repositories"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

// AnalysisAdapter keeps a single analysis row that each upload overwrites.
type AnalysisAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAnalysisAdapter creates a new analysis adapter
func NewAnalysisAdapter(client *postgres.Client) repositories.AnalysisRepository {
	return &AnalysisAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save overwrites the stored analysis
func (a *AnalysisAdapter) Save(ctx context.Context, record *entities.AnalysisRecord) error {
	if record == nil {
		return apperrors.NewValidationError("analysis record is nil")
	}

	result := record.Result
	if result == nil {
		result = entities.AnalysisResult{}
	}
	data, err := json.Marshal(result)
	if err != nil {
		return apperrors.NewInternalError("failed to encode analysis", err)
	}

	query, args, err := a.db.Insert(analysisTable).
		Prepared(true).
		Rows(goqu.Record{
			"key":           latestAnalysisKey,
			"result":        string(data),
			"file_name":     record.FileName,
			"analysis_date": record.AnalysisDate,
		}).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"result":        goqu.L("EXCLUDED.result"),
			"file_name":     goqu.L("EXCLUDED.file_name"),
			"analysis_date": goqu.L("EXCLUDED.analysis_date"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build analysis upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewUnavailableError("failed to save analysis", err)
	}
	return nil
}

// GetLatest returns the stored analysis
func (a *AnalysisAdapter) GetLatest(ctx context.Context) (*entities.AnalysisRecord, error) {
	query, args, err := a.db.From(analysisTable).
		Prepared(true).
		Select("result", "file_name", "analysis_date").
		Where(goqu.Ex{"key": latestAnalysisKey}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build analysis query", err)
	}

	var (
		raw      []byte
		fileName string
		date     time.Time
	)
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&raw, &fileName, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("no analysis stored yet")
	}
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to read analysis", err)
	}

	result := entities.AnalysisResult{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.NewInternalError("stored analysis is malformed", err)
	}

	return &entities.AnalysisRecord{
		Result:       result,
		FileName:     fileName,
		AnalysisDate: date,
	}, nil
}
