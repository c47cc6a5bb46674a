package repositories

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

// AnalysisRepository persists the analysis of the most recent upload.
type AnalysisRepository interface {
	// Save overwrites the stored analysis wholesale.
	Save(ctx context.Context, record *entities.AnalysisRecord) error

	// GetLatest returns the stored analysis, or a NotFound error.
	GetLatest(ctx context.Context) (*entities.AnalysisRecord, error)
}
