package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/repositories"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

const cycleCachePrefix = "ocs:cycle:"

// OCSServiceDeps groups the collaborators of OCSService. Decryptor, Metrics
// and Events may be nil.
type OCSServiceDeps struct {
	Loader     providers.SpreadsheetLoader
	Classifier providers.FileClassifier
	Decryptor  providers.Decryptor
	Registry   repositories.RegistryRepository
	Analysis   repositories.AnalysisRepository
	Cache      providers.CacheProvider
	Dispatcher *Dispatcher
	Summarizer *Summarizer
	Metrics    *observability.Metrics
	UploadTTL  time.Duration
}

// OCSService runs upload, match and dispatch cycles for OCS exports.
type OCSService struct {
	loader       providers.SpreadsheetLoader
	classifier   providers.FileClassifier
	decryptor    providers.Decryptor
	registry     repositories.RegistryRepository
	analysis     repositories.AnalysisRepository
	cache        providers.CacheProvider
	dispatcher   *Dispatcher
	summarizer   *Summarizer
	standardizer *Standardizer
	matcher      *Matcher
	metrics      *observability.Metrics
	uploadTTL    time.Duration
	now          func() time.Time
}

// NewOCSService creates a new OCS service
func NewOCSService(deps OCSServiceDeps) *OCSService {
	ttl := deps.UploadTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &OCSService{
		loader:       deps.Loader,
		classifier:   deps.Classifier,
		decryptor:    deps.Decryptor,
		registry:     deps.Registry,
		analysis:     deps.Analysis,
		cache:        deps.Cache,
		dispatcher:   deps.Dispatcher,
		summarizer:   deps.Summarizer,
		standardizer: NewStandardizer(),
		matcher:      NewMatcher(),
		metrics:      deps.Metrics,
		uploadTTL:    ttl,
		now:          time.Now,
	}
}

// Upload loads a file, stores its analysis, caches the cycle for a later
// dispatch and returns a summary including a match preview.
func (s *OCSService) Upload(ctx context.Context, fileName string, data []byte, password string) (*entities.UploadSummary, error) {
	ctx, span := observability.StartSpan(ctx, "OCSService.Upload")
	defer span.End()

	cycle, analysis, err := s.prepare(ctx, fileName, data, password)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	snapshot, err := LoadRegistrySnapshot(ctx, s.registry)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	matches := s.match(ctx, cycle, snapshot)

	if err := s.storeCycle(ctx, cycle); err != nil {
		return nil, err
	}
	if err := s.saveAnalysis(ctx, cycle, analysis); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	return summarize(cycle, analysis, matches), nil
}

// Preview re-matches a cached upload against the current registry.
func (s *OCSService) Preview(ctx context.Context, cycleID string) (*entities.MatchResult, error) {
	cycle, err := s.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	snapshot, err := LoadRegistrySnapshot(ctx, s.registry)
	if err != nil {
		return nil, err
	}
	return s.match(ctx, cycle, snapshot), nil
}

// Dispatch notifies recipients of a cached upload. The registry is read once
// at the start.
func (s *OCSService) Dispatch(ctx context.Context, cycleID string, req entities.DispatchRequest) (*entities.DispatchReport, error) {
	ctx, span := observability.StartSpan(ctx, "OCSService.Dispatch")
	defer span.End()

	cycle, err := s.loadCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, cycle, req)
}

// Run performs a whole cycle for one file without caching it.
func (s *OCSService) Run(ctx context.Context, fileName string, data []byte, password string, req entities.DispatchRequest) (*entities.DispatchReport, error) {
	ctx, span := observability.StartSpan(ctx, "OCSService.Run")
	defer span.End()

	cycle, analysis, err := s.prepare(ctx, fileName, data, password)
	if err != nil {
		return nil, err
	}
	report, err := s.dispatch(ctx, cycle, req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	// Notifications are already sent, so a failed save is only logged.
	if err := s.saveAnalysis(ctx, cycle, analysis); err != nil {
		observability.CycleLogger(ctx, cycle.ID, fileName).Error().Err(err).Msg("failed to store analysis")
	}
	return report, nil
}

// Discard drops a cached upload so it can no longer be previewed or
// dispatched. The stored analysis is kept.
func (s *OCSService) Discard(ctx context.Context, cycleID string) error {
	if _, err := uuid.Parse(cycleID); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid upload id %q", cycleID))
	}

	key := cycleCachePrefix + cycleID
	exists, err := s.cache.Exists(ctx, key)
	if err != nil {
		return apperrors.NewUnavailableError("failed to read cached upload", err)
	}
	if !exists {
		return apperrors.NewNotFoundError(fmt.Sprintf("upload %s not found or expired", cycleID))
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return apperrors.NewUnavailableError("failed to discard upload", err)
	}

	observability.LoggerFromContext(ctx).Info().Str("cycle_id", cycleID).Msg("upload discarded")
	return nil
}

// LatestAnalysis returns the analysis stored by the most recent successful
// cycle.
func (s *OCSService) LatestAnalysis(ctx context.Context) (*entities.AnalysisRecord, error) {
	return s.analysis.GetLatest(ctx)
}

func (s *OCSService) dispatch(ctx context.Context, cycle *entities.Cycle, req entities.DispatchRequest) (*entities.DispatchReport, error) {
	snapshot, err := LoadRegistrySnapshot(ctx, s.registry)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Dispatch(ctx, cycle, s.match(ctx, cycle, snapshot), req)
}

// prepare turns an upload into a cycle and its analysis. Nothing is persisted
// here; callers save the analysis once the cycle has succeeded.
func (s *OCSService) prepare(ctx context.Context, fileName string, data []byte, password string) (*entities.Cycle, entities.AnalysisResult, error) {
	if len(data) == 0 {
		return nil, nil, apperrors.NewValidationError("uploaded file is empty")
	}

	if s.classifier.IsEncrypted(data) {
		plain, err := s.decrypt(data, password)
		if err != nil {
			return nil, nil, err
		}
		data = plain
	}

	workbook, err := s.loader.Load(ctx, fileName, data)
	if err != nil {
		return nil, nil, err
	}

	cycle := s.BuildCycle(workbook, s.classifier.IsDailySchedule(fileName))
	if len(cycle.Sheets) == 0 {
		return nil, nil, apperrors.NewValidationError(fmt.Sprintf("no sheet in %s has the columns %s", fileName, strings.Join(entities.RequiredColumns, ", ")))
	}

	analysis := s.summarizer.Summarize(cycle.Sheets)

	observability.RecordUpload(ctx, s.metrics, cycle.IsDaily)
	observability.CycleLogger(ctx, cycle.ID, fileName).Info().
		Bool("daily", cycle.IsDaily).
		Int("sheets", len(cycle.Sheets)).
		Int("skipped", len(cycle.Skipped)).
		Msg("upload prepared")

	return cycle, analysis, nil
}

func (s *OCSService) saveAnalysis(ctx context.Context, cycle *entities.Cycle, analysis entities.AnalysisResult) error {
	return s.analysis.Save(ctx, &entities.AnalysisRecord{
		Result:       analysis,
		FileName:     cycle.FileName,
		AnalysisDate: cycle.UploadedAt,
	})
}

func (s *OCSService) decrypt(data []byte, password string) ([]byte, error) {
	if s.decryptor == nil {
		return nil, apperrors.NewValidationError("file is password protected and decryption is not available; upload an unprotected export")
	}
	if password == "" {
		return nil, apperrors.NewValidationError("file is password protected; a password is required")
	}
	plain, err := s.decryptor.Decrypt(data, password)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("file could not be decrypted: %v", err))
	}
	if len(plain) == 0 {
		return nil, apperrors.NewValidationError("decrypted file is empty")
	}
	return plain, nil
}

// BuildCycle standardizes every sheet of a workbook. Sheets that cannot be
// standardized or whose name matches no department are listed as skipped.
func (s *OCSService) BuildCycle(workbook *entities.Workbook, daily bool) *entities.Cycle {
	cycle := &entities.Cycle{
		ID:         uuid.New().String(),
		FileName:   workbook.FileName,
		IsDaily:    daily,
		UploadedAt: s.now(),
		Sheets:     []entities.StandardizedSheet{},
	}

	for _, table := range workbook.Sheets {
		sheet, ok := s.standardizer.StandardizeSheet(table)
		if !ok {
			cycle.Skipped = append(cycle.Skipped, entities.SkippedSheet{
				Name:   table.Name,
				Reason: "missing columns: " + strings.Join(MissingColumns(table), ", "),
			})
			continue
		}
		if sheet.Department == "" {
			cycle.Skipped = append(cycle.Skipped, entities.SkippedSheet{
				Name:   table.Name,
				Reason: "sheet name matches no department",
			})
		}
		cycle.Sheets = append(cycle.Sheets, sheet)
	}
	return cycle
}

func (s *OCSService) match(ctx context.Context, cycle *entities.Cycle, snapshot *entities.RegistrySnapshot) *entities.MatchResult {
	matches := s.matcher.Match(cycle.Sheets, snapshot)
	for _, u := range matches.Users {
		observability.RecordMatchedRows(ctx, s.metrics, string(entities.RecipientUser), len(u.Rows))
	}
	for _, d := range matches.Doctors {
		observability.RecordMatchedRows(ctx, s.metrics, string(entities.RecipientDoctor), len(d.Rows))
	}
	return matches
}

func (s *OCSService) storeCycle(ctx context.Context, cycle *entities.Cycle) error {
	data, err := json.Marshal(cycle)
	if err != nil {
		return apperrors.NewInternalError("failed to encode upload", err)
	}
	if err := s.cache.Set(ctx, cycleCachePrefix+cycle.ID, data, int(s.uploadTTL.Seconds())); err != nil {
		return apperrors.NewUnavailableError("failed to cache upload", err)
	}
	return nil
}

func (s *OCSService) loadCycle(ctx context.Context, cycleID string) (*entities.Cycle, error) {
	if _, err := uuid.Parse(cycleID); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid upload id %q", cycleID))
	}

	data, err := s.cache.Get(ctx, cycleCachePrefix+cycleID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("upload %s not found or expired", cycleID))
		}
		return nil, apperrors.NewUnavailableError("failed to read cached upload", err)
	}

	var cycle entities.Cycle
	if err := json.Unmarshal(data, &cycle); err != nil {
		return nil, apperrors.NewInternalError("cached upload is malformed", err)
	}
	return &cycle, nil
}

func summarize(cycle *entities.Cycle, analysis entities.AnalysisResult, matches *entities.MatchResult) *entities.UploadSummary {
	summary := &entities.UploadSummary{
		CycleID:  cycle.ID,
		FileName: cycle.FileName,
		IsDaily:  cycle.IsDaily,
		Sheets:   make([]entities.SheetSummary, 0, len(cycle.Sheets)),
		Skipped:  cycle.Skipped,
		Analysis: analysis,
		Matches:  matches,
	}
	for _, sheet := range cycle.Sheets {
		summary.Sheets = append(summary.Sheets, entities.SheetSummary{
			Name:       sheet.Name,
			Department: sheet.Department,
			Rows:       len(sheet.Rows),
		})
	}
	return summary
}
