package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
)

const (
	defaultMaxUploadBytes = 20 << 20
	maxDispatchBodyBytes  = 1 << 20
)

// OCSService is the cycle orchestration the handler drives.
type OCSService interface {
	Upload(ctx context.Context, fileName string, data []byte, password string) (*entities.UploadSummary, error)
	Preview(ctx context.Context, cycleID string) (*entities.MatchResult, error)
	Dispatch(ctx context.Context, cycleID string, req entities.DispatchRequest) (*entities.DispatchReport, error)
	Discard(ctx context.Context, cycleID string) error
	LatestAnalysis(ctx context.Context) (*entities.AnalysisRecord, error)
}

// OCSHandler handles OCS upload and dispatch requests
type OCSHandler struct {
	service        OCSService
	maxUploadBytes int64
}

// NewOCSHandler creates a new OCS handler. A non-positive maxUploadBytes
// selects the default limit.
func NewOCSHandler(service OCSService, maxUploadBytes int64) *OCSHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &OCSHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /api/ocs/uploads
func (h *OCSHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		respondWithError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	fileName := filepath.Base(header.Filename)
	summary, err := h.service.Upload(r.Context(), fileName, data, r.FormValue("password"))
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Str("file", fileName).Msg("upload rejected")
		respondWithAppError(w, err, "failed to process upload")
		return
	}

	respondWithJSON(w, http.StatusCreated, summary)
}

// GetMatches handles GET /api/ocs/uploads/{id}/matches
func (h *OCSHandler) GetMatches(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "upload ID is required")
		return
	}

	matches, err := h.service.Preview(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to match upload")
		return
	}

	respondWithJSON(w, http.StatusOK, matches)
}

// Dispatch handles POST /api/ocs/uploads/{id}/dispatch
func (h *OCSHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "upload ID is required")
		return
	}

	var req entities.DispatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDispatchBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = entities.DispatchModeAutomatic
	}

	report, err := h.service.Dispatch(r.Context(), id, req)
	if err != nil {
		respondWithAppError(w, err, "failed to dispatch notifications")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// DiscardUpload handles DELETE /api/ocs/uploads/{id}
func (h *OCSHandler) DiscardUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "upload ID is required")
		return
	}

	if err := h.service.Discard(r.Context(), id); err != nil {
		respondWithAppError(w, err, "failed to discard upload")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAnalysis handles GET /api/ocs/analysis
func (h *OCSHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.LatestAnalysis(r.Context())
	if err != nil {
		respondWithAppError(w, err, "failed to load analysis")
		return
	}

	respondWithJSON(w, http.StatusOK, record)
}
