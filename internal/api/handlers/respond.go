package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error to a status code. Only validation and
// not-found messages are shown to the client verbatim.
func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, messageOf(err))
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, messageOf(err))
	case apperrors.ErrorTypeConflict:
		respondWithError(w, http.StatusConflict, messageOf(err))
	case apperrors.ErrorTypeUnavailable, apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusServiceUnavailable, fallback)
	default:
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func messageOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
