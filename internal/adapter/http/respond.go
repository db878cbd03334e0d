package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error     string            `json:"error"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	// OutcomeUnknown tells the client to re-read before retrying a write.
	OutcomeUnknown bool `json:"outcome_unknown,omitempty"`
}

// statusFor maps an error kind to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForbiddenDirectTransition):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyOrder), errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}

// respondServiceError reports a service failure and logs the ones that are not the caller's fault.
func respondServiceError(w http.ResponseWriter, r *http.Request, lgr logger.Logger, action string, err error) {
	statusCode := statusFor(err)
	if statusCode >= http.StatusInternalServerError {
		lgr.Error(action, "Request failed", RequestID(r.Context()), map[string]interface{}{
			"path":   r.URL.Path,
			"status": statusCode,
		}, err)
	}

	resp := ErrorResponse{Error: err.Error()}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		resp.Retryable = true
		resp.OutcomeUnknown = errors.Is(err, domain.ErrOutcomeUnknown)
	}
	if statusCode == http.StatusInternalServerError {
		resp.Error = "Internal server error"
	}
	respondJSON(w, statusCode, resp)
}
