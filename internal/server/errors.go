package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/spacesedan/sentigate/internal/models"
)

// Stable machine readable error codes. Clients branch on these, so they
// never change even when messages do.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeInferenceUnavailable = "INFERENCE_UNAVAILABLE"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeConflict             = "CONFLICT"
	CodeNotFound             = "NOT_FOUND"
	CodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	CodeInternal             = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id"`
	Timestamp string            `json:"timestamp"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	respondJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeValidationError maps a validation failure to a 400 with the failing
// field called out in the details map.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "request validation failed", map[string]string{
			ve.Field: ve.Message,
		})
		return
	}
	writeError(w, r, http.StatusBadRequest, CodeValidationError, err.Error(), nil)
}
