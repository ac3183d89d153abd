// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/worklog/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var fielded shared.FieldErrorer
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		detail := ProblemDetail{Title: "Validation Failed", Status: http.StatusUnprocessableEntity, Detail: err.Error()}
		if errors.As(err, &fielded) {
			detail.Errors = fielded.FieldErrors()
		}
		JSON(w, detail.Status, detail)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		detail := ProblemDetail{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}
		if errors.As(err, &fielded) {
			detail.Errors = fielded.FieldErrors()
		}
		JSON(w, detail.Status, detail)
	case errors.Is(err, shared.ErrUnavailable):
		w.Header().Set("Retry-After", "1")
		Problem(w, http.StatusServiceUnavailable, "Try Again", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", slog.Any("error", err))
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
