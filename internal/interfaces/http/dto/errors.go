package dto

import (
	"errors"
	"net/http"

	"github.com/pos/backend/internal/domain/shared"
)

// statusFor maps domain error codes to HTTP status codes.
var statusFor = map[string]int{
	"NOT_FOUND":              http.StatusNotFound,
	"ALREADY_EXISTS":         http.StatusConflict,
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_STATE":          http.StatusConflict,
	"INVALID_TENANT":         http.StatusBadRequest,
	"TENANT_UNAVAILABLE":     http.StatusServiceUnavailable,
	"INSUFFICIENT_STOCK":     http.StatusUnprocessableEntity,
	"INVALID_QUANTITY":       http.StatusUnprocessableEntity,
	"CONNECTION_UNAVAILABLE": http.StatusServiceUnavailable,
}

// FromError maps an error to an HTTP status and response body. Domain
// errors keep their code on the wire; anything else is reported as an
// opaque internal error.
func FromError(err error) (int, Response) {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		status, ok := statusFor[derr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:      derr.Code,
				Message:   derr.Message,
				Retryable: shared.IsRetryable(err),
			},
		}
	}
	return http.StatusInternalServerError, NewErrorResponse("INTERNAL_ERROR", "An unexpected error occurred")
}
