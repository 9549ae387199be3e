package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError_DomainCodes(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{shared.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{shared.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{shared.ErrInvalidState, http.StatusConflict, "INVALID_STATE"},
		{shared.ErrInvalidTenant, http.StatusBadRequest, "INVALID_TENANT"},
		{shared.ErrTenantUnavailable, http.StatusServiceUnavailable, "TENANT_UNAVAILABLE"},
		{shared.ErrInsufficientStock, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{shared.ErrInvalidQuantity, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
		{shared.ErrConnectionUnavailable, http.StatusServiceUnavailable, "CONNECTION_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, resp := FromError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestFromError_Retryable(t *testing.T) {
	_, resp := FromError(shared.ErrConnectionUnavailable)
	assert.True(t, resp.Error.Retryable)

	_, resp = FromError(shared.ErrTenantUnavailable)
	assert.False(t, resp.Error.Retryable)
}

func TestFromError_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("adding store: %w", shared.ErrTenantUnavailable)
	status, resp := FromError(wrapped)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "TENANT_UNAVAILABLE", resp.Error.Code)
}

func TestFromError_UnknownError(t *testing.T) {
	status, resp := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// internal details never leak onto the wire
	assert.NotContains(t, resp.Error.Message, "boom")
}
