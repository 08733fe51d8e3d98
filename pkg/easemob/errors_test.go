package easemob_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/easemob/pkg/easemob"
)

func TestNewAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "easemob error body",
			status:      http.StatusBadRequest,
			body:        `{"error":"illegal_argument","error_description":"username is invalid","timestamp":1}`,
			wantMessage: "illegal_argument: username is invalid",
			wantCode:    "illegal_argument",
		},
		{
			name:        "empty body",
			status:      http.StatusServiceUnavailable,
			wantMessage: "unexpected status 503",
		},
		{
			name:        "non-json body",
			status:      http.StatusBadGateway,
			body:        "<html>bad gateway</html>",
			wantMessage: "unexpected status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			apiErr := easemob.NewAPIError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Error())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.False(t, apiErr.IsTransport())
		})
	}
}

func TestNewAPIError_KeepsResult(t *testing.T) {
	t.Parallel()

	apiErr := easemob.NewAPIError(http.StatusNotFound, []byte(`{"error":"service_resource_not_found","duration":3}`))
	require.NotNil(t, apiErr.Result)
	assert.InDelta(t, 3.0, apiErr.Result["duration"], 0)
	assert.True(t, easemob.IsNotFound(apiErr))
	assert.False(t, easemob.IsUnauthorized(apiErr))
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	apiErr := easemob.NewTransportError(cause)

	assert.True(t, apiErr.IsTransport())
	require.ErrorIs(t, apiErr, cause)
	assert.Equal(t, 0, easemob.StatusCode(apiErr))

	wrapped := easemob.WrapAPIError(http.StatusOK, "reading body", cause)
	require.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "reading body", wrapped.Error())
}

func TestErrorPredicates(t *testing.T) {
	t.Parallel()

	unauthorized := fmt.Errorf("getting user: %w", easemob.NewAPIError(http.StatusUnauthorized, nil))
	assert.True(t, easemob.IsUnauthorized(unauthorized))
	assert.Equal(t, http.StatusUnauthorized, easemob.StatusCode(unauthorized))

	authErr := &easemob.AuthError{Grant: "client_credentials", Err: unauthorized}
	assert.True(t, easemob.IsAuthError(fmt.Errorf("sending: %w", authErr)))
	assert.True(t, easemob.IsUnauthorized(authErr))
	assert.Contains(t, authErr.Error(), "authentication failed (client_credentials)")

	validation := easemob.NewValidationError("target", "at least one recipient is required")
	assert.Equal(t, "invalid target: at least one recipient is required", validation.Error())
	assert.True(t, easemob.IsValidationError(fmt.Errorf("wrapped: %w", validation)))
	assert.False(t, easemob.IsValidationError(unauthorized))
	assert.False(t, easemob.IsAuthError(validation))

	assert.Equal(t, 0, easemob.StatusCode(errors.New("plain")))
	assert.Equal(t, 0, easemob.StatusCode(nil))
}
