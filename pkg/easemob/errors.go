package easemob

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any non-2xx response and for transport failures.
// StatusCode is 0 when no response was received.
type APIError struct {
	Message     string `json:"message"`
	StatusCode  int    `json:"status_code"`
	Code        string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`

	// Result is the decoded response body, when one could be decoded.
	Result Result `json:"result,omitempty"`

	err error
}

// NewAPIError builds an APIError from a response status and raw body.
func NewAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var result Result
	if len(body) > 0 && json.Unmarshal(body, &result) == nil {
		apiErr.Result = result
		apiErr.Code, _ = result["error"].(string)
		apiErr.Description, _ = result["error_description"].(string)
	}

	if apiErr.Code != "" {
		apiErr.Message = fmt.Sprintf("%s: %s", apiErr.Code, apiErr.Description)
	} else {
		apiErr.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}

	return apiErr
}

// NewTransportError wraps a failure that happened before a response arrived.
func NewTransportError(err error) *APIError {
	return &APIError{
		Message: err.Error(),
		err:     err,
	}
}

// WrapAPIError attaches a cause to an APIError built from a response.
func WrapAPIError(statusCode int, message string, err error) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
		err:        err,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.err
}

// IsTransport reports whether the request never produced a response.
func (e *APIError) IsTransport() bool {
	return e.StatusCode == 0
}

// AuthError is returned when the credential exchange fails.
type AuthError struct {
	// Grant is the OAuth grant that was attempted.
	Grant string
	Err   error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%s): %v", e.Grant, e.Err)
}

// Unwrap returns the failure of the exchange call.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError reports invalid caller input. It is raised before any
// network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrFieldNotFound        = errors.New("field not found in result")
	ErrOrgNameRequired      = errors.New("organization name is required")
	ErrAppNameRequired      = errors.New("application name is required")
	ErrClientIDRequired     = errors.New("client ID is required")
	ErrClientSecretRequired = errors.New("client secret is required")
	ErrInvalidAPIDomain     = errors.New("invalid API domain")
	ErrNegativeDuration     = errors.New("duration must not be negative")
	ErrMissingRecipient     = errors.New("recipient missing from response")
	ErrNoAccessToken        = errors.New("response carries no access token")
	ErrUnknownMessageType   = errors.New("unknown message type")
)

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 from the API.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsValidationError checks if the error was raised by input validation.
func IsValidationError(err error) bool {
	validationErr := &ValidationError{}

	return errors.As(err, &validationErr)
}

// IsAuthError checks if the error came from a failed token exchange.
func IsAuthError(err error) bool {
	authErr := &AuthError{}

	return errors.As(err, &authErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}
