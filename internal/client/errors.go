package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FallbackMessage is shown when a failure carries no usable message
const FallbackMessage = "Something went wrong, please try again"

// ErrSessionExpired is returned once the session can no longer be refreshed.
// The stored tokens have been cleared by then.
var ErrSessionExpired = errors.New("your session has expired, please log in again")

// APIError is a non-2xx answer from the API
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

// FieldError is one failed validation rule reported by the server
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// errorBody covers both the envelope and DRF-style error bodies
type errorBody struct {
	Detail         string          `json:"detail"`
	Message        string          `json:"message"`
	Error          string          `json:"error"`
	NonFieldErrors []string        `json:"non_field_errors"`
	Fields         json.RawMessage `json:"fields"`
}

func (b *errorBody) message() string {
	switch {
	case b == nil:
		return FallbackMessage
	case b.Detail != "":
		return b.Detail
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	case len(b.NonFieldErrors) > 0 && b.NonFieldErrors[0] != "":
		return b.NonFieldErrors[0]
	}
	return FallbackMessage
}

func (b *errorBody) fields() []FieldError {
	if b == nil || len(b.Fields) == 0 {
		return nil
	}
	var out []FieldError
	if err := json.Unmarshal(b.Fields, &out); err != nil {
		return nil
	}
	return out
}

func newAPIError(status int, body *errorBody) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    body.message(),
		Fields:     body.fields(),
	}
}

// Message returns the text a user should see for err
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired, please log in again"
	}
	return FallbackMessage
}
