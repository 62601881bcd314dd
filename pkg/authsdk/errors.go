package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/stockdesk/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeAccessDenied       = "access_denied"
	ErrorCodeAccountDisabled    = "account_disabled"
	ErrorCodeConflict           = "conflict"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeServerError        = "server_error"
)

// APIError is a non-2xx response from the auth service. Handlers write it
// with WriteError; the client decodes it back in parseErrorResponse.
type APIError struct {
	StatusCode int `json:"-"`

	Code        string `json:"error"`
	Description string `json:"error_description"`

	// Details holds per-field validation messages.
	Details map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// IsRejection reports whether the server refused the request on its merits
// (4xx) rather than failing to process it.
func (e *APIError) IsRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// WithDetails returns a copy of e carrying field validation messages.
func (e *APIError) WithDetails(details map[string]string) *APIError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRejection reports whether err is an APIError with a 4xx status.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsRejection()
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	ErrAccessDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccessDenied,
		Description: "access denied",
	}

	ErrAccountDisabled = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountDisabled,
		Description: "the account is disabled",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "a user with this email or username already exists",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "user not found",
	}

	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "one or more fields are invalid",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError, falling back
// to the HTTP status text when the body is not one of ours.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	code := ErrorCodeServerError
	if resp.StatusCode < 500 {
		code = ErrorCodeInvalidRequest
	}
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        code,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
