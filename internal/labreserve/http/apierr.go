package http

import (
	"fmt"
	"net/http"

	"github.com/labreserve/labreserve/pkg/httpx"
)

// Error codes used in the machine-readable error envelope.
const (
	ErrorCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrorCodeInvalidToken       = "INVALID_TOKEN"
	ErrorCodeExpiredToken       = "EXPIRED_TOKEN"
	ErrorCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrorCodeEmailTaken         = "EMAIL_TAKEN"
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"
	ErrorCodeServerError        = "SERVER_ERROR"
)

// APIError is the error envelope every failing endpoint returns. It
// implements the error interface so handlers can pass it around like any
// other error.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "INVALID_TOKEN")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	// ErrInvalidCredentials covers failed logins. The same code is used for
	// unknown usernames and wrong passwords so responses never reveal which
	// accounts exist.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username or password",
	}

	// ErrInvalidToken covers refresh credentials that are malformed,
	// unknown, revoked, or fail the digest check.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "refresh token is invalid",
	}

	// ErrExpiredToken is returned when the refresh session exists but its
	// lifetime has passed.
	ErrExpiredToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeExpiredToken,
		Description: "refresh token has expired",
	}

	ErrUsernameTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeUsernameTaken,
		Description: "username is already taken",
	}

	ErrEmailTaken = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeEmailTaken,
		Description: "email is already registered",
	}

	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an unexpected error occurred",
	}
)
