package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned for 401/403 responses on calls that need a
	// session. The redirect to the login view has already been triggered.
	ErrUnauthorized = errors.New("session expired, please log in again")
	// ErrUnreachable wraps transport failures: the backend could not be reached.
	ErrUnreachable = errors.New("cannot reach server")
)

// ServerError is a request the backend rejected. Message carries the server's
// own error text when it sent one.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (status %d)", e.Status)
}

// errorBody is the error envelope used by every endpoint.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func (b *errorBody) message() string {
	if b == nil {
		return ""
	}
	if b.Error != "" {
		return b.Error
	}
	return b.Detail
}

func newServerError(status int, body *errorBody, fallback string) *ServerError {
	msg := body.message()
	if msg == "" {
		msg = fallback
	}
	if msg == "" && status >= http.StatusInternalServerError {
		msg = "server error, please try again later"
	}
	return &ServerError{Status: status, Message: msg}
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
