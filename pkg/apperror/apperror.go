package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is checks.
var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrBadRequest    = errors.New("bad request")
	ErrDuplicateUser = errors.New("duplicate user")
	ErrInternal      = errors.New("internal error")
	ErrRateLimited   = errors.New("rate limited")
)

const (
	MsgIncorrectCredentials = "Incorrect username or password"
	MsgNotAuthorized        = "Could not validate credentials"
	MsgDuplicateUser        = "A user with that username already exists."
	MsgInternal             = "Internal server error"
	MsgRateLimited          = "Too many requests"
)

// ServiceError is an error that carries the HTTP status and the message shown to clients.
type ServiceError struct {
	Code    int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NotAuthorized creates a 401 error.
func NotAuthorized(message string) *ServiceError {
	if message == "" {
		message = MsgNotAuthorized
	}
	return &ServiceError{Code: http.StatusUnauthorized, Message: message, Err: ErrNotAuthorized}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *ServiceError {
	return &ServiceError{Code: http.StatusBadRequest, Message: message, Err: ErrBadRequest}
}

// DuplicateUser creates the 400 error returned when a username is taken.
func DuplicateUser() *ServiceError {
	return &ServiceError{Code: http.StatusBadRequest, Message: MsgDuplicateUser, Err: ErrDuplicateUser}
}

// TooManyRequests creates the 429 returned by the rate limiter.
func TooManyRequests() *ServiceError {
	return &ServiceError{Code: http.StatusTooManyRequests, Message: MsgRateLimited, Err: ErrRateLimited}
}

// Internal wraps an unexpected failure. The cause is never shown to clients.
func Internal(err error) *ServiceError {
	return &ServiceError{Code: http.StatusInternalServerError, Message: MsgInternal, Err: errors.Join(ErrInternal, err)}
}

// As extracts a ServiceError from err. Anything else is reported as Internal.
func As(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		if se.Code == 0 {
			se.Code = http.StatusBadRequest
		}
		return se
	}
	return Internal(err)
}
