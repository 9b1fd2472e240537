package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		name     string
		err      *ServiceError
		code     int
		sentinel error
	}{
		{name: "not authorized", err: NotAuthorized(""), code: http.StatusUnauthorized, sentinel: ErrNotAuthorized},
		{name: "bad request", err: BadRequest("nope"), code: http.StatusBadRequest, sentinel: ErrBadRequest},
		{name: "duplicate", err: DuplicateUser(), code: http.StatusBadRequest, sentinel: ErrDuplicateUser},
		{name: "internal", err: Internal(errors.New("db down")), code: http.StatusInternalServerError, sentinel: ErrInternal},
		{name: "rate limited", err: TooManyRequests(), code: http.StatusTooManyRequests, sentinel: ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.ErrorIs(t, tc.err, tc.sentinel)
		})
	}
	assert.Equal(t, MsgNotAuthorized, NotAuthorized("").Message)
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NotAuthorized(MsgIncorrectCredentials))
	se := As(wrapped)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, MsgIncorrectCredentials, se.Message)

	se = As(&ServiceError{Message: "defaulted"})
	assert.Equal(t, http.StatusBadRequest, se.Code)

	plain := errors.New("boom")
	se = As(plain)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, MsgInternal, se.Message)
	assert.ErrorIs(t, se, plain)
}
