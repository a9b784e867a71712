package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("session %s not found", "rs-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))
	assert.Equal(t, "session rs-1 not found", err.Error())

	wrapped := fmt.Errorf("finish: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestError_CauseAndDetails(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Internal("commit failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "commit failed: disk full", err.Error())

	detailed := ErrInvalidInput.WithDetails(map[string]string{"rating": "must be between 1 and 5"})
	assert.Nil(t, ErrInvalidInput.Details, "sentinel must not be mutated")
	assert.NotNil(t, detailed.Details)
	assert.True(t, Is(detailed, ErrInvalidInput))
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("no rows")
	err := Wrap(cause, CodeNotFound, "book missing")

	require.ErrorIs(t, err, ErrNotFound)
	assert.Same(t, cause, Unwrap(err))
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("plain")))
}
