package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrAlreadyRunning, ErrCodeAlreadyRunning},
		{ErrNotRunning, ErrCodeNotRunning},
		{ErrSpawnFailed, ErrCodeSpawnFailure},
		{ErrInputClosed, ErrCodeIOFailure},
		{errors.New("something else"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err))
	}
}

func TestErrorCode_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("%w: no such file or directory", ErrSpawnFailed)
	assert.Equal(t, ErrCodeSpawnFailure, ErrorCode(wrapped))
}
