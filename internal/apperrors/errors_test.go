package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "validation", err: fmt.Errorf("%w: studentId is required", ErrValidation), expected: http.StatusBadRequest},
		{name: "empty upload", err: ErrEmptyUpload, expected: http.StatusBadRequest},
		{name: "unsupported type", err: fmt.Errorf("%w: application/pdf", ErrUnsupportedMediaType), expected: http.StatusBadRequest},
		{name: "too large", err: ErrPayloadTooLarge, expected: http.StatusBadRequest},
		{name: "unauthorized", err: ErrUnauthorized, expected: http.StatusUnauthorized},
		{name: "forbidden", err: ErrForbidden, expected: http.StatusForbidden},
		{name: "not found wrapped twice", err: fmt.Errorf("outer: %w", fmt.Errorf("%w: news 1", ErrNotFound)), expected: http.StatusNotFound},
		{name: "conflict", err: ErrConflict, expected: http.StatusConflict},
		{name: "storage", err: ErrStorageIO, expected: http.StatusInternalServerError},
		{name: "persistence", err: ErrPersistence, expected: http.StatusInternalServerError},
		{name: "unexpected", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrNotFound))
	assert.False(t, IsClientError(ErrStorageIO))
	assert.False(t, IsClientError(nil))
}
