package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs(t *testing.T) {
	notFound := fmt.Errorf("get image: %w", NewNotFoundError("image", ""))
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.NotErrorIs(t, notFound, ErrValidation)
	assert.Equal(t, "get image: image not found", notFound.Error())

	validation := NewValidationError("query", "query is required")
	assert.ErrorIs(t, validation, ErrValidation)
	assert.Equal(t, "query is required", validation.Error())
	assert.Equal(t, "validation failed for field: top_k", NewValidationError("top_k", "").Error())

	cause := errors.New("queue full")
	unavailable := NewUnavailableError("ingestion queue is full, retry later", cause)
	assert.ErrorIs(t, unavailable, ErrUnavailable)
	assert.ErrorIs(t, unavailable, cause)
	assert.Equal(t, "service unavailable", (&UnavailableError{}).Error())
}
