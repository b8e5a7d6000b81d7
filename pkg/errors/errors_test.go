package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorMessage(t *testing.T) {
	t.Run("without_cause", func(t *testing.T) {
		err := NewNotFoundError("service not found", nil)
		assert.Equal(t, "not_found: service not found", err.Error())
	})

	t.Run("with_cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewStartError("failed to start service", cause)
		assert.Equal(t, "start: failed to start service: connection refused", err.Error())
	})
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewStopError("failed to stop", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestDomainErrorIs(t *testing.T) {
	err := NewValidationError("bad input", nil)

	assert.True(t, stderrors.Is(err, NewValidationError("other message", nil)))
	assert.False(t, stderrors.Is(err, NewNotFoundError("bad input", nil)))
}

func TestWithContext(t *testing.T) {
	err := NewValidationError("bad input", nil).
		WithContext("service_id", "db").
		WithContext("field", "name")

	assert.Equal(t, "db", err.Context["service_id"])
	assert.Equal(t, "name", err.Context["field"])
}

func TestTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"validation", NewValidationError("m", nil), IsValidationError},
		{"cyclic_dependency", NewCyclicDependencyError("m", nil), IsCyclicDependencyError},
		{"not_found", NewNotFoundError("m", nil), IsNotFoundError},
		{"dependency_failed", NewDependencyFailedError("m", nil), IsDependencyFailedError},
		{"invalid_state", NewInvalidStateError("m", nil), IsInvalidStateError},
		{"start", NewStartError("m", nil), IsStartError},
		{"stop", NewStopError("m", nil), IsStopError},
		{"probe", NewProbeError("m", nil), IsProbeError},
		{"timeout", NewTimeoutError("m", nil), IsTimeoutError},
		{"io", NewIOError("m", nil), IsIOError},
		{"internal", NewInternalError("m", nil), IsInternalError},
		{"cancelled", NewCancelledError("m", nil), IsCancelledError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
			assert.False(t, tt.checker(fmt.Errorf("plain error")))
			assert.False(t, tt.checker(nil))
		})
	}
}

func TestTypeCheckersFollowWrapping(t *testing.T) {
	inner := NewNotFoundError("missing", nil)
	wrapped := fmt.Errorf("while loading: %w", inner)

	assert.True(t, IsNotFoundError(wrapped))

	extracted, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeNotFound, extracted.Type)
}

func TestErrorCollection(t *testing.T) {
	collection := NewErrorCollection()
	assert.False(t, collection.HasErrors())
	assert.NoError(t, collection.ToError())

	collection.Add(nil)
	assert.False(t, collection.HasErrors())

	collection.Add(NewStopError("first", nil))
	require.Error(t, collection.ToError())
	assert.Equal(t, "stop: first", collection.Error())

	collection.Add(NewStopError("second", nil))
	assert.Contains(t, collection.Error(), "2 errors occurred")
}
