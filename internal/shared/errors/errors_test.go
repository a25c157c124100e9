package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Behavior(t *testing.T) {
	err := NewValidationError("invalid input").WithDetail("field", "id").WithComponent("seeder")
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, "invalid input", err.Message)
	assert.Equal(t, "seeder", err.Component)
	assert.Equal(t, "id", err.Details["field"])
	assert.Equal(t, "invalid input", err.Error())
}

func TestAppError_WithCause_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewConnectionError("failed to connect").WithCause(cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, "failed to connect: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"connection", NewConnectionError("x"), IsConnection},
		{"project not resolved", fmt.Errorf("wrap: %w", ErrProjectNotResolved), IsConnection},
		{"store unavailable", NewStoreUnavailableError("x"), IsStoreUnavailable},
		{"asset format", NewAssetFormatError("tools.json"), IsAssetFormat},
		{"write", NewWriteError("tools", "hammer"), IsWrite},
		{"refused", NewRefusedError(), IsRefused},
		{"wrapped refused", fmt.Errorf("gate: %w", NewRefusedError()), IsRefused},
		{"validation", NewValidationError("x"), IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}

	assert.False(t, IsConnection(NewStoreUnavailableError("x")))
	assert.False(t, IsWrite(errors.New("plain")))
}

func TestPartialPurgeError(t *testing.T) {
	cause := errors.New("deadline exceeded")
	var err error = fmt.Errorf("purge: %w", NewPartialPurgeError("tools", 600, 2, cause))

	ppe, ok := AsPartialPurge(err)
	require.True(t, ok)
	assert.Equal(t, "tools", ppe.Collection)
	assert.Equal(t, 600, ppe.Deleted)
	assert.Equal(t, 2, ppe.Batches)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, ppe.Error(), "600 documents removed")

	_, ok = AsPartialPurge(errors.New("other"))
	assert.False(t, ok)
}

func TestPartialPurgeError_Canceled(t *testing.T) {
	err := NewPartialPurgeError("a", 0, 0, context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeFor(nil))
	assert.Equal(t, ExitRefused, ExitCodeFor(NewRefusedError()))
	assert.Equal(t, ExitFailure, ExitCodeFor(NewConnectionError("x")))
	assert.Equal(t, ExitFailure, ExitCodeFor(NewPartialPurgeError("a", 1, 1, errors.New("x"))))
	assert.Equal(t, ExitFailure, ExitCodeFor(errors.New("plain")))
}
