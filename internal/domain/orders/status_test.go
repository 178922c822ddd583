package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storesync/internal/core/apperror"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusDraft, StatusPending},
		{StatusDraft, StatusCancelled},
		{StatusPending, StatusProcessing},
		{StatusPending, StatusCancelled},
		{StatusProcessing, StatusCompleted},
		{StatusProcessing, StatusCancelled},
		{StatusCompleted, StatusRefunded},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to Status }{
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusDraft},
		{StatusCompleted, StatusCompleted},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusRefunded},
		{StatusRefunded, StatusDraft},
		{StatusDraft, StatusCompleted},
		{StatusDraft, StatusProcessing},
		{StatusPending, StatusCompleted},
		{StatusPending, StatusRefunded},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("completed to pending rejected", func(t *testing.T) {
		err := ValidateTransition(StatusCompleted, StatusPending)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)
		assert.Equal(t, "completed", appErr.Details["from"])
		assert.Equal(t, "pending", appErr.Details["to"])
	})

	t.Run("unknown target status is a validation error", func(t *testing.T) {
		err := ValidateTransition(StatusDraft, Status("shipped"))
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("allowed transition passes", func(t *testing.T) {
		require.NoError(t, ValidateTransition(StatusDraft, StatusPending))
	})
}
