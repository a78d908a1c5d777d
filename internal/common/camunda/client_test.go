package camunda

import (
	"errors"
	"testing"

	apperrors "apply-portal/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		cause     interface{}
	}{
		{"unavailable", errors.New("rpc error: code = Unavailable desc = connection refused"), true, "transport"},
		{"deadline", errors.New("context deadline exceeded"), true, "transport"},
		{"duplicate", errors.New("rpc error: code = AlreadyExists desc = message with id already exists"), false, "duplicate"},
		{"auth", errors.New("rpc error: code = Unauthenticated"), false, "auth"},
		{"other", errors.New("rpc error: code = InvalidArgument"), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapZeebeError(tt.err, "publish message apply-file-uploaded")
			require.True(t, apperrors.IsCode(err, apperrors.ErrCodeEventPublishFailed))

			stdErr := apperrors.Normalize(err)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, "workflow", stdErr.Metadata["sink"])
			assert.Equal(t, tt.cause, stdErr.Metadata["cause"])
			assert.Contains(t, stdErr.Details, "apply-file-uploaded")
		})
	}
}
