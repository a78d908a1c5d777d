package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeFileTooLarge, http.StatusBadRequest},
		{ErrCodeFileTypeInvalid, http.StatusBadRequest},
		{ErrCodeStorageUploadFailed, http.StatusInternalServerError},
		{ErrCodeUpstreamRejected, http.StatusBadGateway},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("relay: %w", NewUpstreamUnavailableError(stderrors.New("dial tcp: timeout")))
	assert.Equal(t, ErrCodeUpstreamUnavailable, Normalize(wrapped).Code)
	assert.True(t, IsCode(wrapped, ErrCodeUpstreamUnavailable))

	plain := Normalize(stderrors.New("nil pointer"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "Internal server error", plain.Message)
	assert.Equal(t, "nil pointer", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFileTooLarge))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeUpstreamRejected))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageUploadFailed))
	assert.Equal(t, "THROTTLING", GetErrorCategory(ErrCodeRateLimited))
	assert.Equal(t, "INTERNAL", GetErrorCategory(ErrCodeInternal))
}

func TestWriter_DoesNotLeakDetails(t *testing.T) {
	log := &recordingLogger{}
	w := NewWriter(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	w.Write(rec, req, NewUpstreamRejectedError(503, `{"trace":"secret stack"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": "Upstream service error"}, body)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.Len(t, log.errors, 1)
	assert.Empty(t, log.warns)
}

func TestWriter_ValidationIsWarn(t *testing.T) {
	log := &recordingLogger{}
	rec := httptest.NewRecorder()
	NewWriter(log).Write(rec, httptest.NewRequest(http.MethodPost, "/api/runs", nil),
		NewValidationError("Invalid email format"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid email format"}`, rec.Body.String())
	assert.Len(t, log.warns, 1)
}

func TestUpstreamRejectedTruncatesBody(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	err := NewUpstreamRejectedError(400, string(long))
	assert.Less(t, len(err.Details), 600)
	assert.False(t, err.Retryable)
	assert.Equal(t, 400, err.Metadata["status"])
}
