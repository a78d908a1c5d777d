package publishapplyevent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockDispatcher struct {
	DispatchFunc func(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error
	calls        []models.ApplyEventDetail
	raws         []string
}

func (m *MockDispatcher) Dispatch(ctx context.Context, detail models.ApplyEventDetail, raw []byte) error {
	m.calls = append(m.calls, detail)
	m.raws = append(m.raws, string(raw))
	if m.DispatchFunc == nil {
		return nil
	}
	return m.DispatchFunc(ctx, detail, raw)
}

func createTestConfig() *Config {
	return &Config{
		BusName:    "sm-test-app-apply-eventbus",
		Source:     "sm:test:app",
		DetailType: "apply:file:uploaded",
		Timeout:    5 * time.Second,
	}
}

const validDetail = `{"tenant":"acme","language":"pl","name":"Jan","email":"jan@example.com","phone":"+48600123456",` +
	`"files":[{"fileUrl":"cv/tenantName=acme/x-cv.pdf","originalFilename":"cv.pdf"}],` +
	`"consentCurrent":true,"consentFuture":false,"sourceUrl":"","referrer":"https://indeed.com",` +
	`"landingUrl":"","urlParams":{"utm_source":"indeed"},"sourceJobId":"42","referenceId":"run-1"}`

func TestHandle(t *testing.T) {
	tests := []struct {
		name         string
		env          Envelope
		dispatchErr  error
		wantStatus   int
		wantBody     interface{}
		wantDispatch bool
	}{
		{
			name:         "raw json",
			env:          Envelope{Body: validDetail},
			wantStatus:   http.StatusOK,
			wantBody:     Output{Success: true},
			wantDispatch: true,
		},
		{
			name:         "base64 body",
			env:          Envelope{Body: base64.StdEncoding.EncodeToString([]byte(validDetail)), IsBase64Encoded: true},
			wantStatus:   http.StatusOK,
			wantBody:     Output{Success: true},
			wantDispatch: true,
		},
		{
			name:         "bus rejects entry",
			env:          Envelope{Body: validDetail},
			dispatchErr:  apperrors.NewEventPublishError("1 failed entries"),
			wantStatus:   http.StatusInternalServerError,
			wantBody:     models.ErrorResponse{Error: "Failed to publish event"},
			wantDispatch: true,
		},
		{
			name:       "malformed json",
			env:        Envelope{Body: `{"tenant":`},
			wantStatus: http.StatusInternalServerError,
			wantBody:   models.ErrorResponse{Error: "Internal error publishing event"},
		},
		{
			name:       "bad base64",
			env:        Envelope{Body: "%%%", IsBase64Encoded: true},
			wantStatus: http.StatusInternalServerError,
			wantBody:   models.ErrorResponse{Error: "Internal error publishing event"},
		},
		{
			name:       "empty body is an empty object",
			env:        Envelope{},
			wantStatus: http.StatusBadRequest,
			wantBody:   models.ErrorResponse{Error: "Invalid event payload"},
		},
		{
			name:       "wrong field type",
			env:        Envelope{Body: strings.Replace(validDetail, `"consentCurrent":true`, `"consentCurrent":"yes"`, 1)},
			wantStatus: http.StatusInternalServerError,
			wantBody:   models.ErrorResponse{Error: "Internal error publishing event"},
		},
		{
			name:       "missing files",
			env:        Envelope{Body: `{"tenant":"acme","name":"Jan","email":"jan@example.com"}`},
			wantStatus: http.StatusBadRequest,
			wantBody:   models.ErrorResponse{Error: "Invalid event payload"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &MockDispatcher{DispatchFunc: func(context.Context, models.ApplyEventDetail, []byte) error {
				return tt.dispatchErr
			}}
			h := NewHandler(createTestConfig(), d, nil, logger.NewTestLogger(t))

			status, body := h.Handle(context.Background(), tt.env)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
			if tt.wantDispatch {
				require.Len(t, d.calls, 1)
				assert.Equal(t, "acme", d.calls[0].Tenant)
				assert.Equal(t, "run-1", d.calls[0].ReferenceID)
				assert.JSONEq(t, validDetail, d.raws[0])
			} else {
				assert.Empty(t, d.calls)
			}
		})
	}
}

func TestServeHTTP(t *testing.T) {
	d := &MockDispatcher{}
	h := NewHandler(createTestConfig(), d, nil, logger.NewNoOpLogger())

	t.Run("raw body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validDetail)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	})

	t.Run("function url envelope", func(t *testing.T) {
		env, err := json.Marshal(Envelope{Body: base64.StdEncoding.EncodeToString([]byte(validDetail)), IsBase64Encoded: true})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(env))))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("get not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("dispatch failure", func(t *testing.T) {
		failing := &MockDispatcher{DispatchFunc: func(context.Context, models.ApplyEventDetail, []byte) error {
			return errors.New("connection reset")
		}}
		h := NewHandler(createTestConfig(), failing, nil, logger.NewNoOpLogger())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(validDetail)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to publish event"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}
