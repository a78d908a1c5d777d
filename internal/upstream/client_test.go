package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission() models.Submission {
	return models.Submission{
		Tenant:   "acme",
		Language: "pl",
		Name:     "Jan Kowalski",
		Email:    "jan@example.com",
		Phone:    "+48 600 123 456",
		CV: models.UploadedFile{
			FileURL:          "cv/tenantName=acme/year=2024/month=03/day=07/ab-cv.pdf",
			OriginalFilename: "cv.pdf",
		},
		SourceJobID:    "job-42",
		ConsentCurrent: true,
		Tracking: models.Tracking{
			Referrer: "https://indeed.com",
			Params:   map[string]string{"utm_source": "indeed"},
		},
	}
}

func TestClient_SubmitRun(t *testing.T) {
	var got RunRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"runId":"run-123"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second, logger.NewNoOpLogger())
	ref, err := c.SubmitRun(context.Background(), submission())
	require.NoError(t, err)

	assert.Equal(t, "run-123", ref)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "apply", got.Type)
	assert.Equal(t, "acme", got.Tenant)
	assert.Equal(t, "jan@example.com", got.Candidate.Email)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "cv.pdf", got.Files[0].OriginalFilename)
	assert.Equal(t, "job-42", got.SourceJobID)
	assert.True(t, got.Consents.Current)
	assert.Equal(t, "indeed", got.Attribution.URLParams["utm_source"])
}

func TestClient_SubmitRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode apperrors.ErrorCode
	}{
		{"bad request", http.StatusBadRequest, `{"message":"tenant unknown"}`, apperrors.ErrCodeUpstreamRejected},
		{"server error", http.StatusInternalServerError, `boom`, apperrors.ErrCodeUpstreamRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second, logger.NewNoOpLogger())
			_, err := c.SubmitRun(context.Background(), submission())
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.wantCode))
			assert.NotContains(t, apperrors.PublicMessage(err), tt.body)
			assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(apperrors.Normalize(err).Code))
		})
	}
}

func TestClient_SubmitRun_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 20*time.Millisecond, logger.NewNoOpLogger())
	_, err := c.SubmitRun(context.Background(), submission())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstreamUnavailable))
}

func TestClient_SubmitRun_GeneratesReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, logger.NewNoOpLogger())
	ref, err := c.SubmitRun(context.Background(), submission())
	require.NoError(t, err)
	_, err = uuid.Parse(ref)
	assert.NoError(t, err)
}

func TestReferenceID(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"referenceId":"ref-1","id":"x"}`, "ref-1"},
		{`{"id":42}`, "42"},
		{`{"runId":"run-9"}`, "run-9"},
		{`{"data":{"id":"nested"}}`, "nested"},
		{`{"referenceId":""}`, ""},
		{`not json`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferenceID([]byte(tt.body)))
		})
	}
}
