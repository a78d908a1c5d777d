// Package upstream relays accepted applications to the applicant-tracking
// runs API.
package upstream

import (
	"context"
	"time"

	apperrors "apply-portal/internal/common/errors"
	apphttp "apply-portal/internal/common/http"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/models"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Candidate is the person block of a run.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Consents struct {
	Current bool `json:"current"`
	Future  bool `json:"future"`
}

type Attribution struct {
	Referrer      string            `json:"referrer,omitempty"`
	LandingURL    string            `json:"landingUrl,omitempty"`
	URLParams     map[string]string `json:"urlParams,omitempty"`
	RedirectCount int               `json:"redirectCount,omitempty"`
}

// RunRequest is the body POSTed to the runs API.
type RunRequest struct {
	Type        string                `json:"type"`
	Tenant      string                `json:"tenant"`
	Language    string                `json:"language"`
	Candidate   Candidate             `json:"candidate"`
	Files       []models.UploadedFile `json:"files"`
	SourceJobID string                `json:"sourceJobId,omitempty"`
	SourceURL   string                `json:"sourceUrl,omitempty"`
	Consents    Consents              `json:"consents"`
	Attribution Attribution           `json:"attribution"`
}

func NewRunRequest(s models.Submission) RunRequest {
	return RunRequest{
		Type:        "apply",
		Tenant:      s.Tenant,
		Language:    s.Language,
		Candidate:   Candidate{Name: s.Name, Email: s.Email, Phone: s.Phone},
		Files:       []models.UploadedFile{s.CV},
		SourceJobID: s.SourceJobID,
		SourceURL:   s.SourceURL,
		Consents:    Consents{Current: s.ConsentCurrent, Future: s.ConsentFuture},
		Attribution: Attribution{
			Referrer:      s.Tracking.Referrer,
			LandingURL:    s.Tracking.LandingURL,
			URLParams:     s.Tracking.Params,
			RedirectCount: s.Tracking.RedirectCount,
		},
	}
}

type Client struct {
	http    *apphttp.Client
	runsURL string
	apiKey  string
	logger  logger.Logger
}

func NewClient(runsURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return NewClientWith(apphttp.NewClient(timeout), runsURL, apiKey, log)
}

func NewClientWith(c *apphttp.Client, runsURL, apiKey string, log logger.Logger) *Client {
	return &Client{
		http:    c,
		runsURL: runsURL,
		apiKey:  apiKey,
		logger:  log.WithFields(map[string]interface{}{"component": "upstream"}),
	}
}

// SubmitRun creates a run and returns its reference id. Upstream response
// bodies are only ever logged.
func (c *Client) SubmitRun(ctx context.Context, s models.Submission) (string, error) {
	headers := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	resp, err := c.http.PostJSON(ctx, c.runsURL, NewRunRequest(s), headers)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(metrics.StatusClass(0)).Inc()
		c.logger.Error("runs API unreachable", map[string]interface{}{
			"tenant": s.Tenant,
			"error":  err.Error(),
		})
		return "", apperrors.NewUpstreamUnavailableError(err)
	}
	metrics.UpstreamRequests.WithLabelValues(metrics.StatusClass(resp.StatusCode)).Inc()

	if !resp.OK() {
		c.logger.Error("runs API rejected submission", map[string]interface{}{
			"tenant": s.Tenant,
			"status": resp.StatusCode,
			"body":   string(resp.Body),
		})
		return "", apperrors.NewUpstreamRejectedError(resp.StatusCode, string(resp.Body))
	}

	ref := ReferenceID(resp.Body)
	if ref == "" {
		ref = uuid.NewString()
		c.logger.Warn("runs API returned no id, generated one", map[string]interface{}{"referenceId": ref})
	}
	return ref, nil
}

// ReferenceID extracts the first of referenceId, id, runId, data.id from a
// runs API response.
func ReferenceID(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"referenceId", "id", "runId", "data.id"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
