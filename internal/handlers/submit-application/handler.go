// Package submitapplication serves POST /api/runs: the multipart form the
// apply page submits.
package submitapplication

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/common/validation"
	"apply-portal/internal/models"
	"apply-portal/internal/tracking"

	"github.com/samber/lo"
)

const Route = "/api/runs"

type EventPublisher interface {
	PublishAsync(ctx context.Context, detail models.ApplyEventDetail)
}

type Handler struct {
	config  *Config
	service *Service
	events  EventPublisher
	errors  *apperrors.Writer
	logger  logger.Logger
}

func NewHandler(cfg *Config, service *Service, events EventPublisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"route": Route})
	return &Handler{
		config:  cfg,
		service: service,
		events:  events,
		errors:  apperrors.NewWriter(log),
		logger:  log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	input, err := h.parse(w, r)
	if err != nil {
		h.fail(w, r, "", err, start)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	output, sub, err := h.service.Execute(ctx, input)
	if err != nil {
		h.fail(w, r, input.Tenant, err, start)
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(input.Tenant, "accepted").Inc()
	metrics.SubmissionDuration.WithLabelValues("accepted").Observe(time.Since(start).Seconds())
	apperrors.WriteJSON(w, http.StatusOK, output)

	h.events.PublishAsync(r.Context(), models.NewApplyEventDetail(*sub, output.ReferenceID))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, tenant string, err error, start time.Time) {
	code := apperrors.Normalize(err).Code
	result := strings.ToLower(apperrors.GetErrorCategory(code))
	if tenant == "" {
		tenant = h.config.DefaultTenant
	}
	metrics.SubmissionsTotal.WithLabelValues(tenant, result).Inc()
	metrics.SubmissionDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	h.errors.Write(w, r, err)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (*Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := r.ParseMultipartForm(memoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, apperrors.NewFileTooLargeError(validation.MsgFileTooLarge, h.config.MaxBodyBytes)
		}
		return nil, apperrors.NewValidationError(validation.MsgMissingFields)
	}

	in := &Input{
		Tenant:         strings.TrimSpace(r.FormValue("tenant")),
		Language:       strings.TrimSpace(r.FormValue("language")),
		Name:           r.FormValue("name"),
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		SourceJobID:    strings.TrimSpace(r.FormValue("sourceJobId")),
		SourceURL:      strings.TrimSpace(r.FormValue("sourceUrl")),
		ConsentCurrent: formBool(r.FormValue("consentCurrent")),
		ConsentFuture:  formBool(r.FormValue("consentFuture")),
		Tracking:       tracking.FromRequest(r),
	}
	if in.Tenant == "" {
		in.Tenant = h.config.DefaultTenant
	}
	if !lo.Contains(h.config.SupportedLanguages, in.Language) {
		in.Language = h.config.DefaultLanguage
	}
	if in.SourceURL == "" {
		in.SourceURL = r.Referer()
	}
	if files := r.MultipartForm.File["cv"]; len(files) > 0 {
		in.CV = files[0]
	}
	return in, nil
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "on" || v == "yes"
	}
	return b
}
