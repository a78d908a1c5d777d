package submitapplication

import (
	"context"
	"io"
	"strings"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/observability"
	"apply-portal/internal/common/validation"
	"apply-portal/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Uploader interface {
	Upload(ctx context.Context, tenant, filename, contentType string, body io.Reader, size int64) (models.UploadedFile, error)
}

type RunSubmitter interface {
	SubmitRun(ctx context.Context, s models.Submission) (string, error)
}

type Recorder interface {
	Record(ctx context.Context, referenceID string, s models.Submission)
}

type Service struct {
	config   *Config
	uploader Uploader
	runs     RunSubmitter
	ledger   Recorder
	obs      *observability.Observability
	logger   logger.Logger
}

func NewService(cfg *Config, uploader Uploader, runs RunSubmitter, ledger Recorder, obs *observability.Observability, log logger.Logger) *Service {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Service{
		config:   cfg,
		uploader: uploader,
		runs:     runs,
		ledger:   ledger,
		obs:      obs,
		logger:   log,
	}
}

// Execute validates, stores the CV and relays the run. The returned
// submission is what the event is built from.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, *models.Submission, error) {
	if err := validation.ValidateContact(validation.Contact{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}); err != nil {
		return nil, nil, err
	}

	var file *validation.FileInfo
	if input.CV != nil {
		file = &validation.FileInfo{
			Filename:    input.CV.Filename,
			ContentType: input.CV.Header.Get("Content-Type"),
			Size:        input.CV.Size,
		}
	}
	if err := s.config.Rules.ValidateFile(file); err != nil {
		return nil, nil, err
	}

	sub := &models.Submission{
		Tenant:         input.Tenant,
		Language:       input.Language,
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		Phone:          strings.TrimSpace(input.Phone),
		SourceJobID:    input.SourceJobID,
		SourceURL:      input.SourceURL,
		ConsentCurrent: input.ConsentCurrent,
		ConsentFuture:  input.ConsentFuture,
		Tracking:       input.Tracking,
	}

	uploaded, err := s.upload(ctx, sub.Tenant, input)
	if err != nil {
		return nil, nil, err
	}
	sub.CV = uploaded

	ref, err := s.relay(ctx, *sub)
	if err != nil {
		return nil, nil, err
	}

	s.ledger.Record(ctx, ref, *sub)

	s.logger.Info("application accepted", map[string]interface{}{
		"tenant":      sub.Tenant,
		"referenceId": ref,
		"sourceJobId": sub.SourceJobID,
		"hasTracking": !sub.Tracking.Empty(),
	})
	return &Output{Success: true, ReferenceID: ref}, sub, nil
}

func (s *Service) upload(ctx context.Context, tenant string, input *Input) (models.UploadedFile, error) {
	ctx, span := s.obs.StartSpan(ctx, "cv.upload", attribute.String("tenant", tenant))
	defer span.End()
	start := time.Now()

	f, err := input.CV.Open()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.UploadedFile{}, apperrors.NewStorageUploadError(err)
	}
	defer f.Close()

	uploaded, err := s.uploader.Upload(ctx, tenant, input.CV.Filename, input.CV.Header.Get("Content-Type"), f, input.CV.Size)
	s.obs.RecordStep(ctx, "upload", time.Since(start), err == nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.UploadedFile{}, err
	}
	return uploaded, nil
}

func (s *Service) relay(ctx context.Context, sub models.Submission) (string, error) {
	ctx, span := s.obs.StartSpan(ctx, "upstream.submit_run", attribute.String("tenant", sub.Tenant))
	defer span.End()
	start := time.Now()

	ref, err := s.runs.SubmitRun(ctx, sub)
	s.obs.RecordStep(ctx, "upstream", time.Since(start), err == nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("referenceId", ref))
	return ref, nil
}
