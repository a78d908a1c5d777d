// Package storage writes candidate CVs to the apply bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"
	"apply-portal/internal/common/metrics"
	"apply-portal/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	unsafeTenant   = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// ObjectPutter is the part of the S3 API the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewUploader(client ObjectPutter, bucket, prefix string, log logger.Logger) *Uploader {
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: log.WithFields(map[string]interface{}{"component": "storage"}),
		now:    time.Now,
		newID:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
	}
}

// BuildKey lays objects out as Hive-style partitions so the bucket can be
// queried by tenant and date:
//
//	[prefix/]tenantName=<t>/year=YYYY/month=MM/day=DD/<id>-<filename>
func BuildKey(prefix, tenant, filename, id string, now time.Time) string {
	now = now.UTC()
	name := SanitizeFilename(filename)
	if id != "" {
		name = id + "-" + name
	}
	key := fmt.Sprintf("tenantName=%s/year=%04d/month=%02d/day=%02d/%s",
		SanitizeTenant(tenant), now.Year(), int(now.Month()), now.Day(), name)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = path.Join(prefix, key)
	}
	return key
}

func SanitizeTenant(tenant string) string {
	return unsafeTenant.ReplaceAllString(tenant, "_")
}

func SanitizeFilename(filename string) string {
	name := unsafeFilename.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	if name == "" || name == "." || name == ".." {
		return "cv"
	}
	return name
}

// Upload stores body and returns the object key as the file URL.
func (u *Uploader) Upload(ctx context.Context, tenant, filename, contentType string, body io.Reader, size int64) (models.UploadedFile, error) {
	key := BuildKey(u.prefix, tenant, filename, u.newID(), u.now())

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
		Metadata: map[string]string{
			"tenant":            tenant,
			"original-filename": SanitizeFilename(filename),
		},
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		u.logger.Error("CV upload failed", map[string]interface{}{
			"bucket": u.bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return models.UploadedFile{}, apperrors.NewStorageUploadError(err)
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	if size > 0 {
		metrics.UploadBytes.Observe(float64(size))
	}
	u.logger.Info("CV uploaded", map[string]interface{}{"bucket": u.bucket, "key": key, "size": size})

	return models.UploadedFile{FileURL: key, OriginalFilename: filename}, nil
}
