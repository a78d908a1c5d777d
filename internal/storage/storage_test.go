package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "apply-portal/internal/common/errors"
	"apply-portal/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockS3 struct {
	PutObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *MockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.PutObjectFunc(ctx, params, optFns...)
}

var fixedNow = time.Date(2024, time.March, 7, 23, 30, 0, 0, time.FixedZone("CET", 3600))

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		tenant   string
		filename string
		id       string
		want     string
	}{
		{
			name:     "plain",
			tenant:   "acme",
			filename: "cv.pdf",
			want:     "tenantName=acme/year=2024/month=03/day=07/cv.pdf",
		},
		{
			name:     "prefix and id",
			prefix:   "/cv/",
			tenant:   "acme",
			filename: "cv.pdf",
			id:       "abc123",
			want:     "cv/tenantName=acme/year=2024/month=03/day=07/abc123-cv.pdf",
		},
		{
			name:     "sanitised tenant and filename",
			tenant:   "acme corp/../x",
			filename: "Jan Kowalski CV (final).docx",
			want:     "tenantName=acme_corp____x/year=2024/month=03/day=07/Jan_Kowalski_CV__final_.docx",
		},
		{
			name:     "path components stripped",
			tenant:   "acme",
			filename: `C:\Users\jan\cv.pdf`,
			want:     "tenantName=acme/year=2024/month=03/day=07/cv.pdf",
		},
		{
			name:     "non-ascii filename",
			tenant:   "acme",
			filename: "życiorys.pdf",
			want:     "tenantName=acme/year=2024/month=03/day=07/_yciorys.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 23:30 CET is 22:30 UTC on the same day
			assert.Equal(t, tt.want, BuildKey(tt.prefix, tt.tenant, tt.filename, tt.id, fixedNow))
		})
	}
}

func TestBuildKey_UsesUTCDate(t *testing.T) {
	lateInWarsaw := time.Date(2024, time.December, 31, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "tenantName=a/year=2024/month=12/day=30/f.pdf", BuildKey("", "a", "f.pdf", "", lateInWarsaw))
}

func TestSanitizeFilename_Empty(t *testing.T) {
	assert.Equal(t, "cv", SanitizeFilename(""))
	assert.Equal(t, "cv", SanitizeFilename(".."))
}

func newUploader(client ObjectPutter) *Uploader {
	u := NewUploader(client, "sm-dev-app-apply-bucket", "cv", logger.NewNoOpLogger())
	u.now = func() time.Time { return fixedNow }
	u.newID = func() string { return "0123abcd" }
	return u
}

func TestUploader_Upload(t *testing.T) {
	var got *s3.PutObjectInput
	var body string
	client := &MockS3{PutObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = params
		b, _ := io.ReadAll(params.Body)
		body = string(b)
		return &s3.PutObjectOutput{}, nil
	}}

	file, err := newUploader(client).Upload(context.Background(), "acme", "My CV.pdf", "application/pdf", strings.NewReader("%PDF-1.4"), 8)
	require.NoError(t, err)

	assert.Equal(t, "cv/tenantName=acme/year=2024/month=03/day=07/0123abcd-My_CV.pdf", file.FileURL)
	assert.Equal(t, "My CV.pdf", file.OriginalFilename)

	require.NotNil(t, got)
	assert.Equal(t, "sm-dev-app-apply-bucket", aws.ToString(got.Bucket))
	assert.Equal(t, file.FileURL, aws.ToString(got.Key))
	assert.Equal(t, "application/pdf", aws.ToString(got.ContentType))
	assert.Equal(t, int64(8), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "acme", got.Metadata["tenant"])
	assert.Equal(t, "%PDF-1.4", body)
}

func TestUploader_UploadFailure(t *testing.T) {
	client := &MockS3{PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("AccessDenied")
	}}

	_, err := newUploader(client).Upload(context.Background(), "acme", "cv.pdf", "", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageUploadFailed))
	assert.Equal(t, "Internal server error", apperrors.PublicMessage(err))
}
