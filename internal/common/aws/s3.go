package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3Client struct {
	client *s3.Client
}

func NewS3Client(cfg awssdk.Config) *S3Client {
	return &S3Client{client: s3.NewFromConfig(cfg)}
}

func (s *S3Client) PutObject(ctx context.Context, input *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return s.client.PutObject(ctx, input, optFns...)
}

// HeadBucket is used by the readiness probe.
func (s *S3Client) HeadBucket(ctx context.Context, bucket string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awssdk.String(bucket)})
	return err
}
