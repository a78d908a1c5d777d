// Package aws builds the AWS SDK clients used by the portal from a single
// shared configuration.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig resolves credentials from the default chain (env, shared
// profile, task role).
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// Clients groups the service clients so the config is resolved once.
type Clients struct {
	S3          *S3Client
	EventBridge *EventBridgeClient
	SNS         *SNSClient
	SES         *SESClient
}

func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return &Clients{
		S3:          NewS3Client(cfg),
		EventBridge: NewEventBridgeClient(cfg),
		SNS:         NewSNSClient(cfg),
		SES:         NewSESClient(cfg),
	}, nil
}
