package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
)

type EventBridgeClient struct {
	client *eventbridge.Client
}

func NewEventBridgeClient(cfg awssdk.Config) *EventBridgeClient {
	return &EventBridgeClient{client: eventbridge.NewFromConfig(cfg)}
}

func (e *EventBridgeClient) PutEvents(ctx context.Context, input *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	return e.client.PutEvents(ctx, input, optFns...)
}
