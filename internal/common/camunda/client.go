// Package camunda publishes workflow messages to a Zeebe broker.
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"apply-portal/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
}

// NewClient creates a plaintext client, suitable for local brokers.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         5 * time.Second,
	})
}

// NewClientWithConfig dials the gateway and checks the topology once.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return &Client{client: zeebeClient, config: config}, nil
}

// PublishMessage publishes a message that a waiting process instance can
// correlate on. messageID makes the publish idempotent within ttl.
func (c *Client) PublishMessage(ctx context.Context, name, correlationKey, messageID string, ttl time.Duration, variables interface{}) error {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	cmd := c.client.NewPublishMessageCommand().
		MessageName(name).
		CorrelationKey(correlationKey).
		TimeToLive(ttl)
	if messageID != "" {
		cmd = cmd.MessageId(messageID)
	}
	if variables != nil {
		var err error
		if cmd, err = cmd.VariablesFromObject(variables); err != nil {
			return fmt.Errorf("encode message variables: %w", err)
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		return MapZeebeError(err, "publish message "+name)
	}
	return nil
}

// HealthCheck performs a topology request against the gateway.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// MapZeebeError converts gRPC failures into EVENT_PUBLISH_FAILED errors,
// marking transport problems as retryable.
func MapZeebeError(err error, operation string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	stdErr := errors.NewEventPublishError(fmt.Sprintf("zeebe %s: %s", operation, msg))

	switch {
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "unavailable"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "timeout"):
		stdErr.Retryable = true
		return stdErr.WithMetadata("sink", "workflow").WithMetadata("cause", "transport")
	case strings.Contains(lower, "already exists"):
		// the same message id was published before within its TTL
		stdErr.Retryable = false
		return stdErr.WithMetadata("sink", "workflow").WithMetadata("cause", "duplicate")
	case strings.Contains(lower, "permission denied"), strings.Contains(lower, "unauthenticated"):
		stdErr.Retryable = false
		return stdErr.WithMetadata("sink", "workflow").WithMetadata("cause", "auth")
	default:
		stdErr.Retryable = false
		return stdErr.WithMetadata("sink", "workflow")
	}
}
