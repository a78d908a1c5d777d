package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClients(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	clients, err := NewClients(context.Background(), "eu-central-1")
	require.NoError(t, err)
	assert.NotNil(t, clients.S3)
	assert.NotNil(t, clients.EventBridge)
	assert.NotNil(t, clients.SNS)
	assert.NotNil(t, clients.SES)
}

func TestLoadConfig_Region(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg, err := LoadConfig(context.Background(), "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}
