package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/platform/config"
)

func TestNewBlankURLMeansNotConfigured(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "://not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis URL")
}

func TestPingTimeoutFallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, 5*time.Second, pingTimeout(config.RedisConfig{}))
	assert.Equal(t, time.Second, pingTimeout(config.RedisConfig{DialTimeout: time.Second}))
}
