package config_test

import (
	"testing"
	"time"

	"github.com/parcelgrid/shipping/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 10*time.Minute, cfg.RateCacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.TrackingCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.CarrierTimeout)
	assert.Equal(t, "@every 2h", cfg.PollSchedule)
	assert.Equal(t, []string{"velocity", "northwind"}, cfg.StubCarriers)
	assert.False(t, cfg.GatewayEnabled)
	assert.Equal(t, "parcelgrid-shipping", cfg.ServiceName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CARRIER_TIMEOUT", "2s")
	t.Setenv("STUB_CARRIERS", "alpha,beta,gamma")
	t.Setenv("GATEWAY_ENABLED", "true")
	t.Setenv("GATEWAY_USE_MOCK", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 2*time.Second, cfg.CarrierTimeout)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, cfg.StubCarriers)
	assert.True(t, cfg.GatewayEnabled)
	assert.True(t, cfg.GatewayUseMock)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CARRIER_TIMEOUT", "not-a-duration")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestAttributes(t *testing.T) {
	cfg := &config.Config{
		ServiceName:  "parcelgrid-shipping",
		Version:      "0.1.0",
		RedisURL:     "redis://localhost:6379/0",
		StubCarriers: []string{"velocity", "northwind"},
	}

	attrs := cfg.Attributes()
	assert.Len(t, attrs, 5)
}
