package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Cache. An empty REDIS_URL disables caching; the service still
	// works, just without cache hits.
	RedisURL         string        `envconfig:"REDIS_URL"`
	RateCacheTTL     time.Duration `envconfig:"RATE_CACHE_TTL" default:"10m"`
	TrackingCacheTTL time.Duration `envconfig:"TRACKING_CACHE_TTL" default:"30m"`

	// Aggregation
	CarrierTimeout time.Duration `envconfig:"CARRIER_TIMEOUT" default:"5s"`

	// Background tracking poller
	PollSchedule string `envconfig:"POLL_SCHEDULE" default:"@every 2h"`

	// Stub carriers: names of deterministic in-process adapters,
	// registered in list order. Useful for development and demos.
	StubCarriers []string `envconfig:"STUB_CARRIERS" default:"velocity,northwind"`

	// Shipping gateway
	GatewayEnabled bool   `envconfig:"GATEWAY_ENABLED" default:"false"`
	GatewayName    string `envconfig:"GATEWAY_NAME" default:"gateway"`
	GatewayAPIKey  string `envconfig:"GATEWAY_API_KEY"`
	GatewayBaseURL string `envconfig:"GATEWAY_BASE_URL" default:"https://api.shipgateway.example/v1"`
	GatewayUseMock bool   `envconfig:"GATEWAY_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"parcelgrid-shipping"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("cache.enabled", c.RedisURL != ""),
		attribute.Bool("gateway.enabled", c.GatewayEnabled),
		attribute.Int("carriers.stub", len(c.StubCarriers)),
	}
}
