// Package config loads process-wide configuration from environment
// variables. It is read once and shared; packages that need settings at
// construction time call Get.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// SecurityConfig contains the scan service settings
type SecurityConfig struct {
	// APIKey authenticates against the scan service
	APIKey string

	// ProfileName is the AI security profile to scan against
	ProfileName string

	// Endpoint overrides the scan service base URL (optional)
	Endpoint string

	// MaxRetries is how many additional attempts follow a transient failure
	MaxRetries int

	// BaseBackoff is the wait before the first retry
	BaseBackoff time.Duration
}

// AzureConfig contains the Azure OpenAI settings
type AzureConfig struct {
	// Project is the Azure OpenAI resource name
	Project string

	// APIKey authenticates against the Azure resource
	APIKey string

	// Deployment is the model deployment name
	Deployment string

	// Endpoint overrides the resource endpoint (optional)
	Endpoint string
}

// ResourceEndpoint returns the Azure OpenAI endpoint, deriving it from the
// project name when no explicit endpoint is configured.
func (c AzureConfig) ResourceEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.Project == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.openai.azure.com/", c.Project)
}

// RedisConfig contains the decision cache settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LangfuseConfig contains the Langfuse tracing settings
type LangfuseConfig struct {
	Enabled     bool
	SecretKey   string
	PublicKey   string
	Host        string
	Environment string
}

// OTelConfig contains the OpenTelemetry tracing settings
type OTelConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string
}

// TracingConfig groups the tracing backends
type TracingConfig struct {
	Langfuse LangfuseConfig
	OTel     OTelConfig
}

// Config is the process-wide configuration
type Config struct {
	Security SecurityConfig
	Azure    AzureConfig
	Redis    RedisConfig
	Tracing  TracingConfig
	LogLevel string
}

var (
	cfg  *Config
	once sync.Once
)

// Get returns the global configuration, loading it from the environment on
// first use.
func Get() *Config {
	once.Do(func() {
		cfg = load()
	})
	return cfg
}

func load() *Config {
	return &Config{
		Security: SecurityConfig{
			APIKey:      os.Getenv("PANW_AI_SEC_API_KEY"),
			ProfileName: os.Getenv("PANW_AI_SEC_PROFILE_NAME"),
			Endpoint:    os.Getenv("PANW_AI_SEC_ENDPOINT"),
			MaxRetries:  envInt("PANW_AI_SEC_MAX_RETRIES", 3),
			BaseBackoff: envDuration("PANW_AI_SEC_BASE_BACKOFF", time.Second),
		},
		Azure: AzureConfig{
			Project:    os.Getenv("AZURE_PROJECT"),
			APIKey:     os.Getenv("AZURE_KEY"),
			Deployment: envDefault("AZURE_DEPLOYMENT", "gpt-4o"),
			Endpoint:   os.Getenv("AZURE_ENDPOINT"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Tracing: TracingConfig{
			Langfuse: LangfuseConfig{
				Enabled:     envBool("LANGFUSE_ENABLED"),
				SecretKey:   os.Getenv("LANGFUSE_SECRET_KEY"),
				PublicKey:   os.Getenv("LANGFUSE_PUBLIC_KEY"),
				Host:        os.Getenv("LANGFUSE_HOST"),
				Environment: envDefault("LANGFUSE_ENVIRONMENT", "development"),
			},
			OTel: OTelConfig{
				Enabled:           envBool("OTEL_ENABLED"),
				ServiceName:       envDefault("OTEL_SERVICE_NAME", "promptgate"),
				CollectorEndpoint: envDefault("OTEL_COLLECTOR_ENDPOINT", "localhost:4317"),
			},
		},
		LogLevel: envDefault("LOG_LEVEL", "info"),
	}
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string) bool {
	value, _ := strconv.ParseBool(os.Getenv(key))
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
