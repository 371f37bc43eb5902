package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string

	DefaultFormat  string
	DefaultQuality float64
	Background     string

	MaxSourceBytes int64
	MaxDimension   int
	AutoOrient     bool
	FetchTimeout   time.Duration

	// Object storage is optional; without an endpoint object references are
	// rejected.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIORegion    string

	OTelEnabled    bool
	OTelEndpoint   string
	OTelSampleRate float64
}

func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "warn")
	cfg.LogFormat = getEnvString("LOG_FORMAT", "json")

	cfg.DefaultFormat = getEnvString("IMGEDIT_DEFAULT_FORMAT", "jpeg")
	cfg.DefaultQuality = getEnvFloat("IMGEDIT_DEFAULT_QUALITY", 0.92)
	cfg.Background = os.Getenv("IMGEDIT_BACKGROUND")

	cfg.MaxSourceBytes = getEnvInt64("IMGEDIT_MAX_SOURCE_BYTES", 50*1024*1024)
	cfg.MaxDimension = getEnvInt("IMGEDIT_MAX_DIMENSION", 16384)
	cfg.AutoOrient = getEnvBool("IMGEDIT_AUTO_ORIENT", true)
	cfg.FetchTimeout, err = getEnvDuration("IMGEDIT_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, fmt.Errorf("invalid IMGEDIT_FETCH_TIMEOUT: %w", err)
	}

	cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "images")
	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIORegion = getEnvString("MINIO_REGION", "us-east-1")

	cfg.OTelEnabled = getEnvBool("OTEL_ENABLED", false)
	cfg.OTelEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	cfg.OTelSampleRate = getEnvFloat("OTEL_SAMPLE_RATE", 1.0)

	return cfg, nil
}

// StorageEnabled reports whether object storage credentials are present.
func (c *Config) StorageEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.LogFormat)
	}

	if c.DefaultQuality < 0 || c.DefaultQuality > 1 {
		return fmt.Errorf("invalid default quality: %v", c.DefaultQuality)
	}

	if c.MaxSourceBytes < 1 {
		return fmt.Errorf("invalid max source bytes: %d", c.MaxSourceBytes)
	}

	if c.MaxDimension < 1 {
		return fmt.Errorf("invalid max dimension: %d", c.MaxDimension)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout: %s", c.FetchTimeout)
	}

	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("invalid otel sample rate: %v", c.OTelSampleRate)
	}

	if c.MinIOEndpoint != "" && !c.StorageEnabled() {
		return fmt.Errorf("MINIO_ENDPOINT is set but MINIO_ACCESS_KEY or MINIO_SECRET_KEY is missing")
	}

	return nil
}
