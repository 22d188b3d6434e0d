package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	MaxImageSize       int64
	MaxImagePixels     int64
	BatchConcurrency   int
	MaxBatchSize       int
	AllowedHosts       []string
	AllowLocalFiles    bool
	FlagSpecFile       string
	AzureAccount       string
	AzureKey           string
	LogLevel           string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether shared-key credentials for blob sources are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != ""
}

// LoadFromEnv reads configuration from the environment, after merging an
// optional .env file from the working directory. Variables already set in
// the environment win over the file.
func LoadFromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		MaxImageSize:       parseIntOrDefault("MAX_IMAGE_SIZE", 5*1024*1024),         // 5MB
		MaxImagePixels:     parseIntOrDefault("MAX_IMAGE_PIXELS", 25_000_000),        // 25 megapixels
		BatchConcurrency:   int(parseIntOrDefault("BATCH_CONCURRENCY", 4)),
		MaxBatchSize:       int(parseIntOrDefault("MAX_BATCH_SIZE", 20)),
		AllowedHosts:       parseListOrDefault("ALLOWED_HOSTS", nil),
		AllowLocalFiles:    parseBoolOrDefault("ALLOW_LOCAL_FILES", false),
		FlagSpecFile:       getEnvOrDefault("FLAG_SPEC_FILE", ""),
		AzureAccount:       getEnvOrDefault("AZURE_STORAGE_ACCOUNT", ""),
		AzureKey:           getEnvOrDefault("AZURE_STORAGE_KEY", ""),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv merges .env from the working directory into the environment
// when the file exists.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImageSize <= 0 || c.MaxImageSize > c.MaxRequestBodySize {
		return fmt.Errorf("MAX_IMAGE_SIZE must be in (0, MAX_REQUEST_BODY_SIZE] (got %d)", c.MaxImageSize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be >= 1 (got %d)", c.BatchConcurrency)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be >= 1 (got %d)", c.MaxBatchSize)
	}
	if (c.AzureAccount == "") != (c.AzureKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// parseListOrDefault splits a comma separated variable, dropping empty entries
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
