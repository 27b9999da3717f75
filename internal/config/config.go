package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-skin-analyzer/pkg/validation"
)

type Config struct {
	Host           string
	Port           string
	RequestTimeout time.Duration

	// Remote analysis endpoint
	EndpointURL     string
	ShopDomain      string
	DefaultLocale   string
	AnalysisTimeout time.Duration

	// Image normalization
	MaxImageWidth  int
	MaxImageHeight int
	ImageQuality   float64
	MaxImagePixels int64

	// Upload acceptance
	MaxUploadSize     int64
	AcceptedMIMETypes []string

	// Admission
	MinRequestInterval time.Duration

	// Snapshot archive
	ArchiveEnabled   bool
	StorageAccount   string
	StorageKey       string
	ArchiveContainer string

	LogLevel string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		EndpointURL:        strings.TrimSpace(os.Getenv("ANALYZER_ENDPOINT_URL")),
		ShopDomain:         os.Getenv("SHOP_DOMAIN"),
		DefaultLocale:      getEnvOrDefault("DEFAULT_LOCALE", "fr-FR"),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		MaxImageWidth:      int(parseIntOrDefault("MAX_IMAGE_WIDTH", 1200)),
		MaxImageHeight:     int(parseIntOrDefault("MAX_IMAGE_HEIGHT", 1200)),
		ImageQuality:       parseFloatOrDefault("IMAGE_QUALITY", 0.85),
		MaxImagePixels:     parseIntOrDefault("MAX_IMAGE_PIXELS", validation.DefaultMaxPixels),
		MaxUploadSize:      parseIntOrDefault("MAX_UPLOAD_SIZE", validation.DefaultMaxUploadSize),
		AcceptedMIMETypes:  parseListOrDefault("ACCEPTED_MIME_TYPES", validation.DefaultAcceptedMIMETypes),
		MinRequestInterval: parseDurationOrDefault("MIN_REQUEST_INTERVAL", 3*time.Second),
		ArchiveEnabled:     parseBoolOrDefault("ARCHIVE_ENABLED", false),
		StorageAccount:     os.Getenv("AZURE_STORAGE_ACCOUNT"),
		StorageKey:         os.Getenv("AZURE_STORAGE_KEY"),
		ArchiveContainer:   os.Getenv("ARCHIVE_CONTAINER"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values; LoadFromEnv calls it, tests call it on literals.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if err := validation.NewEndpointValidator().ValidateEndpoint(c.EndpointURL); err != nil {
		return fmt.Errorf("invalid ANALYZER_ENDPOINT_URL: %w", err)
	}
	if c.MaxImageWidth <= 0 || c.MaxImageHeight <= 0 {
		return fmt.Errorf("image bounding box must be > 0 (got %dx%d)", c.MaxImageWidth, c.MaxImageHeight)
	}
	if c.ImageQuality <= 0 || c.ImageQuality > 1 {
		return fmt.Errorf("IMAGE_QUALITY must be in (0,1] (got %g)", c.ImageQuality)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", c.MaxUploadSize)
	}
	if len(c.AcceptedMIMETypes) == 0 {
		return fmt.Errorf("ACCEPTED_MIME_TYPES must list at least one type")
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)", c.RequestTimeout, c.AnalysisTimeout)
	}
	if c.MinRequestInterval < 0 {
		return fmt.Errorf("MIN_REQUEST_INTERVAL must be >= 0 (got %s)", c.MinRequestInterval)
	}
	if c.ArchiveEnabled && (c.StorageAccount == "" || c.StorageKey == "" || c.ArchiveContainer == "") {
		return fmt.Errorf("ARCHIVE_ENABLED requires AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY and ARCHIVE_CONTAINER")
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
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
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

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
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

// parseListOrDefault splits a comma separated variable, dropping blanks.
func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
