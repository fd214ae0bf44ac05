package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"billgen/internal/logger"
)

type Config struct {
	// Billing backend
	APIURL     string
	APITimeout time.Duration

	// Invoice rendering
	IssuerProfile string
	PDFWorkers    int

	// Preview server
	PreviewAddr string

	// Google Sheets Configuration
	GoogleSheetURL          string
	ReportWorksheet         string
	GoogleServiceAccountKey string

	// Optional: S3 archive for generated invoices
	ArchiveS3Bucket string
	ArchiveS3Prefix string
	AWSRegion       string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		APIURL:                  getEnv("BILLGEN_API_URL", "http://localhost:5000/api"),
		APITimeout:              time.Duration(getEnvInt("BILLGEN_API_TIMEOUT", 15)) * time.Second,
		IssuerProfile:           getEnv("ISSUER_PROFILE", ""),
		PDFWorkers:              getEnvInt("PDF_WORKERS", 4),
		PreviewAddr:             getEnv("PREVIEW_ADDR", ":8090"),
		GoogleSheetURL:          getEnv("GOOGLE_SHEET_URL", ""),
		ReportWorksheet:         getEnv("REPORT_WORKSHEET", "Reports"),
		GoogleServiceAccountKey: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		ArchiveS3Bucket:         getEnv("ARCHIVE_S3_BUCKET", ""),
		ArchiveS3Prefix:         getEnv("ARCHIVE_S3_PREFIX", "invoices"),
		AWSRegion:               getEnv("AWS_REGION", "ap-south-1"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:           getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:               getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BILLGEN_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("BILLGEN_API_TIMEOUT must be a positive number of seconds")
	}
	if c.PDFWorkers < 1 {
		return fmt.Errorf("PDF_WORKERS must be at least 1")
	}
	return nil
}

// RequireSheet reports whether the Google Sheets export is configured.
func (c *Config) RequireSheet() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
