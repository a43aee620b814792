package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Report formats accepted for REPORT_FORMAT.
var reportFormats = []string{"text", "json", "yaml"}

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceDir      string
	DestinationDir string

	ReportFormat   string
	ReportXLSXPath string

	Serve           bool
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Report publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers     []string
	KafkaReportTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	serve, err := parseBool("SERVE", false)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		SourceDir:        sharedcfg.EnvOrDefault("SOURCE_DIR", "data/csv"),
		DestinationDir:   sharedcfg.EnvOrDefault("DESTINATION_DIR", "data/parquet"),
		ReportFormat:     sharedcfg.EnvOrDefault("REPORT_FORMAT", "text"),
		ReportXLSXPath:   os.Getenv("REPORT_XLSX_PATH"),
		Serve:            serve,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaBrokers:     brokers,
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "weather-reports"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that may also be changed after Load, such as the
// directories overridden by command-line flags.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New("SOURCE_DIR is required")
	}
	if c.DestinationDir == "" {
		return errors.New("DESTINATION_DIR is required")
	}
	if !slices.Contains(reportFormats, c.ReportFormat) {
		return fmt.Errorf("invalid REPORT_FORMAT %q", c.ReportFormat)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaReportTopic == "" {
		return errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// PublishEnabled reports whether a Kafka report publisher should be created.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
