// Package config holds blegap's runtime configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/srg/blegap/internal/gap"
)

// Output formats accepted by OutputFormat.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config holds application configuration
type Config struct {
	LogLevel       string        `yaml:"log_level" default:"panic"`
	ScanInterval   time.Duration `yaml:"scan_interval" default:"200ms"`
	ScanWindow     time.Duration `yaml:"scan_window" default:"150ms"`
	ScanTimeout    time.Duration `yaml:"scan_timeout" default:"10s"`
	ActiveScan     bool          `yaml:"active_scan" default:"true"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	OutputFormat   string        `yaml:"output_format" default:"table"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML configuration file on top of the defaults. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the log level, output format and scan parameters.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.OutputFormat {
	case FormatTable, FormatJSON:
	default:
		return fmt.Errorf("unsupported output format %q (expected %s or %s)", c.OutputFormat, FormatTable, FormatJSON)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative, got %v", c.ConnectTimeout)
	}
	_, err := c.ScanParameters()
	return err
}

// Level parses LogLevel. The default "panic" level keeps normal runs silent.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.PanicLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ScanParameters builds validated scan parameters from the configuration.
func (c *Config) ScanParameters() (gap.ScanParameters, error) {
	return gap.NewScanParameters(c.ScanInterval, c.ScanWindow, c.ScanTimeout, c.ActiveScan)
}

// NewLogger creates a configured logger instance. An unparsable LogLevel
// falls back to the silent panic level.
func (c *Config) NewLogger() *logrus.Logger {
	level, _ := c.Level()

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}
