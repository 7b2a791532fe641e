// Package config provides configuration structs and utilities for the sentryview client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config represents the root configuration for the sentryview client.
type Config struct {
	Gateway       GatewayConfig       `yaml:"gateway"`
	Subscriptions SubscriptionsConfig `yaml:"subscriptions"`
	Sync          SyncConfig          `yaml:"sync"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GatewayConfig holds configuration for the event gateway connection.
type GatewayConfig struct {
	URL              string        `yaml:"url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxReconnectWait time.Duration `yaml:"max_reconnect_wait"`
}

// SubscriptionsConfig declares which channels the client subscribes to:
// the cross product of monitored areas and event kinds.
type SubscriptionsConfig struct {
	Areas      []string `yaml:"areas"`
	EventKinds []string `yaml:"event_kinds"`
}

// SyncConfig holds configuration for the sync engine and its persistence.
type SyncConfig struct {
	// DebounceInterval is how long a burst of accepted events must
	// quiesce before a state write happens.
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// DBPath is the SQLite file for durable sync state. Empty selects
	// the default location under the config directory.
	DBPath string `yaml:"db_path"`

	// Ephemeral keeps sync state in memory only; nothing survives a
	// restart.
	Ephemeral bool `yaml:"ephemeral"`
}

// LoggingConfig holds configuration for application logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ObservabilityConfig holds configuration for observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`       // Whether tracing is enabled
	ExporterType string  `yaml:"exporter_type"` // none, stdout, otlp
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // OTLP collector endpoint
	SampleRate   float64 `yaml:"sample_rate"`   // Sampling rate (0.0 to 1.0)
	ServiceName  string  `yaml:"service_name"`  // Service name for traces
}

// Default configuration values.
const (
	DefaultGatewayURL       = "wss://localhost:8443/feed"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultMaxReconnectWait = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultSyncDebounceInterval = 500 * time.Millisecond

	DefaultTracingEnabled      = false
	DefaultTracingExporterType = "none"
	DefaultTracingSampleRate   = 1.0
	DefaultTracingServiceName  = "sentryview"
)

// Valid log levels.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Valid log formats.
var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Valid tracing exporter types.
var validTracingExporterTypes = map[string]bool{
	"none":   true,
	"stdout": true,
	"otlp":   true,
}

// NewDefaultConfig creates a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:              DefaultGatewayURL,
			HandshakeTimeout: DefaultHandshakeTimeout,
			WriteTimeout:     DefaultWriteTimeout,
			MaxReconnectWait: DefaultMaxReconnectWait,
		},
		Subscriptions: SubscriptionsConfig{
			EventKinds: []string{"motion"},
		},
		Sync: SyncConfig{
			DebounceInterval: DefaultSyncDebounceInterval,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:      DefaultTracingEnabled,
				ExporterType: DefaultTracingExporterType,
				SampleRate:   DefaultTracingSampleRate,
				ServiceName:  DefaultTracingServiceName,
			},
		},
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("gateway: %w", err))
	}
	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observability: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks the gateway configuration.
func (g *GatewayConfig) Validate() error {
	if g.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(g.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", g.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("url scheme must be ws or wss, got %q", u.Scheme)
	}
	if g.HandshakeTimeout < 0 {
		return errors.New("handshake_timeout must not be negative")
	}
	return nil
}

// Validate checks the sync configuration.
func (s *SyncConfig) Validate() error {
	if s.DebounceInterval <= 0 {
		return errors.New("debounce_interval must be positive")
	}
	return nil
}

// Validate checks the logging configuration.
func (l *LoggingConfig) Validate() error {
	if l.Level != "" && !validLogLevels[l.Level] {
		return fmt.Errorf("invalid level %q", l.Level)
	}
	if l.Format != "" && !validLogFormats[l.Format] {
		return fmt.Errorf("invalid format %q", l.Format)
	}
	return nil
}

// Validate checks the observability configuration.
func (o *ObservabilityConfig) Validate() error {
	t := o.Tracing
	if t.ExporterType != "" && !validTracingExporterTypes[t.ExporterType] {
		return fmt.Errorf("invalid tracing exporter_type %q", t.ExporterType)
	}
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	if t.Enabled && t.ExporterType == "otlp" && t.OTLPEndpoint == "" {
		return errors.New("tracing otlp_endpoint is required for the otlp exporter")
	}
	return nil
}

// Channels returns the subscribed channel count without materializing
// the cross product.
func (s *SubscriptionsConfig) Channels() int {
	return len(s.Areas) * len(s.EventKinds)
}
