package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Gateway.URL != DefaultGatewayURL {
		t.Errorf("Gateway.URL = %q, want %q", cfg.Gateway.URL, DefaultGatewayURL)
	}
	if cfg.Sync.DebounceInterval != DefaultSyncDebounceInterval {
		t.Errorf("Sync.DebounceInterval = %v, want %v", cfg.Sync.DebounceInterval, DefaultSyncDebounceInterval)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing gateway url",
			mutate:  func(c *Config) { c.Gateway.URL = "" },
			wantErr: true,
		},
		{
			name:    "wrong gateway scheme",
			mutate:  func(c *Config) { c.Gateway.URL = "http://gateway.local/feed" },
			wantErr: true,
		},
		{
			name:    "ws scheme accepted",
			mutate:  func(c *Config) { c.Gateway.URL = "ws://gateway.local/feed" },
			wantErr: false,
		},
		{
			name:    "zero debounce interval",
			mutate:  func(c *Config) { c.Sync.DebounceInterval = 0 },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: true,
		},
		{
			name:    "bad tracing exporter",
			mutate:  func(c *Config) { c.Observability.Tracing.ExporterType = "jaeger" },
			wantErr: true,
		},
		{
			name: "otlp without endpoint",
			mutate: func(c *Config) {
				c.Observability.Tracing.Enabled = true
				c.Observability.Tracing.ExporterType = "otlp"
			},
			wantErr: true,
		},
		{
			name:    "sample rate out of range",
			mutate:  func(c *Config) { c.Observability.Tracing.SampleRate = 1.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoaderMissingFileReturnsDefaults(t *testing.T) {
	loader, err := NewLoader(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.URL != DefaultGatewayURL {
		t.Errorf("missing file should yield defaults, got %+v", cfg.Gateway)
	}
}

func TestLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Gateway.URL = "wss://gateway.example.com/feed"
	cfg.Subscriptions.Areas = []string{"yard", "garage"}
	cfg.Subscriptions.EventKinds = []string{"motion", "person"}
	cfg.Sync.DebounceInterval = 250 * time.Millisecond

	path := filepath.Join(dir, "config.yaml")
	if err := loader.Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if loaded.Gateway.URL != cfg.Gateway.URL {
		t.Errorf("Gateway.URL = %q, want %q", loaded.Gateway.URL, cfg.Gateway.URL)
	}
	if len(loaded.Subscriptions.Areas) != 2 || loaded.Subscriptions.Channels() != 4 {
		t.Errorf("subscriptions did not round-trip: %+v", loaded.Subscriptions)
	}
	if loaded.Sync.DebounceInterval != 250*time.Millisecond {
		t.Errorf("Sync.DebounceInterval = %v", loaded.Sync.DebounceInterval)
	}
}

func TestLoaderPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "config.yaml")
	partial := "gateway:\n  url: ws://gateway.local/feed\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Gateway.URL != "ws://gateway.local/feed" {
		t.Errorf("Gateway.URL = %q", cfg.Gateway.URL)
	}
	if cfg.Sync.DebounceInterval != DefaultSyncDebounceInterval {
		t.Errorf("unset fields should keep defaults, got %v", cfg.Sync.DebounceInterval)
	}
}
