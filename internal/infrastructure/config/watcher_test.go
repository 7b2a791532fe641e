package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, gatewayURL string) {
	t.Helper()

	content := "gateway:\n  url: " + gatewayURL + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "ws://gateway.local/feed")

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu     sync.Mutex
		gotURL string
	)
	reload := func(cfg *Config) {
		mu.Lock()
		gotURL = cfg.Gateway.URL
		mu.Unlock()
	}

	w, err := NewWatcher(loader, path, WatcherConfig{DebounceDuration: 50 * time.Millisecond}, reload, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, path, "ws://gateway2.local/feed")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		url := gotURL
		mu.Unlock()
		if url == "ws://gateway2.local/feed" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("config change was not applied before timeout")
}

func TestWatcherKeepsPreviousOnInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "ws://gateway.local/feed")

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu      sync.Mutex
		reloads int
	)
	reload := func(cfg *Config) {
		mu.Lock()
		reloads++
		mu.Unlock()
	}

	w, err := NewWatcher(loader, path, WatcherConfig{DebounceDuration: 50 * time.Millisecond}, reload, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// An invalid gateway scheme must never reach the reload callback.
	writeConfig(t, path, "http://gateway.local/feed")

	time.Sleep(500 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if reloads != 0 {
		t.Errorf("invalid config triggered %d reloads, want 0", reloads)
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(loader, filepath.Join(dir, "config.yaml"), DefaultWatcherConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
