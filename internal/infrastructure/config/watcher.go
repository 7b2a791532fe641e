package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sentryview/sentryview/internal/infrastructure/logging"
)

// ReloadFunc is invoked with the freshly parsed configuration after the
// config file changes on disk and the change has settled.
type ReloadFunc func(*Config)

// WatcherConfig holds configuration for the config file watcher.
type WatcherConfig struct {
	DebounceDuration time.Duration
}

// DefaultWatcherConfig returns sensible default configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 250 * time.Millisecond,
	}
}

// Watcher monitors the config file and hot-applies changes. Editors
// typically produce a flurry of writes and renames per save, so events
// are debounced before the file is re-read. A file that fails to parse
// or validate is logged and skipped; the previous configuration stays
// in effect.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	config     WatcherConfig
	configPath string
	loader     *Loader
	reload     ReloadFunc
	logger     *logging.Logger

	// Debouncing state
	pendingAt time.Time
	pendingMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(loader *Loader, configPath string, cfg WatcherConfig, reload ReloadFunc, logger *logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 250 * time.Millisecond
	}
	if configPath == "" {
		configPath = loader.DefaultConfigPath()
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		fsWatcher:  fsWatcher,
		config:     cfg,
		configPath: configPath,
		loader:     loader,
		reload:     reload,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	return w, nil
}

// Watch starts watching the config file's directory. Watching the
// directory instead of the file survives the rename-and-replace save
// pattern most editors use.
func (w *Watcher) Watch() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := w.fsWatcher.Add(filepath.Dir(w.configPath)); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debounceProcessor()

	return nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	return err
}

// processEvents reads from fsnotify and marks the config file dirty.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.pendingMu.Lock()
			w.pendingAt = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err.Error())
		}
	}
}

// debounceProcessor periodically checks whether a pending change has
// been stable long enough and applies it.
func (w *Watcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.applyStableChange()
		}
	}
}

// applyStableChange re-reads the config file once a change has settled.
func (w *Watcher) applyStableChange() {
	w.pendingMu.Lock()
	pending := w.pendingAt
	if pending.IsZero() || time.Since(pending) < w.config.DebounceDuration {
		w.pendingMu.Unlock()
		return
	}
	w.pendingAt = time.Time{}
	w.pendingMu.Unlock()

	cfg, err := w.loader.LoadFromFile(w.configPath)
	if err != nil {
		w.logger.Warn("could not reload config, keeping previous",
			"path", w.configPath,
			"error", err.Error(),
		)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("reloaded config invalid, keeping previous",
			"path", w.configPath,
			"error", err.Error(),
		)
		return
	}

	w.logger.Info("config reloaded", "path", w.configPath)
	if w.reload != nil {
		w.reload(cfg)
	}
}
