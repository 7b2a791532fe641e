// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"

	"github.com/sentryview/sentryview/internal/adapters/store"
	"github.com/sentryview/sentryview/internal/adapters/store/sqlite"
	"github.com/sentryview/sentryview/internal/adapters/transport/ws"
	"github.com/sentryview/sentryview/internal/application/ports"
	"github.com/sentryview/sentryview/internal/application/subscription"
	appSync "github.com/sentryview/sentryview/internal/application/sync"
	"github.com/sentryview/sentryview/internal/domain/event"
	"github.com/sentryview/sentryview/internal/infrastructure/config"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
	"github.com/sentryview/sentryview/internal/infrastructure/tracing"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order: observability first, then the
// blob store, the sync store on top of it, and finally the subscription
// controller and transport.
type Container struct {
	config  *config.Config
	verbose bool // Override log level to debug when true

	logger *logging.Logger
	tracer *tracing.Tracer

	blobStore  ports.BlobStorePort
	syncStore  *appSync.Store
	controller *subscription.Controller
	transport  *ws.Client
}

// NewContainer creates a new dependency injection container with all
// services initialized based on the provided configuration. Persisted
// sync state is loaded before the container is returned.
func NewContainer(ctx context.Context, cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initBlobStore(); err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("failed to initialize state store: %w", err)
	}

	c.initServices(ctx)

	return c, nil
}

// initObservability initializes logging and tracing.
func (c *Container) initObservability(ctx context.Context) error {
	logLevel := logging.LevelInfo
	if c.verbose {
		logLevel = logging.LevelDebug
	} else {
		switch c.config.Logging.Level {
		case "debug":
			logLevel = logging.LevelDebug
		case "info":
			logLevel = logging.LevelInfo
		case "warn":
			logLevel = logging.LevelWarn
		case "error":
			logLevel = logging.LevelError
		}
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	c.logger = logging.New(logging.Config{
		Level:  logLevel,
		Format: logFormat,
	})

	if c.config.Observability.Tracing.Enabled {
		tracer, err := tracing.New(ctx, tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
			OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Observability.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Observability.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	return nil
}

// initBlobStore selects the backing store for sync state.
func (c *Container) initBlobStore() error {
	if c.config.Sync.Ephemeral {
		c.blobStore = store.NewMemoryStore()
		return nil
	}

	adapter, err := sqlite.NewAdapter(c.config.Sync.DBPath)
	if err != nil {
		return err
	}
	c.blobStore = adapter
	return nil
}

// initServices wires the sync store, subscription controller, and
// transport together.
func (c *Container) initServices(ctx context.Context) {
	debounce := c.config.Sync.DebounceInterval
	if debounce <= 0 {
		debounce = appSync.DefaultDebounceInterval
	}

	c.syncStore = appSync.NewStore(c.blobStore,
		appSync.WithDebounceInterval(debounce),
		appSync.WithLogger(c.logger),
		appSync.WithTracer(c.tracer),
	)
	c.syncStore.Load(ctx)

	channels := event.Channels(c.config.Subscriptions.Areas, c.config.Subscriptions.EventKinds)
	c.controller = subscription.NewController(c.syncStore, channels, c.logger)

	c.transport = ws.NewClient(
		ws.Config{
			GatewayURL:       c.config.Gateway.URL,
			HandshakeTimeout: c.config.Gateway.HandshakeTimeout,
			WriteTimeout:     c.config.Gateway.WriteTimeout,
			MaxReconnectWait: c.config.Gateway.MaxReconnectWait,
		},
		c.controller,
		c.controller.Hooks(),
		ws.WithLogger(c.logger),
		ws.WithTracer(c.tracer),
	)
	c.controller.SetTransport(c.transport)
}

// Close releases all resources held by the container. The sync store is
// closed first so its final flush lands before the blob store goes away.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error

	if c.transport != nil {
		if err := c.transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.syncStore != nil {
		if err := c.syncStore.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.blobStore != nil {
		if err := c.blobStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// BlobStore returns the backing store for sync state.
func (c *Container) BlobStore() ports.BlobStorePort {
	return c.blobStore
}

// SyncStore returns the sync state store.
func (c *Container) SyncStore() *appSync.Store {
	return c.syncStore
}

// Controller returns the subscription controller.
func (c *Container) Controller() *subscription.Controller {
	return c.controller
}

// Transport returns the gateway transport.
func (c *Container) Transport() *ws.Client {
	return c.transport
}
