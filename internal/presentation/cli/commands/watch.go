package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sentryview/sentryview/internal/application"
	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"
	"github.com/sentryview/sentryview/internal/domain/event"
	"github.com/sentryview/sentryview/internal/infrastructure/config"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Connect to the gateway and tail accepted events",
		Long: `Connect to the event gateway, subscribe to the configured channels,
and print every accepted event until interrupted.

Duplicate deliveries are suppressed; after a reconnect the gateway
replay is filtered against the stored per-channel state, so each event
prints at most once even across connection drops. Sync state is flushed
on exit.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	if len(container.Controller().ChannelIDs()) == 0 {
		return fmt.Errorf("no subscriptions configured; set subscriptions.areas and subscriptions.event_kinds")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container.Controller().AddListener(func(e event.Event) {
		_ = formatter.EventLine(e.Timestamp, e.Channel, e.ID, e.Sequence)
	})

	// Hot-reload the config file so log level and subscription changes
	// apply without a restart. Connection settings still need one.
	watcher := startConfigWatcher(ctx, container)
	if watcher != nil {
		defer watcher.Close()
	}

	formatter.Info("Connecting to %s", container.Config().Gateway.URL)
	formatter.Info("Watching %d channel(s), Ctrl-C to stop", len(container.Controller().ChannelIDs()))

	err := container.Transport().Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, domainErrors.ErrTransportClosed) {
		formatter.Info("Stopped. %d event(s) accepted in total.", container.SyncStore().TotalAccepted())
		return nil
	}
	return err
}

// startConfigWatcher wires the config file watcher. Returns nil when
// watching is not possible; watch still works without it.
func startConfigWatcher(ctx context.Context, container *application.Container) *config.Watcher {
	logger := container.Logger()

	loader, err := config.NewLoader("")
	if err != nil {
		return nil
	}

	configPath := globalFlags.ConfigFile
	if configPath == "" {
		configPath = loader.DefaultConfigPath()
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil
	}

	watcher, err := config.NewWatcher(loader, configPath, config.DefaultWatcherConfig(), func(cfg *config.Config) {
		logger.SetLevel(logging.Level(cfg.Logging.Level))

		channels := event.Channels(cfg.Subscriptions.Areas, cfg.Subscriptions.EventKinds)
		if err := container.Controller().UpdateChannels(ctx, channels); err != nil {
			logger.Warn("could not re-declare subscriptions", "error", err.Error())
		}

		logger.Info("configuration reloaded", "path", configPath)
	}, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", "error", err.Error())
		return nil
	}

	if err := watcher.Watch(); err != nil {
		logger.Warn("config watcher failed to start", "error", err.Error())
		_ = watcher.Close()
		return nil
	}
	return watcher
}
