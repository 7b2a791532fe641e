package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentryview/sentryview/internal/application"
	"github.com/sentryview/sentryview/internal/presentation/cli/output"
)

// StatusInfo holds the client status for JSON output.
type StatusInfo struct {
	GatewayURL      string   `json:"gateway_url"`
	StateStore      string   `json:"state_store"`
	Subscriptions   []string `json:"subscriptions"`
	TrackedChannels int      `json:"tracked_channels"`
	TotalAccepted   uint64   `json:"total_accepted"`
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show client status and sync state summary",
		Long: `Display the gateway configuration, state store location, configured
subscriptions, and a summary of the per-channel sync state.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	info := StatusInfo{
		GatewayURL:      container.Config().Gateway.URL,
		StateStore:      stateStoreLocation(container),
		Subscriptions:   container.Controller().ChannelIDs(),
		TrackedChannels: len(container.SyncStore().AllRecords()),
		TotalAccepted:   container.SyncStore().TotalAccepted(),
	}

	if formatter.Format() == output.FormatJSON {
		return formatter.JSON(info)
	}

	formatter.Header("Sentryview Status")
	formatter.Item("Gateway", info.GatewayURL)
	formatter.Item("State store", info.StateStore)
	formatter.Item("Subscriptions", fmt.Sprintf("%d configured", len(info.Subscriptions)))
	for _, id := range info.Subscriptions {
		formatter.Println("    - %s", id)
	}
	formatter.Item("Tracked channels", fmt.Sprintf("%d", info.TrackedChannels))
	formatter.Item("Total accepted", fmt.Sprintf("%d", info.TotalAccepted))

	return nil
}

// stateStoreLocation describes where sync state lives.
func stateStoreLocation(container *application.Container) string {
	if container.Config().Sync.Ephemeral {
		return "memory (ephemeral)"
	}
	if p, ok := container.BlobStore().(interface{ Path() string }); ok {
		return p.Path()
	}
	return "sqlite"
}
