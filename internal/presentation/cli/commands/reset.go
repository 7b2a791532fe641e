package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// resetFlags holds the flags for the reset command.
type resetFlags struct {
	All bool
	Yes bool
}

var resetOpts resetFlags

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [channel-id]",
		Short: "Clear stored sync state",
		Long: `Clear the stored delivery state for one channel, or for every
channel with --all.

After a reset the next connection treats the affected channels as
brand new: the gateway replay is accepted from scratch and a fresh
watermark is built. The cleared state is flushed immediately so a
crash right after the reset cannot resurrect it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runReset,
	}

	cmd.Flags().BoolVar(&resetOpts.All, "all", false, "clear state for every channel")
	cmd.Flags().BoolVarP(&resetOpts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	if resetOpts.All == (len(args) == 1) {
		return fmt.Errorf("specify either a channel id or --all")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store := container.SyncStore()

	if resetOpts.All {
		count := len(store.AllRecords())
		if !resetOpts.Yes {
			formatter.Warning("This clears state for %d channel(s). Re-run with --yes to confirm.", count)
			return nil
		}
		store.ClearAll(ctx)
		formatter.Success("Cleared state for %d channel(s)", count)
		return nil
	}

	channelID := args[0]
	if _, ok := store.Record(channelID); !ok {
		return fmt.Errorf("no state for channel %q", channelID)
	}

	store.ClearChannel(channelID)
	if err := store.ForceFlush(ctx); err != nil {
		return fmt.Errorf("state cleared but flush failed: %w", err)
	}

	formatter.Success("Cleared state for channel %s", channelID)
	return nil
}
