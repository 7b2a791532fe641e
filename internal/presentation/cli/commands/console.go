package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	appSync "github.com/sentryview/sentryview/internal/application/sync"
	"github.com/sentryview/sentryview/internal/presentation/cli/output"
)

// NewConsoleCmd creates the console command for interactive state inspection.
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive sync state console",
		Long: `Start an interactive console over the local sync state.

The console operates on the stored per-channel state without connecting
to the gateway, so it is safe to poke at delivery regimes and watermarks
while the client is offline.

Commands:
  status            - Show state summary
  channels          - List per-channel state
  channel <id>      - Show one channel in detail
  catchup <id>      - Put a channel into catch-up mode
  live <id>         - Return a channel to live mode
  reset <id>|all    - Clear state for a channel or everything
  flush             - Force an immediate state write
  help              - Show this help
  exit, quit        - Leave the console`,
		Args: cobra.NoArgs,
		RunE: runConsole,
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	formatter := GetFormatter()
	container := GetContainer()
	if container == nil {
		return fmt.Errorf("application not initialized")
	}

	formatter.Header("Sentryview Console")
	formatter.Item("State store", stateStoreLocation(container))
	formatter.Println("")
	formatter.Info("Type a command and press Enter. Type help for commands.")
	formatter.Println("")

	rl, err := readline.New("sv> ")
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		exit, err := handleConsoleCommand(ctx, line, container.SyncStore(), formatter)
		if err != nil {
			formatter.Error("%s", err.Error())
			continue
		}
		if exit {
			break
		}
	}

	formatter.Info("Console closed.")
	return nil
}

// handleConsoleCommand dispatches one console line.
// Returns (shouldExit, error).
func handleConsoleCommand(ctx context.Context, line string, store *appSync.Store, formatter *output.Formatter) (bool, error) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case "exit", "quit":
		return true, nil

	case "help":
		formatter.Header("Console Commands")
		formatter.Item("status", "Show state summary")
		formatter.Item("channels", "List per-channel state")
		formatter.Item("channel <id>", "Show one channel in detail")
		formatter.Item("catchup <id>", "Put a channel into catch-up mode")
		formatter.Item("live <id>", "Return a channel to live mode")
		formatter.Item("reset <id>|all", "Clear state for a channel or everything")
		formatter.Item("flush", "Force an immediate state write")
		formatter.Item("exit, quit", "Leave the console")
		formatter.Println("")
		return false, nil

	case "status":
		records := store.AllRecords()
		formatter.Item("Tracked channels", fmt.Sprintf("%d", len(records)))
		formatter.Item("Total accepted", fmt.Sprintf("%d", store.TotalAccepted()))
		return false, nil

	case "channels":
		rows := channelRows(store, store.AllRecords(), time.Now(), time.Hour)
		if len(rows) == 0 {
			formatter.Info("No channel state recorded yet.")
			return false, nil
		}
		for _, row := range rows {
			formatter.Println("  %-24s seq=%-8d accepted=%-6d %s", row.ChannelID, row.HighestSeq, row.Accepted, row.Mode)
		}
		return false, nil

	case "channel":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: channel <id>")
		}
		rec, ok := store.Record(parts[1])
		if !ok {
			return false, fmt.Errorf("no state for channel %q", parts[1])
		}
		formatter.Header(rec.ChannelID)
		formatter.Item("Highest sequence", fmt.Sprintf("%d", rec.HighestSequence))
		formatter.Item("Last event", rec.LastEventID)
		formatter.Item("Last event time", output.FormatMillis(rec.LastEventTimestamp))
		formatter.Item("Accepted", fmt.Sprintf("%d", rec.TotalReceived))
		mode := "live"
		if store.InCatchUp(rec.ChannelID) {
			mode = fmt.Sprintf("catch-up (%d replayed)", store.Progress(rec.ChannelID))
		}
		formatter.Item("Mode", mode)
		return false, nil

	case "catchup":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: catchup <id>")
		}
		store.EnableCatchUp(parts[1])
		formatter.Success("Channel %s now in catch-up mode", parts[1])
		return false, nil

	case "live":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: live <id>")
		}
		store.DisableCatchUp(parts[1])
		formatter.Success("Channel %s back in live mode", parts[1])
		return false, nil

	case "reset":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: reset <id>|all")
		}
		if parts[1] == "all" {
			store.ClearAll(ctx)
			formatter.Success("All channel state cleared")
			return false, nil
		}
		store.ClearChannel(parts[1])
		formatter.Success("State cleared for channel %s", parts[1])
		return false, nil

	case "flush":
		if err := store.ForceFlush(ctx); err != nil {
			return false, err
		}
		formatter.Success("State flushed")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s (type help for help)", command)
	}
}
