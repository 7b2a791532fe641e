// Sentryview CLI entry point
//
// Sentryview (sv) is a monitoring client for camera event gateways.
// It subscribes to per-channel event streams, suppresses duplicate
// deliveries across reconnects, and keeps durable per-channel delivery
// state.
package main

import "github.com/sentryview/sentryview/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
