package ports

import "context"

// EventSinkPort receives raw event tuples from the stream transport.
// The boolean return tells the transport whether the event was new;
// only then may it be forwarded to the rest of the application.
type EventSinkPort interface {
	RecordEvent(channelID, eventID string, timestampMillis int64, sequence uint64) bool
}

// TransportHooks carries the connection lifecycle callbacks a transport
// invokes from its read loop. Any nil callback is skipped.
type TransportHooks struct {
	// OnUp fires after a connection is established. resumed is false for
	// the first connect of a session and true for every reconnect.
	OnUp func(ctx context.Context, resumed bool)

	// OnDown fires when the connection is lost. err is the read error
	// that ended the connection, nil on an orderly close.
	OnDown func(err error)

	// OnCaughtUp fires when the gateway signals that backlog replay for
	// a channel has reached the live edge.
	OnCaughtUp func(channelID string)
}

// StreamTransportPort is the persistent socket that delivers event
// frames. The sync engine never opens or manages the socket itself; it
// only consumes what the transport pushes into its sink.
type StreamTransportPort interface {
	// Run connects to the gateway and delivers frames until ctx is
	// cancelled, reconnecting with backoff on failures.
	Run(ctx context.Context) error

	// Subscribe tells the gateway which channels to deliver.
	// Safe to call again after a reconnect to re-establish the set.
	Subscribe(ctx context.Context, channelIDs []string) error

	// Close shuts the connection down and stops the read loop.
	Close() error
}
