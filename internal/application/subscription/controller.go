// Package subscription coordinates the channel set between the stream
// transport and the sync engine: it declares subscriptions after every
// connect, flips channels into catch-up mode around reconnects, and
// forwards accepted events to the rest of the application.
package subscription

import (
	"context"
	"sync"

	"github.com/sentryview/sentryview/internal/application/ports"
	appSync "github.com/sentryview/sentryview/internal/application/sync"
	"github.com/sentryview/sentryview/internal/domain/event"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
)

// Listener receives every event the sync engine accepted as new.
type Listener func(event.Event)

// Controller owns the channel list and the live/catch-up transitions.
// It sits between the transport and the sync store: the transport's
// sink is the controller, and only accepted events are forwarded.
type Controller struct {
	store    *appSync.Store
	channels []event.Channel
	logger   *logging.Logger

	mu        sync.Mutex
	transport ports.StreamTransportPort
	listeners []Listener
}

var _ ports.EventSinkPort = (*Controller)(nil)

// NewController creates a controller for the given channel set.
func NewController(store *appSync.Store, channels []event.Channel, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		store:    store,
		channels: channels,
		logger:   logger,
	}
}

// SetTransport attaches the transport used to (re)declare subscriptions.
// Must be called before the transport starts running.
func (c *Controller) SetTransport(t ports.StreamTransportPort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transport = t
}

// AddListener registers a sink for accepted events.
func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// ChannelIDs returns the wire-level IDs of the subscribed channels.
func (c *Controller) ChannelIDs() []string {
	c.mu.Lock()
	channels := c.channels
	c.mu.Unlock()

	ids := make([]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID()
	}
	return ids
}

// UpdateChannels replaces the subscription set and re-declares it on the
// transport when one is connected. Sync state for channels that left the
// set is kept; it simply stops receiving events.
func (c *Controller) UpdateChannels(ctx context.Context, channels []event.Channel) error {
	c.mu.Lock()
	c.channels = append([]event.Channel(nil), channels...)
	transport := c.transport
	c.mu.Unlock()

	c.logger.Info("subscription set updated", "channels", len(channels))

	if transport == nil {
		return nil
	}
	return transport.Subscribe(ctx, c.ChannelIDs())
}

// Hooks returns the lifecycle callbacks to hand to the transport.
func (c *Controller) Hooks() ports.TransportHooks {
	return ports.TransportHooks{
		OnUp:       c.handleUp,
		OnDown:     c.handleDown,
		OnCaughtUp: c.handleCaughtUp,
	}
}

// handleUp runs after every connect, before any frame is delivered. On a
// reconnect every channel is switched to catch-up first, so backlog
// frames (including ones already delivered before the disconnect) are
// evaluated under out-of-order duplicate rules instead of being dropped
// by the live-mode watermark.
func (c *Controller) handleUp(ctx context.Context, resumed bool) {
	if resumed {
		for _, id := range c.ChannelIDs() {
			c.store.EnableCatchUp(id)
			logging.LogReplayStarted(ctx, c.logger, id)
		}
	}

	c.mu.Lock()
	transport := c.transport
	c.mu.Unlock()
	if transport == nil {
		return
	}

	if err := transport.Subscribe(ctx, c.ChannelIDs()); err != nil {
		c.logger.Warn("could not declare subscriptions",
			"channels", len(c.channels),
			"error", err.Error(),
		)
	}
}

// handleDown runs when the connection drops. Mode state is left alone:
// the next handleUp decides what replays.
func (c *Controller) handleDown(err error) {
	if err != nil {
		c.logger.Debug("transport down", "error", err.Error())
	}
}

// handleCaughtUp runs when the gateway confirms a channel's backlog has
// reached the live edge.
func (c *Controller) handleCaughtUp(channelID string) {
	accepted := c.store.Progress(channelID)
	c.store.DisableCatchUp(channelID)
	logging.LogReplayFinished(context.Background(), c.logger, channelID, accepted)
}

// RecordEvent implements the transport sink. The event reaches the
// listeners only when the sync engine accepted it as new.
func (c *Controller) RecordEvent(channelID, eventID string, timestampMillis int64, sequence uint64) bool {
	accepted := c.store.RecordEvent(channelID, eventID, timestampMillis, sequence)
	if !accepted {
		return false
	}

	evt := event.Event{
		ID:        eventID,
		Channel:   channelID,
		Timestamp: timestampMillis,
		Sequence:  sequence,
	}

	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(evt)
	}
	return true
}
