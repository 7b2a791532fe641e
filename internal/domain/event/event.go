// Package event defines the domain types for the gateway event feed.
// Events are pushed over a persistent socket, one logical channel per
// (area, event type) pair, and carry an optional gateway sequence number.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event represents a single notification delivered by the gateway.
type Event struct {
	// ID is the gateway-assigned event identifier.
	ID string `json:"event_id"`

	// Channel identifies the subscription channel the event belongs to.
	Channel string `json:"channel"`

	// Timestamp is the producer-side timestamp in unix milliseconds.
	Timestamp int64 `json:"ts"`

	// Sequence is the gateway sequence number for the channel.
	// Zero means the backend for this channel does not emit sequences.
	Sequence uint64 `json:"seq"`

	// Payload is the raw event body, opaque to the sync engine.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Time returns the producer timestamp as wall-clock time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Channel is a logical subscription scope: one monitored area combined
// with one event type (motion, person, doorbell, ...).
type Channel struct {
	Area string
	Kind string
}

// channelSeparator joins area and kind in the wire-level channel ID.
const channelSeparator = "/"

// ID returns the wire-level channel identifier, e.g. "front-door/motion".
func (c Channel) ID() string {
	return c.Area + channelSeparator + c.Kind
}

// ParseChannelID splits a wire-level channel identifier into its parts.
func ParseChannelID(id string) (Channel, error) {
	area, kind, ok := strings.Cut(id, channelSeparator)
	if !ok || area == "" || kind == "" {
		return Channel{}, fmt.Errorf("malformed channel id: %q", id)
	}
	return Channel{Area: area, Kind: kind}, nil
}

// Channels expands the cross product of areas and event kinds into the
// channel list a client subscribes to.
func Channels(areas, kinds []string) []Channel {
	channels := make([]Channel, 0, len(areas)*len(kinds))
	for _, area := range areas {
		for _, kind := range kinds {
			channels = append(channels, Channel{Area: area, Kind: kind})
		}
	}
	return channels
}
