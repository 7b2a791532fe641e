// Package sync contains the per-channel delivery-state model and the pure
// duplicate-detection rules for the gateway event feed. It has no I/O and
// no locking; the application layer serializes access to it.
package sync

import "time"

// Record is the durable delivery state for one subscription channel.
// It is created lazily on the first event seen for the channel.
type Record struct {
	// ChannelID identifies the subscription channel.
	ChannelID string `json:"channel_id"`

	// LastEventID is the identifier of the most recently accepted event.
	// Empty until the first event is accepted.
	LastEventID string `json:"last_event_id,omitempty"`

	// LastEventTimestamp is the producer timestamp (unix millis) of the
	// most recently accepted event. Only used for tie-breaking on
	// channels whose backend emits no sequence numbers.
	LastEventTimestamp int64 `json:"last_event_ts"`

	// LastEventSequence is the sequence of the most recently accepted
	// sequence-bearing event. Advances only together with HighestSequence.
	LastEventSequence uint64 `json:"last_event_seq"`

	// HighestSequence is the highest sequence ever accepted for the
	// channel, the live-mode watermark. Non-decreasing.
	HighestSequence uint64 `json:"highest_seq"`

	// TotalReceived counts accepted events over the record's lifetime.
	// Duplicates are never counted.
	TotalReceived uint64 `json:"total_received"`

	// LastSyncTime is the wall-clock time of the last acceptance,
	// for staleness reporting.
	LastSyncTime time.Time `json:"last_sync_time"`
}

// NewRecord returns a fresh record for a channel with no events seen.
func NewRecord(channelID string) Record {
	return Record{ChannelID: channelID}
}

// Stale reports whether the channel has not accepted an event for at
// least the given duration. A record that never accepted anything is
// always stale.
func (r Record) Stale(now time.Time, maxAge time.Duration) bool {
	if r.LastSyncTime.IsZero() {
		return true
	}
	return now.Sub(r.LastSyncTime) >= maxAge
}
