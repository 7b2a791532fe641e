package sync

import "time"

// Evaluate decides whether an incoming event is new for its channel and,
// if so, how the channel's record must change. It is a pure decision
// function: the input record is passed and returned by value, and the
// only side effect on acceptance is inserting the sequence into seen
// when the channel is in catch-up mode.
//
// The rules, in order:
//
//  1. sequence == 0 means the backend emits no sequence numbers for this
//     channel; accept only on a strictly newer producer timestamp.
//  2. In catch-up mode the backlog may arrive out of order, so a full
//     set of sequences observed this episode decides novelty.
//  3. In live mode the feed is in order, so anything at or below the
//     watermark is a duplicate or stale straggler and is rejected.
//
// Whenever an accepted sequence exceeds the watermark, HighestSequence,
// LastEventSequence, LastEventID and LastEventTimestamp move together as
// one unit, so a later switch between modes starts from a coherent
// watermark.
func Evaluate(rec Record, catchUp bool, seen SeenSet, eventID string, timestamp int64, sequence uint64, now time.Time) (Record, bool) {
	switch {
	case sequence == 0:
		if timestamp <= rec.LastEventTimestamp {
			return rec, false
		}
		rec.LastEventTimestamp = timestamp
		rec.LastEventID = eventID

	case catchUp:
		if seen.Has(sequence) {
			return rec, false
		}
		seen.Add(sequence)
		if sequence > rec.HighestSequence {
			rec.advanceWatermark(eventID, timestamp, sequence)
		}

	default: // live mode, strict monotonic filter
		if sequence <= rec.HighestSequence {
			return rec, false
		}
		rec.advanceWatermark(eventID, timestamp, sequence)
	}

	rec.TotalReceived++
	rec.LastSyncTime = now
	return rec, true
}

// advanceWatermark updates the watermark fields as a single unit.
func (r *Record) advanceWatermark(eventID string, timestamp int64, sequence uint64) {
	r.HighestSequence = sequence
	r.LastEventSequence = sequence
	r.LastEventID = eventID
	r.LastEventTimestamp = timestamp
}
