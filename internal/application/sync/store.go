// Package sync implements the channel event synchronization engine: a
// concurrency-safe store of per-channel delivery state, the live/catch-up
// mode controller, and the debounced persistence of that state.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/sentryview/sentryview/internal/application/ports"
	domainSync "github.com/sentryview/sentryview/internal/domain/sync"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
	"github.com/sentryview/sentryview/internal/infrastructure/tracing"
)

// DefaultDebounceInterval is how long a burst of accepted events must
// quiesce before the state blob is written.
const DefaultDebounceInterval = 500 * time.Millisecond

// channelMode is the per-channel delivery regime. It is never persisted;
// a process restart rebuilds every channel as live.
type channelMode struct {
	catchUp bool
	seen    domainSync.SeenSet
}

// Store is the stateful aggregate for all channels' sync state. Every
// operation is funneled through one mutex guarding the whole channel
// map, so whole-map operations like ClearAll and AllRecords are atomic
// with respect to single-channel writes.
//
// Store implements ports.EventSinkPort.
type Store struct {
	mu      sync.Mutex
	records map[string]domainSync.Record
	modes   map[string]*channelMode

	flusher *scheduler
	logger  *logging.Logger
	now     func() time.Time
}

var _ ports.EventSinkPort = (*Store)(nil)

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithDebounceInterval overrides the persistence debounce interval.
func WithDebounceInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.flusher.interval = d
		}
	}
}

// WithLogger sets the logger used by the store and its flusher.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logger
		s.flusher.logger = logger
	}
}

// WithTracer sets the tracer used for flush spans.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(s *Store) {
		s.flusher.tracer = tracer
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a sync store that persists its state to blob.
// Call Load to pick up previously persisted state and Close to flush
// and release the flusher when done.
func NewStore(blob ports.BlobStorePort, opts ...Option) *Store {
	s := &Store{
		records: make(map[string]domainSync.Record),
		modes:   make(map[string]*channelMode),
		logger:  logging.Default(),
		now:     time.Now,
	}
	s.flusher = newScheduler(blob, s.AllRecords, DefaultDebounceInterval, s.logger)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the persisted state blob and seeds the channel map from it.
// A missing blob or a payload that fails to decode is treated as a cold
// start: the store begins empty and no error reaches the caller. Every
// loaded channel starts in live mode; catch-up membership is never
// persisted.
func (s *Store) Load(ctx context.Context) {
	records, err := s.flusher.load(ctx)
	if err != nil {
		s.logger.Warn("could not load persisted sync state, starting cold",
			"error", err.Error(),
		)
		return
	}
	if records == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.modes = make(map[string]*channelMode)

	s.logger.Info("sync state loaded",
		"channels", len(records),
	)
}

// RecordEvent is the sole write entry point for incoming events. It
// lazily creates the channel's record, runs the duplicate detection
// rules, and on acceptance schedules a persistence flush.
// Returns whether the event was new. Duplicate, stale, and malformed
// deliveries all return false without error; they are routine in a
// push-based feed.
func (s *Store) RecordEvent(channelID, eventID string, timestampMillis int64, sequence uint64) bool {
	if channelID == "" || eventID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[channelID]
	if !ok {
		rec = domainSync.NewRecord(channelID)
	}

	// Mode state is only ever created by EnableCatchUp. A rejected event
	// on an unknown channel must leave no state behind, so the lookup
	// here is read-only; absent means live.
	var catchUp bool
	var seen domainSync.SeenSet
	if m, ok := s.modes[channelID]; ok {
		catchUp = m.catchUp
		seen = m.seen
	}

	rec, accepted := domainSync.Evaluate(rec, catchUp, seen, eventID, timestampMillis, sequence, s.now())
	if !accepted {
		return false
	}

	s.records[channelID] = rec
	s.flusher.arm()
	return true
}

// mode returns the channel's mode state, creating it in live mode.
// Only the catch-up transitions call this; the event path never
// materializes mode state. Callers must hold s.mu.
func (s *Store) mode(channelID string) *channelMode {
	m, ok := s.modes[channelID]
	if !ok {
		m = &channelMode{seen: domainSync.NewSeenSet()}
		s.modes[channelID] = m
	}
	return m
}

// EnableCatchUp switches a channel to the out-of-order catch-up regime
// and starts a fresh seen-set for the episode. Idempotent in effect on
// the mode flag; calling it again restarts the episode. The subscription
// controller calls this after a reconnect, before backlog frames arrive.
func (s *Store) EnableCatchUp(channelID string) {
	if channelID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.mode(channelID)
	m.catchUp = true
	m.seen = domainSync.NewSeenSet()
}

// DisableCatchUp returns a channel to the live regime and drops the
// episode's seen-set; the watermark in the record is all live mode
// needs going forward. Idempotent.
func (s *Store) DisableCatchUp(channelID string) {
	if channelID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modes[channelID]
	if !ok {
		return
	}
	m.catchUp = false
	m.seen = domainSync.NewSeenSet()
}

// InCatchUp reports whether the channel is currently replaying backlog.
func (s *Store) InCatchUp(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modes[channelID]
	return ok && m.catchUp
}

// Progress returns the number of distinct sequences accepted so far in
// the channel's current catch-up episode. Zero outside an episode.
func (s *Store) Progress(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modes[channelID]
	if !ok || !m.catchUp {
		return 0
	}
	return m.seen.Len()
}

// Record returns the channel's record, if any.
func (s *Store) Record(channelID string) (domainSync.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[channelID]
	return rec, ok
}

// AllRecords returns a consistent snapshot of every channel's record.
func (s *Store) AllRecords() map[string]domainSync.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]domainSync.Record, len(s.records))
	for id, rec := range s.records {
		snapshot[id] = rec
	}
	return snapshot
}

// TotalAccepted returns the sum of accepted events across all channels.
func (s *Store) TotalAccepted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total uint64
	for _, rec := range s.records {
		total += rec.TotalReceived
	}
	return total
}

// ClearChannel removes one channel's record and mode state. A flush is
// scheduled so the durable blob catches up with the removal; because
// flushes always read the state at fire time, a write armed before the
// clear cannot resurrect the channel.
func (s *Store) ClearChannel(channelID string) {
	s.mu.Lock()
	_, existed := s.records[channelID]
	delete(s.records, channelID)
	delete(s.modes, channelID)
	s.mu.Unlock()

	if existed {
		s.flusher.arm()
	}
}

// ClearAll removes all channel state and the persisted blob.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.records = make(map[string]domainSync.Record)
	s.modes = make(map[string]*channelMode)
	s.mu.Unlock()

	if err := s.flusher.drop(ctx); err != nil {
		s.logger.Warn("could not remove persisted sync state",
			"error", err.Error(),
		)
	}
}

// ForceFlush persists the current state immediately and synchronously,
// bypassing the debounce delay. Intended for suspend/teardown points
// where blocking briefly on I/O is acceptable.
func (s *Store) ForceFlush(ctx context.Context) error {
	return s.flusher.flushNow(ctx)
}

// Close flushes outstanding state and stops the flusher. The store must
// not be used afterwards.
func (s *Store) Close(ctx context.Context) error {
	err := s.flusher.flushNow(ctx)
	s.flusher.stop()
	return err
}
