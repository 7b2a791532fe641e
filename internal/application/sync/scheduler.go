package sync

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/sentryview/sentryview/internal/domain/errors"
	domainSync "github.com/sentryview/sentryview/internal/domain/sync"

	"github.com/sentryview/sentryview/internal/application/ports"
	"github.com/sentryview/sentryview/internal/infrastructure/logging"
	"github.com/sentryview/sentryview/internal/infrastructure/tracing"
)

// flushTimeout bounds a single background write to the blob store.
const flushTimeout = 5 * time.Second

// scheduler coalesces bursts of accepted events into a single debounced
// write of the encoded state blob. Every acceptance re-arms one timer;
// only after the burst quiesces for the full interval does the write
// happen. The snapshot is taken at fire time, never when the timer is
// armed, so clears can never be undone by a stale pending write.
type scheduler struct {
	mu       sync.Mutex
	timer    *time.Timer
	stopped  bool
	interval time.Duration

	// ioMu orders blob I/O: a flush holds it from snapshot through Save,
	// and drop holds it for Delete, so a write already in flight when a
	// clear arrives always lands before the clear's delete.
	ioMu sync.Mutex

	blob     ports.BlobStorePort
	snapshot func() map[string]domainSync.Record
	logger   *logging.Logger
	tracer   *tracing.Tracer
}

func newScheduler(blob ports.BlobStorePort, snapshot func() map[string]domainSync.Record, interval time.Duration, logger *logging.Logger) *scheduler {
	return &scheduler{
		interval: interval,
		blob:     blob,
		snapshot: snapshot,
		logger:   logger,
		tracer:   tracing.Default(),
	}
}

// arm starts the debounce timer, or restarts its window if it is
// already pending.
func (f *scheduler) arm() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return
	}
	if f.timer == nil {
		f.timer = time.AfterFunc(f.interval, f.fire)
		return
	}
	f.timer.Reset(f.interval)
}

// fire runs in the timer goroutine when a debounce window expires.
// A failed write is logged and left for the next cycle; it never
// surfaces to the event path.
func (f *scheduler) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := f.flush(ctx, false); err != nil {
		logging.LogFlushFailed(ctx, f.logger, err)
	}
}

// flushNow cancels any pending timer and writes synchronously.
func (f *scheduler) flushNow(ctx context.Context) error {
	f.cancelPending()
	return f.flush(ctx, true)
}

// flush encodes a fresh snapshot and writes it to the blob store. The
// snapshot is taken under ioMu, after any concurrent drop has finished.
func (f *scheduler) flush(ctx context.Context, forced bool) error {
	f.ioMu.Lock()
	defer f.ioMu.Unlock()

	ctx, span := f.tracer.StartFlushSpan(ctx, forced)

	start := time.Now()
	records := f.snapshot()

	payload, err := encodeSnapshot(records)
	if err != nil {
		span.EndWithError(err)
		return err
	}

	if err := f.blob.Save(ctx, ports.SyncStateKey, payload); err != nil {
		span.EndWithError(err)
		return err
	}

	span.SetPayload(len(records), len(payload))
	span.End()
	logging.LogFlushCompleted(ctx, f.logger, len(records), len(payload), time.Since(start))
	return nil
}

// load reads and decodes the persisted blob. A missing blob returns
// (nil, nil); a decode failure returns the decode error so the caller
// can log it and start cold.
func (f *scheduler) load(ctx context.Context) (map[string]domainSync.Record, error) {
	payload, err := f.blob.Load(ctx, ports.SyncStateKey)
	if err != nil {
		if domainErrors.Is(err, domainErrors.ErrStateNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return decodeSnapshot(payload)
}

// drop cancels any pending write and deletes the persisted blob. A
// flush whose timer fired before the cancel first finishes its write
// under ioMu; the delete here then supersedes it.
func (f *scheduler) drop(ctx context.Context) error {
	f.cancelPending()

	f.ioMu.Lock()
	defer f.ioMu.Unlock()
	return f.blob.Delete(ctx, ports.SyncStateKey)
}

// cancelPending stops the debounce timer if one is armed.
func (f *scheduler) cancelPending() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
	}
}

// stop permanently disables the scheduler.
func (f *scheduler) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
