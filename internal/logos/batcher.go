package logos

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

const (
	defaultBatchWindow   = 100 * time.Millisecond
	defaultRetryCooldown = 30 * time.Second
)

// attempt tracks the process-wide load state for one logo ID
type attempt struct {
	state   domain.LoadState
	retryAt time.Time     // resolved attempts may be re-queued after this instant
	done    chan struct{} // closed when the owning flush completes (pending only)
	err     *error        // owning window's error slot (pending only)
}

// batchWindow collects the IDs requested within one debounce interval
type batchWindow struct {
	ids  map[int64]struct{}
	done chan struct{}
	err  error
}

// Batcher coalesces near-simultaneous by-id requests into one catalog call
// per debounce window. Many consumers mounting in the same rendering pass
// each need exactly one record; fetching them individually would cost one
// round trip apiece.
//
// The pending set and timer are owned fields, so independent Batcher
// instances (and tests) never interfere.
type Batcher struct {
	client   domain.CatalogClient
	cache    *Cache
	logger   *slog.Logger
	window   time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	gen      uint64
	win      *batchWindow
	timer    *time.Timer
	attempts map[int64]attempt
}

// NewBatcher creates a batch coordinator. Zero window or cooldown values
// select the defaults (100ms window, 30s not-found retry cooldown).
func NewBatcher(client domain.CatalogClient, cache *Cache, window, cooldown time.Duration, logger *slog.Logger) *Batcher {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = defaultBatchWindow
	}
	if cooldown <= 0 {
		cooldown = defaultRetryCooldown
	}
	return &Batcher{
		client:   client,
		cache:    cache,
		logger:   logger,
		window:   window,
		cooldown: cooldown,
		now:      time.Now,
		attempts: make(map[int64]attempt),
	}
}

// EnsureLoaded resolves once the logo for id is in the cache, or once its
// batch has failed. A cache hit returns immediately with no network
// activity. All IDs requested within one window produce exactly one catalog
// call containing their deduplicated union.
func (b *Batcher) EnsureLoaded(ctx context.Context, id int64) error {
	b.mu.Lock()

	if _, ok := b.cache.Get(id); ok {
		b.mu.Unlock()
		return nil
	}

	a, attempted := b.attempts[id]
	if attempted {
		switch a.state {
		case domain.StatePending:
			// Already queued or in flight; share that batch's outcome
			done, errSlot := a.done, a.err
			b.mu.Unlock()
			return b.wait(ctx, done, errSlot)
		case domain.StateResolved:
			if b.now().Before(a.retryAt) {
				// Resolved but no longer cached (never found, or removed
				// since): stay absent inside the cooldown
				b.mu.Unlock()
				return nil
			}
			// Cooldown elapsed; fall through and re-queue
		case domain.StateFailed:
			// Retryable; fall through and re-queue
		}
	}

	win := b.enqueueLocked(id)
	done, errSlot := win.done, &win.err
	b.mu.Unlock()

	return b.wait(ctx, done, errSlot)
}

// enqueueLocked adds id to the current window, opening a new one if no
// timer is running. An existing timer is never reset: the goal is one flush
// per window, not an ever-receding window. Caller holds b.mu.
func (b *Batcher) enqueueLocked(id int64) *batchWindow {
	if b.win == nil {
		win := &batchWindow{
			ids:  make(map[int64]struct{}),
			done: make(chan struct{}),
		}
		b.win = win
		b.timer = time.AfterFunc(b.window, b.flush)
	}

	b.win.ids[id] = struct{}{}
	b.attempts[id] = attempt{
		state: domain.StatePending,
		done:  b.win.done,
		err:   &b.win.err,
	}
	return b.win
}

// wait blocks until the batch completes or ctx is cancelled
func (b *Batcher) wait(ctx context.Context, done <-chan struct{}, errSlot *error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return *errSlot
	}
}

// flush atomically drains the whole pending window and issues one batched
// lookup for that set. IDs requested after the drain has started land in a
// fresh window with its own timer. Generations captured before the lookup
// fence the completion: a Reset issued while the call is on the wire makes
// every write from this flush a no-op.
func (b *Batcher) flush() {
	b.mu.Lock()
	win := b.win
	gen := b.gen
	cacheGen := b.cache.Generation()
	b.win = nil
	b.timer = nil
	b.mu.Unlock()

	if win == nil || len(win.ids) == 0 {
		return
	}

	ids := make([]int64, 0, len(win.ids))
	for id := range win.ids {
		ids = append(ids, id)
	}

	logos, err := b.client.GetByIDs(context.Background(), ids)
	if err != nil {
		b.logger.Warn("batched logo lookup failed", "error", err, "count", len(ids))
		b.mu.Lock()
		if b.gen == gen {
			// Clear the attempted mark so every ID in the failed batch is
			// eligible to be re-queued on a future request
			for id := range win.ids {
				b.attempts[id] = attempt{state: domain.StateFailed}
			}
			win.err = err
		}
		b.mu.Unlock()
		close(win.done)
		return
	}

	if !b.cache.UpsertManyAt(cacheGen, logos) {
		// The session that asked for these ids is gone
		b.logger.Debug("dropped stale logo batch", "count", len(logos))
		close(win.done)
		return
	}

	b.mu.Lock()
	if b.gen == gen {
		// IDs the server did not return stay absent. Every ID in the batch,
		// returned or not, becomes eligible for one re-fetch after the
		// cooldown, so an entry removed later is not suppressed forever.
		retryAt := b.now().Add(b.cooldown)
		for id := range win.ids {
			b.attempts[id] = attempt{state: domain.StateResolved, retryAt: retryAt}
		}
	}
	b.mu.Unlock()

	b.logger.Debug("flushed logo batch", "requested", len(ids), "returned", len(logos))
	close(win.done)
}

// State returns the load state for id
func (b *Batcher) State(id int64) domain.LoadState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.cache.Get(id); ok {
		return domain.StateResolved
	}
	return b.attempts[id].state
}

// Reset drops all pending and attempted state and starts a new generation
// (session teardown). A window whose timer has not fired is abandoned; its
// waiters resolve with no error and observe an absent entry. A flush already
// on the wire discards its results when it completes.
func (b *Batcher) Reset() {
	b.mu.Lock()
	b.gen++
	win := b.win
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.win = nil
	b.attempts = make(map[int64]attempt)
	b.mu.Unlock()

	if win != nil {
		close(win.done)
	}
}
