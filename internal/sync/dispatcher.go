package sync

import (
	"context"
	"sync"
	"time"

	"github.com/recipeai/core/internal/connectivity"
	"github.com/recipeai/core/internal/logging"
	"github.com/recipeai/core/internal/uuid"
)

// PassRunner executes one sync pass. Implemented by Worker; tests
// substitute fakes.
type PassRunner interface {
	RunPass(ctx context.Context) (PassResult, error)
}

// DispatcherConfig holds scheduling knobs.
type DispatcherConfig struct {
	// OfflinePollInterval is how often connectivity is re-checked while
	// a requested pass is parked offline.
	OfflinePollInterval time.Duration

	// BackoffBase and BackoffCap bound the exponential retry delay
	// after a pass reports PassRetryNeeded.
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// DefaultDispatcherConfig returns the production scheduling defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		OfflinePollInterval: time.Minute,
		BackoffBase:         time.Minute,
		BackoffCap:          time.Hour,
	}
}

// Dispatcher owns the single named background sync task. RequestSync is
// idempotent and non-blocking: a request while another is still queued
// replaces it, and at most one pass is ever in flight. Completion is
// observed only through the store's sync flags.
type Dispatcher struct {
	runner PassRunner
	probe  connectivity.Probe
	cfg    DispatcherConfig

	mu        sync.Mutex
	pending   bool
	pendingID string

	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewDispatcher creates and starts a dispatcher.
func NewDispatcher(runner PassRunner, probe connectivity.Probe, cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		runner: runner,
		probe:  probe,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// RequestSync schedules a sync pass and returns immediately. A still
// queued, not-yet-started request is replaced rather than stacked; a
// pass already executing runs to completion and the new request is
// picked up right after it.
func (d *Dispatcher) RequestSync() {
	d.mu.Lock()
	replaced := d.pending
	d.pending = true
	d.pendingID = uuid.New()
	id := d.pendingID
	d.mu.Unlock()

	if replaced {
		logging.Debug("queued sync request replaced", map[string]any{"pass_id": id})
	} else {
		logging.Debug("sync requested", map[string]any{"pass_id": id})
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops the dispatcher. A pass already executing finishes; queued
// requests are dropped.
func (d *Dispatcher) Close() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stop:
			return
		case <-d.wake:
		}

		for {
			d.mu.Lock()
			if !d.pending {
				d.mu.Unlock()
				break
			}
			d.pending = false
			passID := d.pendingID
			d.mu.Unlock()

			if !d.execute(passID) {
				return
			}
		}
	}
}

// execute runs one requested pass to resolution: it waits for
// connectivity, runs the pass, and retries with backoff while the pass
// reports PassRetryNeeded. It bails out early when a newer request has
// superseded this one or the dispatcher is closing. Returns false only
// on shutdown.
func (d *Dispatcher) execute(passID string) bool {
	log := logging.With("sync_dispatcher").With("pass_id", passID)
	attempt := 0

	for {
		for !d.probe.Online() {
			log.Debug("offline, sync deferred")
			if !d.sleep(d.cfg.OfflinePollInterval) {
				return false
			}
			if d.superseded() {
				return true
			}
		}

		result, err := d.runner.RunPass(context.Background())
		if err != nil {
			// Storage failure: fatal to this pass, not retried here.
			log.Error("sync pass aborted", "error", err)
			return true
		}
		if result == PassSuccess {
			return true
		}

		attempt++
		delay := backoffDelay(attempt, d.cfg.BackoffBase, d.cfg.BackoffCap)
		log.Info("sync pass will retry", "attempt", attempt, "delay", delay)
		if !d.sleep(delay) {
			return false
		}
		if d.superseded() {
			// The retry collapses into the newer request.
			return true
		}
	}
}

// superseded reports whether a fresh request arrived; the caller's
// retry is then abandoned in favor of the queued one.
func (d *Dispatcher) superseded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// sleep waits for the duration unless the dispatcher is closing.
func (d *Dispatcher) sleep(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-d.stop:
		return false
	case <-timer.C:
		return true
	}
}

// backoffDelay doubles per attempt from base, capped at limit.
func backoffDelay(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base << uint(attempt-1)
	if delay > limit || delay < base {
		delay = limit
	}
	return delay
}
