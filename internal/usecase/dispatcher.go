package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/domain"
)

// ResultHandler receives the results of a finished trigger.
type ResultHandler func(corner domain.Corner, triggerID string, results []domain.ActionResult)

// Dispatcher runs a corner's actions in the background so sampling never
// waits on them. At most one batch per corner is in flight at a time.
type Dispatcher struct {
	executor domain.ActionExecutor
	logger   *zap.Logger
	onResult ResultHandler

	mu       sync.Mutex
	inflight map[domain.Corner]string
	closed   bool
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher around executor.
func NewDispatcher(executor domain.ActionExecutor, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		executor: executor,
		logger:   logger,
		inflight: make(map[domain.Corner]string),
	}
}

// OnResult registers a handler invoked after each batch completes.
func (d *Dispatcher) OnResult(h ResultHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onResult = h
}

// Dispatch starts corner's actions and returns the trigger id.
// It returns false without running anything if the corner already has a batch
// in flight or the dispatcher is closed.
//
// Actions run on a context detached from the caller: stopping the daemon does
// not kill actions that already started.
func (d *Dispatcher) Dispatch(corner domain.Corner, actions []domain.Action) (string, bool) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Debug("dispatcher closed, dropping trigger", zap.String("corner", corner.String()))
		return "", false
	}
	if running, busy := d.inflight[corner]; busy {
		d.mu.Unlock()
		d.logger.Warn("previous trigger still running, skipping",
			zap.String("corner", corner.String()),
			zap.String("running_trigger_id", running))
		return "", false
	}
	triggerID := uuid.NewString()
	if len(actions) == 0 {
		d.mu.Unlock()
		d.logger.Debug("no actions bound to corner", zap.String("corner", corner.String()))
		return triggerID, true
	}
	d.inflight[corner] = triggerID
	handler := d.onResult
	d.wg.Add(1)
	d.mu.Unlock()

	batch := make([]domain.Action, len(actions))
	copy(batch, actions)

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.inflight, corner)
			d.mu.Unlock()
		}()

		ctx := WithTriggerID(context.Background(), triggerID)
		results := d.executor.ExecuteAll(ctx, corner, batch)

		var failed int
		for _, r := range results {
			if !r.Success {
				failed++
			}
		}
		d.logger.Info("corner actions finished",
			zap.String("corner", corner.String()),
			zap.String("trigger_id", triggerID),
			zap.Int("actions", len(results)),
			zap.Int("failed", failed))

		if handler != nil {
			handler(corner, triggerID, results)
		}
	}()

	return triggerID, true
}

// InFlight reports whether corner has a batch running.
func (d *Dispatcher) InFlight(corner domain.Corner) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[corner]
	return ok
}

// Close stops accepting new batches. Batches already running are unaffected.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Closed reports whether Close was called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Wait blocks until all running batches finish or ctx is done.
// Call Close first so no batch can start while waiting.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
