// Package scheduler provides the in-process delay scheduler that parks
// suspended runs and resumes them when their delay elapses.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mehdry/flowline/internal/logging"
)

// ErrClosed is returned when scheduling on a stopped scheduler.
var ErrClosed = errors.New("scheduler is closed")

// Timers implements ports.DelayScheduler with one timer per suspended
// session. Scheduling under an existing key replaces the pending
// resumption, so a conversation never fires stale callbacks.
type Timers struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// Option configures the scheduler.
type Option func(*Timers)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Timers) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates an empty scheduler.
func New(opts ...Option) *Timers {
	t := &Timers{
		pending: make(map[string]*time.Timer),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Schedule registers fn to run after d, keyed by session ID. The callback
// runs on its own goroutine with a background context: the inbound request
// that created the suspension is long gone by the time the delay elapses.
func (t *Timers) Schedule(ctx context.Context, sessionID string, d time.Duration, fn func(context.Context)) error {
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}

	if prev, ok := t.pending[sessionID]; ok {
		if prev.Stop() {
			t.wg.Done()
		}
		t.logger.DebugContext(ctx, "replacing pending resumption", "session_id", sessionID)
	}

	t.wg.Add(1)
	t.pending[sessionID] = time.AfterFunc(d, func() {
		defer t.wg.Done()

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			return
		}
		delete(t.pending, sessionID)
		t.mu.Unlock()

		fn(context.Background())
	})
	return nil
}

// Cancel drops the pending resumption for the session, if any.
func (t *Timers) Cancel(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.pending[sessionID]
	if !ok {
		return false
	}
	delete(t.pending, sessionID)
	if timer.Stop() {
		t.wg.Done()
	}
	return true
}

// Len reports how many resumptions are parked.
func (t *Timers) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Close stops every pending timer and waits for in-flight callbacks to
// finish. The scheduler cannot be reused afterwards.
func (t *Timers) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	for id, timer := range t.pending {
		if timer.Stop() {
			t.wg.Done()
		}
		delete(t.pending, id)
	}
	t.mu.Unlock()

	t.wg.Wait()
}
