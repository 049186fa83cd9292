package scheduler

import (
	"context"
	"sync"
	"time"
)

// Ticker invokes a body on a fixed cadence, re-arming itself only after
// the body's asynchronous work resolves. It is not a fixed-rate loop: a
// body that takes longer than the interval delays the next tick instead
// of overlapping it.
//
// The body receives a done func and must call it exactly once.
type Ticker struct {
	interval time.Duration
	body     func(done func())

	mu      sync.Mutex
	timer   *time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewTicker creates a ticker with the given interval.
func NewTicker(interval time.Duration, body func(done func())) *Ticker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Ticker{interval: interval, body: body}
}

// Start arms the first tick. Subsequent Start calls are no-ops until
// Stop is called. The ticker stops when ctx is canceled or Stop runs.
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return
	}
	t.started = true
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.arm()
}

// Stop cancels any pending tick. In-flight bodies finish but do not
// re-arm.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return
	}
	t.started = false
	t.cancel()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// arm schedules the next tick. Caller must hold t.mu.
func (t *Ticker) arm() {
	ctx := t.ctx
	t.timer = time.AfterFunc(t.interval, func() {
		if ctx.Err() != nil {
			return
		}
		t.body(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.started && ctx.Err() == nil {
				t.arm()
			}
		})
	})
}
