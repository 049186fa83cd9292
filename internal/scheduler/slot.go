package scheduler

import "sync/atomic"

// Launcher decides where a slot's run body executes: a goroutine, the
// host's next paint frame, or inline (tests).
type Launcher func(fn func())

// Go launches the body on a fresh goroutine.
func Go(fn func()) { go fn() }

// Inline runs the body synchronously. Intended for tests.
func Inline(fn func()) { fn() }

// Slot is a single-slot task queue.
//
// Request opens at most one execution at a time: calls arriving while a
// run is pending or still executing are dropped, so any burst of
// requests collapses into exactly one run. The run body receives a done
// func and must call it exactly once when all of its work, including
// asynchronous continuations, has finished; only then does the slot
// accept the next request.
//
// Used by: engine (one slot for lint cycles, one for render cycles)
type Slot struct {
	launch Launcher
	run    func(done func())
	busy   atomic.Bool
}

// NewSlot creates a slot that executes run via launch.
func NewSlot(launch Launcher, run func(done func())) *Slot {
	return &Slot{launch: launch, run: run}
}

// Request asks for one execution. It returns true if the request was
// accepted and false if it coalesced into an already-pending run.
// Safe to call from any goroutine and from inside the run body's own
// callbacks, though a request made before done is called is dropped.
func (s *Slot) Request() bool {
	if !s.busy.CompareAndSwap(false, true) {
		return false
	}

	s.launch(func() {
		var released atomic.Bool
		s.run(func() {
			// Tolerate a body that calls done more than once rather
			// than corrupting the flag.
			if released.CompareAndSwap(false, true) {
				s.busy.Store(false)
			}
		})
	})
	return true
}

// Busy reports whether a run is currently pending or executing.
func (s *Slot) Busy() bool {
	return s.busy.Load()
}
