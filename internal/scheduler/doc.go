// Package scheduler provides the two scheduling primitives the engine
// is built on.
//
// # Overview
//
// The engine must translate a flood of document events (keystrokes,
// mutations, scrolls, timer ticks) into at most one pending lint cycle
// and at most one pending render cycle. Two small primitives cover
// this:
//
//   - Slot: a single-slot task queue. Requests arriving while a run is
//     pending or executing are dropped; each accepted burst executes
//     exactly once. The run body signals completion itself, so a slot
//     stays closed across asynchronous continuations, not just the
//     synchronous prefix.
//   - Ticker: a self-rescheduling periodic task. The next invocation is
//     armed only after the current body resolves, so a slow cycle
//     extends the period instead of overlapping the next tick.
//
// # Usage in the engine
//
// The update path owns one Slot per cycle type:
//
//	lintSlot := scheduler.NewSlot(scheduler.Go, runLintCycle)
//	renderSlot := scheduler.NewSlot(frames.RequestFrame, runRenderCycle)
//
//	func update() {
//		lintSlot.Request()
//		renderSlot.Request()
//	}
//
// A Ticker calls update every 100ms as a fallback for changes no
// document event reports (programmatic mutation without a change
// event).
package scheduler
