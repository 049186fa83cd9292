// Package engine assembles the overlay orchestration loop.
//
// # Overview
//
// The engine is the one coordinating object the host constructs. It
// owns the registry, the cache, the lint pipeline, the render scheduler
// and the hotkey dispatcher, and exposes only target seeding: the
// continuous background refresh loop has no external handle.
//
// Control flow: document events and the fallback ticker feed Update →
// Update requests the lint slot and the render slot → a completed lint
// cycle swaps the result snapshot and requests another render → the
// render pass converts the snapshot into boxes and hands them to the
// host's presentation sinks. The hotkey dispatcher reads the last
// rendered box independently.
//
// No error here is fatal: a failed cycle yields no results and the loop
// keeps running; the next tick retries naturally.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/billie-coop/redpen/internal/cache"
	"github.com/billie-coop/redpen/internal/events"
	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/hotkey"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/pipeline"
	"github.com/billie-coop/redpen/internal/registry"
	"github.com/billie-coop/redpen/internal/render"
	"github.com/billie-coop/redpen/internal/scheduler"
)

// DefaultInterval is the fallback update cadence. The ticker catches
// changes no document event reports, such as programmatic mutation
// without a change event.
const DefaultInterval = 100 * time.Millisecond

// Options configures an Engine. Frames and Compute are required; every
// other collaborator is optional.
type Options struct {
	// Scope is the analysis context (typically the host domain). It
	// participates in every cache key.
	Scope string

	// Interval is the fallback update cadence. Zero means
	// DefaultInterval.
	Interval time.Duration

	// CacheCapacity and CacheTTL tune the memo in front of the
	// provider. Zero values use the cache package defaults.
	CacheCapacity int
	CacheTTL      time.Duration

	// MaxTextLen bounds per-target analysis size in runes. Zero means
	// pipeline.DefaultMaxTextLen.
	MaxTextLen int

	Frames   host.FrameScheduler
	Keys     host.KeySource
	Compute  render.BoxComputer
	Renderer render.Renderer
	Popup    render.Popup
	Actions  host.Actions

	// Broker receives engine events. Created internally when nil.
	Broker *events.Broker
}

// Engine is the overlay orchestrator.
type Engine struct {
	reg      *registry.Registry
	cache    *cache.Cache
	pipe     *pipeline.Pipeline
	renders  *render.Scheduler
	keys     *hotkey.Dispatcher
	ticker   *scheduler.Ticker
	lintSlot *scheduler.Slot
	broker   *events.Broker
	actions  host.Actions

	mu        sync.Mutex
	runCtx    context.Context
	started   bool
	cycleDone []func()
}

// New creates an engine over doc, fetching findings from provider.
func New(doc host.Document, provider lint.Provider, opts Options) *Engine {
	e := &Engine{
		actions: opts.Actions,
		broker:  opts.Broker,
		runCtx:  context.Background(),
	}
	if e.broker == nil {
		e.broker = events.NewBroker()
	}

	var cacheOpts []cache.Option
	if opts.CacheCapacity > 0 {
		cacheOpts = append(cacheOpts, cache.WithCapacity(opts.CacheCapacity))
	}
	if opts.CacheTTL > 0 {
		cacheOpts = append(cacheOpts, cache.WithTTL(opts.CacheTTL))
	}
	e.cache = cache.New(provider, cacheOpts...)

	e.reg = registry.New(doc, e.Update)

	var pipeOpts []pipeline.Option
	if opts.MaxTextLen > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithMaxTextLen(opts.MaxTextLen))
	}
	e.pipe = pipeline.New(e.reg, e.cache, opts.Scope, pipeOpts...)

	e.renders = render.NewScheduler(render.Config{
		Frames:   opts.Frames,
		Source:   e.pipe.Snapshot,
		Compute:  opts.Compute,
		Renderer: opts.Renderer,
		Popup:    opts.Popup,
		Ignorer:  e.ignoreFinding,
		OnDone: func(boxCount int) {
			e.broker.Publish(events.Event{
				Type:    events.RenderCompleted,
				Payload: events.RenderPayload{Boxes: boxCount},
			})
		},
	})

	e.lintSlot = scheduler.NewSlot(scheduler.Go, e.runLintCycle)

	if opts.Keys != nil {
		e.keys = hotkey.New(hotkey.Config{
			Keys:    opts.Keys,
			Actions: opts.Actions,
			LastBox: e.renders.LastBox,
			OnApplied: func(box render.Box, replacement string) {
				e.broker.Publish(events.Event{
					Type:    events.SuggestionApplied,
					Payload: events.SuggestionPayload{Rule: box.Rule, Replacement: replacement},
				})
				e.Update()
			},
			OnIgnored: func(render.Box) {
				// ignoreFinding already published and updated.
			},
		})
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	e.ticker = scheduler.NewTicker(interval, func(done func()) {
		// Re-arm only once the cycle this tick triggers (or joins)
		// resolves: a slow cycle pushes the next tick out rather than
		// stacking dropped requests behind it.
		e.afterCycle(done)
		e.Update()
	})

	return e
}

// Start arms the background refresh loop and, when the host supports
// it, the global hotkey. A hotkey fetch failure disables the hotkey for
// the session but does not fail Start.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.runCtx = ctx
	e.mu.Unlock()

	if e.keys != nil {
		_ = e.keys.Start(ctx)
	}
	e.ticker.Start(ctx)
	e.Update()
}

// Stop disarms the refresh loop and the hotkey. In-flight cycles finish
// and their results land, but nothing new is scheduled.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.started = false
	e.mu.Unlock()

	e.ticker.Stop()
	if e.keys != nil {
		e.keys.Stop()
	}
}

// AddTarget registers an editable surface for observation. Idempotent.
func (e *Engine) AddTarget(s host.Surface) {
	e.reg.Add(s)
	e.broker.Publish(events.Event{Type: events.TargetAdded})
}

// RemoveTarget unregisters a surface. Calling it for a surface that was
// never added returns registry.ErrNotRegistered — that is caller
// misuse, not a runtime condition.
func (e *Engine) RemoveTarget(s host.Surface) error {
	if err := e.reg.Remove(s); err != nil {
		return err
	}
	e.broker.Publish(events.Event{Type: events.TargetRemoved})
	return nil
}

// Update requests one lint refresh and one render refresh. Safe to call
// arbitrarily often from any event handler; bursts coalesce into single
// cycles through the slots' single-flight discipline.
func (e *Engine) Update() {
	e.lintSlot.Request()
	e.renders.Request()
}

// Events returns the engine's event broker.
func (e *Engine) Events() *events.Broker {
	return e.broker
}

// LastBoxes returns the most recently rendered box list.
func (e *Engine) LastBoxes() []render.Box {
	return e.renders.LastBoxes()
}

// AddToDictionary forwards words to the host dictionary and invalidates
// every cached result, since the change affects findings for any text.
func (e *Engine) AddToDictionary(words []string) {
	if e.actions.AddToDictionary != nil {
		e.actions.AddToDictionary(words)
	}
	e.clearCache(events.DictionaryUpdated)
}

// OpenOptions opens the host's settings surface, when available.
func (e *Engine) OpenOptions() {
	if e.actions.OpenOptions != nil {
		e.actions.OpenOptions()
	}
}

// runLintCycle is the lint slot's body: one full pipeline pass, then a
// render request so the new snapshot reaches the screen. The deferred
// pair runs in a fixed order — the slot reopens first, then the cycle
// waiters fire — so a waiter registered while this cycle still occupied
// the slot is never stranded.
func (e *Engine) runLintCycle(done func()) {
	defer e.flushCycleWaiters()
	defer done()

	sum := e.pipe.Run(e.ctx())
	e.broker.Publish(events.Event{
		Type:    events.LintCycleCompleted,
		Payload: events.LintCyclePayload{Targets: sum.Targets, Findings: sum.Findings},
	})
	e.renders.Request()
}

// afterCycle registers fn to run once after the next lint cycle
// resolves. A cycle already in flight at registration time counts.
func (e *Engine) afterCycle(fn func()) {
	e.mu.Lock()
	e.cycleDone = append(e.cycleDone, fn)
	e.mu.Unlock()
}

// flushCycleWaiters runs and clears the callbacks registered through
// afterCycle.
func (e *Engine) flushCycleWaiters() {
	e.mu.Lock()
	waiters := e.cycleDone
	e.cycleDone = nil
	e.mu.Unlock()
	for _, fn := range waiters {
		fn()
	}
}

// ignoreFinding handles a box's ignore capability: tell the host, then
// clear the cache — an ignored finding invalidates every cached result
// regardless of key.
func (e *Engine) ignoreFinding(contextKey string) {
	if e.actions.IgnoreFinding != nil {
		// Collaborator failures follow the transient taxonomy: the
		// ignore simply does not stick and the finding reappears.
		_ = e.actions.IgnoreFinding(e.ctx(), contextKey)
	}
	e.broker.Publish(events.Event{Type: events.FindingIgnored})
	e.clearCache(events.CacheCleared)
}

// clearCache empties the memo, publishes why, and schedules a refresh.
func (e *Engine) clearCache(reason events.Type) {
	e.cache.Clear()
	if reason != events.CacheCleared {
		e.broker.Publish(events.Event{Type: reason})
	}
	e.broker.Publish(events.Event{Type: events.CacheCleared})
	e.Update()
}

// ctx returns the lifecycle context set by Start.
func (e *Engine) ctx() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runCtx
}
