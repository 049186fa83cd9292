// Package hotkey implements the global suggestion hotkey.
//
// The dispatcher is a two-state machine: idle (no capture installed)
// and armed (one persistent global key interceptor, installed ahead of
// the host's own handlers). It arms once at startup, after fetching the
// configured hotkey from the host; if the host exposes no hotkey it
// stays idle for the session and every key passes through.
//
// On a match it acts on the most recently rendered box — deliberately
// the trailing one, not the one nearest the caret. The box's own
// embedded finding is the single source of truth for what gets applied;
// the dispatcher never indexes the lint-result list separately, so it
// cannot disagree with what is on screen even when lint and render
// cycles are momentarily out of step.
package hotkey

import (
	"context"
	"strings"

	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/render"
)

// Config wires a Dispatcher's collaborators.
type Config struct {
	Keys    host.KeySource
	Actions host.Actions

	// LastBox yields the trailing box of the most recent render.
	LastBox func() (render.Box, bool)

	// OnApplied runs after a suggestion is written into the target.
	// Optional.
	OnApplied func(box render.Box, replacement string)

	// OnIgnored runs after a box's ignore capability fires. Optional.
	OnIgnored func(box render.Box)
}

// Dispatcher owns the global key interceptor.
type Dispatcher struct {
	cfg    Config
	hotkey host.Hotkey
	detach func()
}

// New creates an idle dispatcher.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Start fetches the hotkey and installs the interceptor. When the host
// exposes no hotkey callback, or the fetch fails, the dispatcher stays
// idle and Start reports the failure without side effects; the engine
// treats that as a disabled hotkey, not a fatal condition.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.detach != nil {
		return nil
	}
	if d.cfg.Actions.Hotkey == nil {
		return nil
	}

	hk, err := d.cfg.Actions.Hotkey(ctx)
	if err != nil {
		return err
	}

	d.hotkey = hk
	d.detach = d.cfg.Keys.Intercept(d.handle)
	return nil
}

// Stop uninstalls the interceptor, returning the dispatcher to idle.
func (d *Dispatcher) Stop() {
	if d.detach != nil {
		d.detach()
		d.detach = nil
	}
}

// Armed reports whether the interceptor is installed.
func (d *Dispatcher) Armed() bool {
	return d.detach != nil
}

// handle is the capturing key handler. It returns true to consume the
// event (suppress default handling, stop propagation); any non-matching
// key passes through unaffected.
func (d *Dispatcher) handle(ev host.KeyEvent) bool {
	if !Matches(d.hotkey, ev) {
		return false
	}

	box, ok := d.cfg.LastBox()
	if !ok {
		// Nothing rendered yet: consume the hotkey but do nothing.
		return true
	}

	if len(box.Finding.Suggestions) > 0 {
		d.apply(box)
	} else if box.Ignore != nil {
		box.Ignore()
		if d.cfg.OnIgnored != nil {
			d.cfg.OnIgnored(box)
		}
	}
	return true
}

// apply writes the finding's first suggestion into the target, when the
// target supports editing.
func (d *Dispatcher) apply(box render.Box) {
	ed, ok := box.Target.(host.Editor)
	if !ok {
		return
	}

	replacement := box.Finding.Suggestions[0]
	if err := ed.Replace(box.Finding.Span.Start, box.Finding.Span.End, replacement); err != nil {
		// The surface may have mutated since the box was computed; the
		// next cycle recomputes against current text.
		return
	}
	if d.cfg.OnApplied != nil {
		d.cfg.OnApplied(box, replacement)
	}
}

// Matches reports whether the event satisfies the hotkey: the key name
// compares case-insensitively and each of ctrl/alt/shift must match
// exactly — a required-but-absent modifier mismatches, and so does an
// absent-but-present one.
func Matches(hk host.Hotkey, ev host.KeyEvent) bool {
	return strings.EqualFold(hk.Key, ev.Key) &&
		hk.Ctrl == ev.Ctrl &&
		hk.Alt == ev.Alt &&
		hk.Shift == ev.Shift
}
