// Package registry tracks the live set of observed editable surfaces.
//
// # Overview
//
// The registry owns everything attached to a surface: interactive event
// listeners, the mutation observer, and reference-counted scroll hooks
// on every scrollable ancestor up to the document's root scroller.
// Attachment and detachment are symmetric by construction — each
// surface's binding records exactly the detach funcs created for it, so
// removal can never leak a listener.
//
// Scroll hooks are shared: two surfaces inside the same scrollable
// container install one hook between them. The root scroller is hooked
// at most once globally no matter how many surfaces exist.
//
// Used by: engine (Add/Remove), pipeline (Visible, self-heal Remove)
package registry

import (
	"errors"
	"sync"

	"github.com/billie-coop/redpen/internal/host"
)

// ErrNotRegistered is returned by Remove when the surface was never
// added. This is a caller invariant violation, not a runtime condition
// the registry recovers from.
var ErrNotRegistered = errors.New("registry: surface not registered")

// binding records everything the registry attached for one surface.
type binding struct {
	detach    []func()
	ancestors []host.Container
}

// scrollHook is one shared scroll listener on a container.
type scrollHook struct {
	refs   int
	detach func()
}

// Registry is the ownership table for observed surfaces.
type Registry struct {
	doc      host.Document
	onUpdate func()

	mu       sync.Mutex
	bindings map[host.Surface]*binding
	order    []host.Surface
	hooks    map[host.Container]*scrollHook
}

// New creates a registry. onUpdate is invoked whenever the observed set
// changes or any attached listener fires; the engine points it at its
// update entry.
func New(doc host.Document, onUpdate func()) *Registry {
	if onUpdate == nil {
		onUpdate = func() {}
	}
	return &Registry{
		doc:      doc,
		onUpdate: onUpdate,
		bindings: make(map[host.Surface]*binding),
		hooks:    make(map[host.Container]*scrollHook),
	}
}

// Add inserts a surface and attaches its listeners. Adding a surface
// that is already present is a no-op.
func (r *Registry) Add(s host.Surface) {
	r.mu.Lock()
	if _, ok := r.bindings[s]; ok {
		r.mu.Unlock()
		return
	}

	b := &binding{}
	for _, kind := range host.InteractiveEvents {
		b.detach = append(b.detach, s.Listen(kind, r.onUpdate))
	}
	b.detach = append(b.detach, s.ObserveMutations(r.onUpdate))

	for _, c := range scrollAncestors(s, r.doc) {
		r.retainLocked(c)
		b.ancestors = append(b.ancestors, c)
	}

	r.bindings[s] = b
	r.order = append(r.order, s)
	r.mu.Unlock()

	r.onUpdate()
}

// Remove detaches a surface's listeners and drops it from the set.
// Returns ErrNotRegistered if the surface was never added.
func (r *Registry) Remove(s host.Surface) error {
	r.mu.Lock()
	b, ok := r.bindings[s]
	if !ok {
		r.mu.Unlock()
		return ErrNotRegistered
	}

	for _, detach := range b.detach {
		detach()
	}
	for _, c := range b.ancestors {
		r.releaseLocked(c)
	}

	delete(r.bindings, s)
	for i, cur := range r.order {
		if cur == s {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.onUpdate()
	return nil
}

// Has reports whether the surface is currently registered.
func (r *Registry) Has(s host.Surface) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[s]
	return ok
}

// Len returns the number of registered surfaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// Visible returns the registered surfaces currently visible in the
// viewport, in registration order. A surface with zero size or whose
// bounds fall entirely outside the viewport is excluded. The returned
// slice is a snapshot; later registry mutations do not affect it.
func (r *Registry) Visible() []host.Surface {
	r.mu.Lock()
	targets := make([]host.Surface, len(r.order))
	copy(targets, r.order)
	r.mu.Unlock()

	viewport := r.doc.Viewport()
	visible := make([]host.Surface, 0, len(targets))
	for _, s := range targets {
		if s.Bounds().Intersects(viewport) {
			visible = append(visible, s)
		}
	}
	return visible
}

// HookCount returns the number of distinct containers carrying a scroll
// hook. Exposed for tests.
func (r *Registry) HookCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// retainLocked bumps the hook refcount for c, installing the scroll
// listener on first use. Caller must hold r.mu.
func (r *Registry) retainLocked(c host.Container) {
	if h, ok := r.hooks[c]; ok {
		h.refs++
		return
	}
	r.hooks[c] = &scrollHook{
		refs:   1,
		detach: c.OnScroll(r.onUpdate),
	}
}

// releaseLocked drops one reference, removing the listener when the
// last surface using the container goes away. Caller must hold r.mu.
func (r *Registry) releaseLocked(c host.Container) {
	h, ok := r.hooks[c]
	if !ok {
		return
	}
	h.refs--
	if h.refs <= 0 {
		h.detach()
		delete(r.hooks, c)
	}
}

// scrollAncestors walks the surface's parent chain collecting every
// container whose computed overflow makes either axis scrollable. The
// walk always terminates by including the document's root scroller
// exactly once, even when no intermediate ancestor qualifies.
func scrollAncestors(s host.Surface, doc host.Document) []host.Container {
	root := doc.RootScroller()

	var out []host.Container
	for c := s.Parent(); c != nil; c = c.Parent() {
		if c == root {
			continue // appended unconditionally below
		}
		x, y := c.Overflow()
		if x.Scrolls() || y.Scrolls() {
			out = append(out, c)
		}
	}
	return append(out, root)
}
