// Package hosttest provides in-memory implementations of the host
// interfaces for tests. Fakes record listener attachment so tests can
// assert that attach and detach stay symmetric.
package hosttest

import (
	"fmt"
	"sync"

	"github.com/billie-coop/redpen/internal/host"
)

// Container is a fake scroll container.
type Container struct {
	parent     host.Container
	overflowX  host.Overflow
	overflowY  host.Overflow
	mu         sync.Mutex
	nextID     int
	scrollSubs map[int]func()
}

// NewContainer creates a container with the given parent (nil for a
// top-level container) and per-axis overflow.
func NewContainer(parent host.Container, x, y host.Overflow) *Container {
	return &Container{
		parent:     parent,
		overflowX:  x,
		overflowY:  y,
		scrollSubs: make(map[int]func()),
	}
}

func (c *Container) Parent() host.Container { return c.parent }

func (c *Container) Overflow() (x, y host.Overflow) { return c.overflowX, c.overflowY }

func (c *Container) OnScroll(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.scrollSubs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.scrollSubs, id)
	}
}

// Scroll fires every registered scroll listener.
func (c *Container) Scroll() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.scrollSubs))
	for _, fn := range c.scrollSubs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ScrollListenerCount returns the number of live scroll listeners.
func (c *Container) ScrollListenerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.scrollSubs)
}

// Surface is a fake editable surface.
type Surface struct {
	mu        sync.Mutex
	text      string
	attached  bool
	bounds    host.Rect
	parent    host.Container
	nextID    int
	listeners map[host.EventKind]map[int]func()
	mutations map[int]func()
}

// NewSurface creates an attached surface with the given text, bounds
// and parent container (nil is allowed).
func NewSurface(text string, bounds host.Rect, parent host.Container) *Surface {
	return &Surface{
		text:      text,
		attached:  true,
		bounds:    bounds,
		parent:    parent,
		listeners: make(map[host.EventKind]map[int]func()),
		mutations: make(map[int]func()),
	}
}

func (s *Surface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the surface content without firing events.
func (s *Surface) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *Surface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Detach simulates removal from the document.
func (s *Surface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
}

func (s *Surface) Bounds() host.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// SetBounds moves or resizes the surface.
func (s *Surface) SetBounds(r host.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = r
}

func (s *Surface) Parent() host.Container { return s.parent }

func (s *Surface) Listen(kind host.EventKind, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners[kind] == nil {
		s.listeners[kind] = make(map[int]func())
	}
	id := s.nextID
	s.nextID++
	s.listeners[kind][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[kind], id)
	}
}

func (s *Surface) ObserveMutations(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.mutations[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.mutations, id)
	}
}

// Fire triggers every listener attached for kind.
func (s *Surface) Fire(kind host.EventKind) {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners[kind]))
	for _, fn := range s.listeners[kind] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Mutate triggers every mutation observer.
func (s *Surface) Mutate() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.mutations))
	for _, fn := range s.mutations {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// ListenerCount returns the number of live listeners across all event
// kinds plus mutation observers.
func (s *Surface) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.mutations)
	for _, m := range s.listeners {
		n += len(m)
	}
	return n
}

// Replace implements host.Editor over the fake's text, using rune
// offsets.
func (s *Surface) Replace(start, end int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runes := []rune(s.text)
	if start < 0 || end < start || end > len(runes) {
		return fmt.Errorf("replace range [%d, %d) out of bounds (len %d)", start, end, len(runes))
	}
	s.text = string(runes[:start]) + text + string(runes[end:])
	return nil
}

// Document is a fake document root.
type Document struct {
	mu       sync.Mutex
	viewport host.Rect
	root     *Container
}

// NewDocument creates a document with the given viewport and a root
// scroller.
func NewDocument(viewport host.Rect) *Document {
	return &Document{
		viewport: viewport,
		root:     NewContainer(nil, host.OverflowAuto, host.OverflowAuto),
	}
}

func (d *Document) Viewport() host.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

// SetViewport resizes the visible region.
func (d *Document) SetViewport(r host.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = r
}

// RootScroller returns the document's root container. It also satisfies
// *Container for test assertions.
func (d *Document) RootScroller() host.Container { return d.root }

// Root returns the root scroller as its concrete fake type.
func (d *Document) Root() *Container { return d.root }

// Frames is a fake frame scheduler. Callbacks queue until Flush, which
// models one paint opportunity.
type Frames struct {
	mu     sync.Mutex
	queued []func()
}

// NewFrames creates an empty frame scheduler.
func NewFrames() *Frames {
	return &Frames{}
}

func (f *Frames) RequestFrame(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, fn)
}

// Flush runs every queued callback as a single frame and returns how
// many ran. Callbacks queued during the flush wait for the next frame.
func (f *Frames) Flush() int {
	f.mu.Lock()
	batch := f.queued
	f.queued = nil
	f.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of callbacks waiting for the next frame.
func (f *Frames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queued)
}

// Keys is a fake global key source.
type Keys struct {
	mu      sync.Mutex
	handler func(host.KeyEvent) bool
}

// NewKeys creates a key source with no interceptor installed.
func NewKeys() *Keys {
	return &Keys{}
}

func (k *Keys) Intercept(fn func(host.KeyEvent) bool) func() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.handler = fn
	return func() {
		k.mu.Lock()
		defer k.mu.Unlock()
		k.handler = nil
	}
}

// Press delivers one key event and reports whether the interceptor
// consumed it.
func (k *Keys) Press(ev host.KeyEvent) bool {
	k.mu.Lock()
	handler := k.handler
	k.mu.Unlock()
	if handler == nil {
		return false
	}
	return handler(ev)
}

// Intercepting reports whether an interceptor is currently installed.
func (k *Keys) Intercepting() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.handler != nil
}
