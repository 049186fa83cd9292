package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/v2/textarea"

	"github.com/billie-coop/redpen/internal/host"
)

// frameQueue implements host.FrameScheduler on top of the TUI's own
// repaint cadence: callbacks queue up and all run, in order, when the
// model's frame tick flushes them.
type frameQueue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *frameQueue) RequestFrame(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

// Flush runs every callback queued since the previous flush. Callbacks
// queued while flushing run on the next flush.
func (q *frameQueue) Flush() {
	q.mu.Lock()
	fns := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// keySource implements host.KeySource. The model delivers key presses
// here before its own handling; a consumed press never reaches the
// focused textarea.
type keySource struct {
	mu sync.Mutex
	fn func(host.KeyEvent) bool
}

func (k *keySource) Intercept(fn func(host.KeyEvent) bool) (detach func()) {
	k.mu.Lock()
	k.fn = fn
	k.mu.Unlock()
	return func() {
		k.mu.Lock()
		k.fn = nil
		k.mu.Unlock()
	}
}

// deliver hands one key press to the interceptor, reporting whether it
// was consumed.
func (k *keySource) deliver(ev host.KeyEvent) bool {
	k.mu.Lock()
	fn := k.fn
	k.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(ev)
}

// rootScroller is the terminal-level scrolling container every pane
// hangs off. It implements host.Container.
type rootScroller struct {
	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func newRootScroller() *rootScroller {
	return &rootScroller{listeners: make(map[int]func())}
}

func (r *rootScroller) Parent() host.Container { return nil }

func (r *rootScroller) Overflow() (x, y host.Overflow) {
	return host.OverflowAuto, host.OverflowAuto
}

func (r *rootScroller) OnScroll(fn func()) (detach func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *rootScroller) fire() {
	r.mu.Lock()
	fns := make([]func(), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// document implements host.Document for the terminal: the viewport is
// the terminal itself, in cell coordinates.
type document struct {
	mu       sync.Mutex
	viewport host.Rect
	root     *rootScroller
}

func newDocument() *document {
	return &document{root: newRootScroller()}
}

func (d *document) Viewport() host.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewport
}

func (d *document) RootScroller() host.Container { return d.root }

// resize updates the viewport and notifies scroll listeners, since a
// resize changes what is visible the same way scrolling does.
func (d *document) resize(w, h int) {
	d.mu.Lock()
	d.viewport = host.Rect{W: float64(w), H: float64(h)}
	d.mu.Unlock()
	d.root.fire()
}

// pane is one editable region: a textarea plus the surface bookkeeping
// the engine observes. It implements host.Surface and host.Editor.
//
// The textarea itself is only touched from the update loop; the cached
// text and geometry fields are guarded so engine goroutines can read
// them at any time.
type pane struct {
	title string
	area  textarea.Model

	mu        sync.Mutex
	text      string
	bounds    host.Rect
	attached  bool
	listeners map[host.EventKind]map[int]func()
	observers map[int]func()
	nextID    int
}

func newPane(title, content string) *pane {
	ta := textarea.New()
	ta.Placeholder = "Start writing..."
	ta.Prompt = ""
	ta.CharLimit = -1
	ta.ShowLineNumbers = false
	ta.SetValue(content)

	p := &pane{
		title:     title,
		area:      ta,
		text:      content,
		attached:  true,
		listeners: make(map[host.EventKind]map[int]func()),
		observers: make(map[int]func()),
	}
	return p
}

func (p *pane) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

func (p *pane) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attached
}

func (p *pane) Bounds() host.Rect {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bounds
}

// Parent returns nil: panes hang directly off the document root, so the
// root scroller is their only scrollable ancestor.
func (p *pane) Parent() host.Container { return nil }

func (p *pane) Listen(kind host.EventKind, fn func()) (detach func()) {
	p.mu.Lock()
	if p.listeners[kind] == nil {
		p.listeners[kind] = make(map[int]func())
	}
	id := p.nextID
	p.nextID++
	p.listeners[kind][id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners[kind], id)
		p.mu.Unlock()
	}
}

func (p *pane) ObserveMutations(fn func()) (detach func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.observers, id)
		p.mu.Unlock()
	}
}

// Replace splices text into the rune range [start, end). Called by the
// hotkey dispatcher from within key delivery, so it always runs on the
// update loop.
func (p *pane) Replace(start, end int, text string) error {
	p.mu.Lock()
	runes := []rune(p.text)
	if start < 0 || end > len(runes) || start > end {
		p.mu.Unlock()
		return fmt.Errorf("replace range [%d,%d) out of bounds for %d runes", start, end, len(runes))
	}
	var b strings.Builder
	b.WriteString(string(runes[:start]))
	b.WriteString(text)
	b.WriteString(string(runes[end:]))
	p.text = b.String()
	value := p.text
	p.mu.Unlock()

	p.area.SetValue(value)
	p.fire(host.EventInput)
	return nil
}

// setBounds records the pane's on-screen rectangle in cell coordinates.
func (p *pane) setBounds(r host.Rect) {
	p.mu.Lock()
	p.bounds = r
	p.mu.Unlock()
}

// syncText refreshes the cached text from the textarea after an update
// pass and fires input listeners when it changed.
func (p *pane) syncText() {
	value := p.area.Value()
	p.mu.Lock()
	changed := value != p.text
	p.text = value
	p.mu.Unlock()
	if changed {
		p.fire(host.EventInput)
	}
}

// fire invokes every listener registered for kind.
func (p *pane) fire(kind host.EventKind) {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.listeners[kind]))
	for _, fn := range p.listeners[kind] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// keyEventOf translates a bubbletea key string ("ctrl+shift+k", "K",
// "enter") into the engine's key event form. A bare uppercase letter is
// reported as shift plus the lowercase letter.
func keyEventOf(s string) host.KeyEvent {
	parts := strings.Split(s, "+")
	ev := host.KeyEvent{Key: parts[len(parts)-1]}
	for _, mod := range parts[:len(parts)-1] {
		switch mod {
		case "ctrl":
			ev.Ctrl = true
		case "alt":
			ev.Alt = true
		case "shift":
			ev.Shift = true
		}
	}
	if len(ev.Key) == 1 && ev.Key >= "A" && ev.Key <= "Z" {
		ev.Shift = true
		ev.Key = strings.ToLower(ev.Key)
	}
	return ev
}
