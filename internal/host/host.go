// Package host defines the contracts the engine expects from the
// document it overlays. The engine never touches a real document tree
// directly; everything it observes or schedules goes through these
// interfaces, which keeps the orchestration logic testable and lets any
// host (a browser bridge, a TUI, a test fake) drive it.
package host

import "context"

// Rect is a bounding rectangle in viewport coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// EventKind identifies one of the fixed interactive events the registry
// listens for on every surface.
type EventKind string

const (
	EventInput  EventKind = "input"
	EventKeyUp  EventKind = "keyup"
	EventFocus  EventKind = "focus"
	EventBlur   EventKind = "blur"
	EventPaste  EventKind = "paste"
	EventChange EventKind = "change"
)

// InteractiveEvents is the fixed set of events attached to each surface.
var InteractiveEvents = []EventKind{
	EventInput, EventKeyUp, EventFocus, EventBlur, EventPaste, EventChange,
}

// Surface is one observed editable region of the host document.
//
// Implementations must be comparable (pointer receivers are the norm):
// the registry keys its ownership tables on the Surface value itself,
// giving each surface stable reference identity.
type Surface interface {
	// Text returns the surface's analyzable content: the control value
	// for form controls, the text content otherwise.
	Text() string

	// Attached reports whether the surface is still part of the document.
	Attached() bool

	// Bounds returns the surface's bounding geometry in viewport
	// coordinates. A zero-size rectangle means the surface is not
	// currently renderable.
	Bounds() Rect

	// Parent returns the surface's enclosing container, or nil when the
	// surface hangs directly off the document root. The registry walks
	// this chain to discover scrollable ancestors.
	Parent() Container

	// Listen registers fn for one of the fixed interactive events and
	// returns a detach func. Detach must be safe to call exactly once.
	Listen(kind EventKind, fn func()) (detach func())

	// ObserveMutations watches structural and content mutations on the
	// surface's subtree (or its parent, for bare text nodes) and returns
	// a detach func.
	ObserveMutations(fn func()) (detach func())
}

// Editor is implemented by surfaces that support in-place replacement,
// which the hotkey dispatcher uses to apply suggestions. Start and end
// are rune offsets into Text().
type Editor interface {
	Replace(start, end int, text string) error
}

// Overflow is a container's computed overflow behavior on one axis.
type Overflow string

const (
	OverflowVisible Overflow = "visible"
	OverflowHidden  Overflow = "hidden"
	OverflowScroll  Overflow = "scroll"
	OverflowAuto    Overflow = "auto"
)

// Scrolls reports whether this overflow mode makes the axis scrollable.
func (o Overflow) Scrolls() bool {
	return o == OverflowScroll || o == OverflowAuto
}

// Container is a node on the path between a surface and the document
// root. Like Surface, implementations must be comparable: the registry
// reference-counts scroll hooks per container value.
type Container interface {
	// Parent returns the next container up, or nil above the root.
	Parent() Container

	// Overflow returns the container's computed overflow per axis.
	Overflow() (x, y Overflow)

	// OnScroll registers fn for scroll events and returns a detach func.
	OnScroll(fn func()) (detach func())
}

// Document is the root collaborator: it exposes the viewport and the
// root scroller that terminates every ancestor walk.
type Document interface {
	// Viewport returns the currently visible region.
	Viewport() Rect

	// RootScroller returns the document's root scrolling container. It
	// is hooked exactly once regardless of how many surfaces exist.
	RootScroller() Container
}

// FrameScheduler schedules a callback for the host's next paint
// opportunity (the requestAnimationFrame analog). Callbacks queued
// before the next frame all run on that frame, in order.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// Hotkey is a key name plus the exact modifier set that must accompany
// it. Matching is case-insensitive on the key and exact on modifiers.
type Hotkey struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Alt   bool   `json:"alt"`
	Shift bool   `json:"shift"`
}

// KeyEvent is one global key press as delivered by the host.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// KeySource delivers global key events ahead of the host's own
// handlers. The dispatcher's fn returns true to consume the event
// (suppress default handling and stop propagation).
type KeySource interface {
	Intercept(fn func(KeyEvent) bool) (detach func())
}

// Actions bundles the optional callbacks the host exposes for user
// actions. Any field may be nil, in which case the corresponding action
// is a no-op.
type Actions struct {
	// Hotkey fetches the configured suggestion hotkey. Called once at
	// startup; the result is cached for the session.
	Hotkey func(ctx context.Context) (Hotkey, error)

	// IgnoreFinding permanently dismisses the finding identified by
	// contextKey.
	IgnoreFinding func(ctx context.Context, contextKey string) error

	// OpenOptions opens the host's settings surface.
	OpenOptions func()

	// AddToDictionary adds words to the user dictionary.
	AddToDictionary func(words []string)
}
