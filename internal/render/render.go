// Package render coalesces render requests onto the host's next paint
// opportunity and converts lint snapshots into positioned highlight
// boxes.
//
// Box geometry and painting are not this package's business: it
// delegates both to host-provided collaborators and only owns the
// scheduling discipline and the "last boxes" list the hotkey dispatcher
// reads.
package render

import (
	"github.com/billie-coop/redpen/internal/csync"
	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/pipeline"
	"github.com/billie-coop/redpen/internal/scheduler"
)

// Box is a positioned, renderable representation of one finding. Boxes
// are ephemeral: the full set is recomputed every render cycle from the
// latest lint snapshot, and only the most recent set is retained, to
// support the hotkey dispatcher's "act on the last box" behavior.
type Box struct {
	Target  host.Surface
	Finding lint.Finding
	Rule    string
	Bounds  host.Rect

	// Ignore permanently dismisses the finding. Nil when the finding
	// carries no ignore context or the host exposes no ignore action.
	Ignore func()
}

// BoxComputer projects one finding into zero or more positioned boxes.
// The ignore capability is bound to the finding's context before the
// call; implementations attach it to each produced box.
type BoxComputer interface {
	ComputeBoxes(target host.Surface, f lint.Finding, rule string, ignore func()) []Box
}

// Renderer receives the authoritative box list each cycle.
type Renderer interface {
	RenderBoxes(boxes []Box)
}

// Popup receives the same list to drive suggestion popup interactions.
type Popup interface {
	UpdatePopup(boxes []Box)
}

// Scheduler owns the render slot and the "last boxes" list.
type Scheduler struct {
	slot     *scheduler.Slot
	source   func() []pipeline.TargetResult
	compute  BoxComputer
	renderer Renderer
	popup    Popup
	ignorer  func(contextKey string)
	last     *csync.Slice[Box]
	onDone   func(boxCount int)
}

// Config wires a Scheduler's collaborators. Renderer, Popup, Ignorer
// and OnDone may each be nil.
type Config struct {
	Frames   host.FrameScheduler
	Source   func() []pipeline.TargetResult
	Compute  BoxComputer
	Renderer Renderer
	Popup    Popup

	// Ignorer handles a box's ignore action (typically: tell the host,
	// clear the cache, request an update).
	Ignorer func(contextKey string)

	// OnDone runs after each completed render with the box count.
	OnDone func(boxCount int)
}

// NewScheduler creates a render scheduler. Renders execute on the frame
// scheduler's paint callback; requests between frames coalesce.
func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		source:   cfg.Source,
		compute:  cfg.Compute,
		renderer: cfg.Renderer,
		popup:    cfg.Popup,
		ignorer:  cfg.Ignorer,
		last:     csync.NewSlice[Box](),
		onDone:   cfg.OnDone,
	}
	s.slot = scheduler.NewSlot(cfg.Frames.RequestFrame, s.run)
	return s
}

// Request schedules a render for the next paint opportunity. Multiple
// calls before that frame collapse into one render pass.
func (s *Scheduler) Request() {
	s.slot.Request()
}

// LastBoxes returns the most recently rendered box list.
func (s *Scheduler) LastBoxes() []Box {
	return s.last.All()
}

// LastBox returns the trailing box of the most recent render.
func (s *Scheduler) LastBox() (Box, bool) {
	return s.last.Last()
}

// run executes one render pass. It reads a single lint snapshot, so
// every box it produces comes from the same cycle; the slot reopens
// only after the computation and handoff complete.
func (s *Scheduler) run(done func()) {
	defer done()

	snapshot := s.source()

	var boxes []Box
	for _, tr := range snapshot {
		for _, grp := range tr.Groups {
			for _, f := range grp.Findings {
				boxes = append(boxes, s.compute.ComputeBoxes(tr.Target, f, grp.Rule, s.ignoreFor(f))...)
			}
		}
	}

	s.last.Replace(boxes)
	if s.renderer != nil {
		s.renderer.RenderBoxes(boxes)
	}
	if s.popup != nil {
		s.popup.UpdatePopup(boxes)
	}
	if s.onDone != nil {
		s.onDone(len(boxes))
	}
}

// ignoreFor binds the ignore capability to one finding's context.
func (s *Scheduler) ignoreFor(f lint.Finding) func() {
	if s.ignorer == nil || f.Context == "" {
		return nil
	}
	key := f.Context
	return func() { s.ignorer(key) }
}
