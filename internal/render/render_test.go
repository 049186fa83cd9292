package render

import (
	"sync"
	"testing"

	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/host/hosttest"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/pipeline"
)

// spanBoxes computes one box per finding, positioned by span offsets.
type spanBoxes struct{}

func (spanBoxes) ComputeBoxes(target host.Surface, f lint.Finding, rule string, ignore func()) []Box {
	b := target.Bounds()
	return []Box{{
		Target:  target,
		Finding: f,
		Rule:    rule,
		Bounds:  host.Rect{X: b.X + float64(f.Span.Start)*8, Y: b.Y, W: float64(f.Span.Len()) * 8, H: b.H},
		Ignore:  ignore,
	}}
}

// recordingSink captures every handoff.
type recordingSink struct {
	mu      sync.Mutex
	renders [][]Box
	popups  [][]Box
}

func (r *recordingSink) RenderBoxes(boxes []Box) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, boxes)
}

func (r *recordingSink) UpdatePopup(boxes []Box) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.popups = append(r.popups, boxes)
}

func snapshotSource(snap *[]pipeline.TargetResult) func() []pipeline.TargetResult {
	return func() []pipeline.TargetResult { return *snap }
}

func oneTargetSnapshot(s host.Surface, findings ...lint.Finding) []pipeline.TargetResult {
	return []pipeline.TargetResult{{Target: s, Groups: lint.GroupByRule(findings)}}
}

func TestRequest_CoalescesWithinOneFrame(t *testing.T) {
	frames := hosttest.NewFrames()
	sink := &recordingSink{}
	s := hosttest.NewSurface("Teh cat", host.Rect{W: 100, H: 20}, nil)
	snap := oneTargetSnapshot(s, lint.Finding{Rule: "spelling", Span: lint.Span{Start: 0, End: 3}})

	sched := NewScheduler(Config{
		Frames:   frames,
		Source:   snapshotSource(&snap),
		Compute:  spanBoxes{},
		Renderer: sink,
		Popup:    sink,
	})

	// Two scroll events before the frame callback executes.
	sched.Request()
	sched.Request()

	if frames.Pending() != 1 {
		t.Fatalf("pending frames = %d, want 1", frames.Pending())
	}
	frames.Flush()

	if len(sink.renders) != 1 {
		t.Fatalf("render passes = %d, want 1", len(sink.renders))
	}
	if len(sink.popups) != 1 {
		t.Fatalf("popup updates = %d, want 1", len(sink.popups))
	}

	// The slot reopens after the pass completes.
	sched.Request()
	frames.Flush()
	if len(sink.renders) != 2 {
		t.Fatalf("render passes = %d, want 2", len(sink.renders))
	}
}

func TestRun_ProducesBoxesFromSingleSnapshot(t *testing.T) {
	frames := hosttest.NewFrames()
	sink := &recordingSink{}
	a := hosttest.NewSurface("Teh cat", host.Rect{W: 100, H: 20}, nil)
	b := hosttest.NewSurface("teh dog", host.Rect{Y: 30, W: 100, H: 20}, nil)

	snap := []pipeline.TargetResult{
		{Target: a, Groups: lint.GroupByRule([]lint.Finding{{Rule: "spelling", Span: lint.Span{End: 3}}})},
		{Target: b, Groups: lint.GroupByRule([]lint.Finding{{Rule: "spelling", Span: lint.Span{End: 3}}})},
	}

	sched := NewScheduler(Config{
		Frames:   frames,
		Source:   snapshotSource(&snap),
		Compute:  spanBoxes{},
		Renderer: sink,
	})

	sched.Request()
	frames.Flush()

	boxes := sched.LastBoxes()
	if len(boxes) != 2 {
		t.Fatalf("boxes = %d, want 2", len(boxes))
	}
	if boxes[0].Target != host.Surface(a) || boxes[1].Target != host.Surface(b) {
		t.Fatal("box order does not follow snapshot order")
	}
}

func TestRun_BindsIgnoreCapabilityToFindingContext(t *testing.T) {
	frames := hosttest.NewFrames()
	var ignored []string

	s := hosttest.NewSurface("Teh cat", host.Rect{W: 100, H: 20}, nil)
	snap := oneTargetSnapshot(s,
		lint.Finding{Rule: "spelling", Span: lint.Span{End: 3}, Context: "spelling:teh"},
		lint.Finding{Rule: "style", Span: lint.Span{Start: 4, End: 7}}, // no context
	)

	sched := NewScheduler(Config{
		Frames:  frames,
		Source:  snapshotSource(&snap),
		Compute: spanBoxes{},
		Ignorer: func(key string) { ignored = append(ignored, key) },
	})

	sched.Request()
	frames.Flush()

	boxes := sched.LastBoxes()
	if len(boxes) != 2 {
		t.Fatalf("boxes = %d, want 2", len(boxes))
	}
	if boxes[0].Ignore == nil {
		t.Fatal("finding with context should carry an ignore capability")
	}
	if boxes[1].Ignore != nil {
		t.Fatal("finding without context must not carry an ignore capability")
	}

	boxes[0].Ignore()
	if len(ignored) != 1 || ignored[0] != "spelling:teh" {
		t.Fatalf("ignored = %v", ignored)
	}
}

func TestLastBox_EmptyHistory(t *testing.T) {
	frames := hosttest.NewFrames()
	snap := []pipeline.TargetResult(nil)
	sched := NewScheduler(Config{
		Frames:  frames,
		Source:  snapshotSource(&snap),
		Compute: spanBoxes{},
	})

	if _, ok := sched.LastBox(); ok {
		t.Fatal("LastBox should report empty before any render")
	}
}

func TestRun_ReplacesLastBoxes(t *testing.T) {
	frames := hosttest.NewFrames()
	s := hosttest.NewSurface("Teh cat", host.Rect{W: 100, H: 20}, nil)
	snap := oneTargetSnapshot(s, lint.Finding{Rule: "spelling", Span: lint.Span{End: 3}})

	sched := NewScheduler(Config{
		Frames:  frames,
		Source:  snapshotSource(&snap),
		Compute: spanBoxes{},
	})

	sched.Request()
	frames.Flush()
	if len(sched.LastBoxes()) != 1 {
		t.Fatal("expected one box after first render")
	}

	// Findings resolved; next render must empty the list, not merge.
	snap = nil
	sched.Request()
	frames.Flush()
	if got := sched.LastBoxes(); len(got) != 0 {
		t.Fatalf("boxes after empty snapshot = %d, want 0", len(got))
	}
}
