// Package pipeline runs lint cycles: one pass of requesting analysis
// for every visible target and atomically publishing the combined
// results.
//
// Per-target requests race freely within a cycle, but the result-set
// swap is atomic with respect to readers — a render never observes a
// half-updated snapshot. Across cycles there is no ordering guarantee
// for late-arriving provider responses; that is safe because results
// are consumed only at cycle completion, never incrementally.
//
// Used by: engine (as the lint slot's run body), render (reads Snapshot)
package pipeline

import (
	"context"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/billie-coop/redpen/internal/cache"
	"github.com/billie-coop/redpen/internal/csync"
	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/registry"
)

// DefaultMaxTextLen bounds how much text one target may submit for
// analysis. Oversized content is skipped entirely to bound request cost
// and latency.
const DefaultMaxTextLen = 120_000

// TargetResult pairs one target with its grouped findings for one
// completed cycle. The whole slice is replaced, never merged, each
// cycle.
type TargetResult struct {
	Target host.Surface
	Groups []lint.RuleGroup
}

// Summary describes one completed cycle for event reporting.
type Summary struct {
	Targets  int // visible targets considered
	Findings int // findings across all analyzed targets
}

// Pipeline owns the "last results" snapshot.
type Pipeline struct {
	reg        *registry.Registry
	cache      *cache.Cache
	scope      string
	maxTextLen int
	results    *csync.Slice[TargetResult]
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxTextLen overrides the per-target size bound (in runes).
func WithMaxTextLen(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxTextLen = n
		}
	}
}

// New creates a pipeline reading targets from reg and fetching findings
// through c under the given analysis scope.
func New(reg *registry.Registry, c *cache.Cache, scope string, opts ...Option) *Pipeline {
	p := &Pipeline{
		reg:        reg,
		cache:      c,
		scope:      scope,
		maxTextLen: DefaultMaxTextLen,
		results:    csync.NewSlice[TargetResult](),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one lint cycle and blocks until every target's outcome
// (result or skip) is in, then swaps the snapshot. The caller (the lint
// slot) guarantees single-flight; Run itself does not.
func (p *Pipeline) Run(ctx context.Context) Summary {
	targets := p.reg.Visible()

	// Indexed staging keeps target order stable while fetches race.
	staged := make([]*TargetResult, len(targets))

	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			staged[i] = p.fetch(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	// Final filter pass: a target removed while its request was in
	// flight gets its late response discarded here rather than
	// canceled mid-flight.
	snapshot := make([]TargetResult, 0, len(staged))
	findings := 0
	for _, r := range staged {
		if r == nil || !p.reg.Has(r.Target) {
			continue
		}
		snapshot = append(snapshot, *r)
		for _, grp := range r.Groups {
			findings += len(grp.Findings)
		}
	}

	p.results.Replace(snapshot)
	return Summary{Targets: len(targets), Findings: findings}
}

// fetch produces one target's result, or nil when the target is
// skipped: detached (self-healing removal), empty, oversized, or the
// provider failed (retried naturally on the next cycle).
func (p *Pipeline) fetch(ctx context.Context, t host.Surface) *TargetResult {
	if !t.Attached() {
		_ = p.reg.Remove(t)
		return nil
	}

	text := t.Text()
	if text == "" || utf8.RuneCountInString(text) > p.maxTextLen {
		return nil
	}

	findings, err := p.cache.Lint(ctx, text, p.scope)
	if err != nil {
		return nil
	}

	return &TargetResult{Target: t, Groups: lint.GroupByRule(findings)}
}

// Snapshot returns the most recent completed cycle's results. The
// returned slice is a copy and internally consistent: every entry comes
// from the same cycle.
func (p *Pipeline) Snapshot() []TargetResult {
	return p.results.All()
}
