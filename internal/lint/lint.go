package lint

import "context"

// Span is a half-open rune range [Start, End) within analyzed text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes the span covers.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Finding is one issue reported by the analysis engine.
//
// A finding points at a span of the analyzed text, names the rule that
// produced it, and may carry zero or more suggested replacements. Context
// is an opaque key the host can use to permanently ignore the finding;
// it may be empty when the engine does not support ignoring.
type Finding struct {
	Rule        string   `json:"rule"`
	Message     string   `json:"message"`
	Span        Span     `json:"span"`
	Suggestions []string `json:"suggestions,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// RuleGroup is the slice of findings produced by a single rule, in the
// order the engine reported them.
type RuleGroup struct {
	Rule     string
	Findings []Finding
}

// GroupByRule buckets findings by rule name, preserving the order in
// which each rule first appears and the order of findings within a rule.
// Stable ordering matters: the hotkey dispatcher treats the trailing
// finding of the trailing group as the one it acts on.
func GroupByRule(findings []Finding) []RuleGroup {
	var groups []RuleGroup
	index := make(map[string]int)

	for _, f := range findings {
		i, ok := index[f.Rule]
		if !ok {
			i = len(groups)
			index[f.Rule] = i
			groups = append(groups, RuleGroup{Rule: f.Rule})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}

	return groups
}

// Provider is the asynchronous analysis collaborator.
//
// Analyze may be slow and may fail; the engine never retries a failed
// call on its own — the next cache miss for the same text issues a fresh
// request. Scope is the context string (typically the host domain) that
// participates in cache keys and may affect engine configuration.
//
// Used by: cache.Cache (the only direct caller in the engine)
type Provider interface {
	Analyze(ctx context.Context, text, scope string) ([]Finding, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, text, scope string) ([]Finding, error)

// Analyze calls f.
func (f ProviderFunc) Analyze(ctx context.Context, text, scope string) ([]Finding, error) {
	return f(ctx, text, scope)
}
