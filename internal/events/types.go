package events

// Type identifies the kind of event.
type Type string

// typeWildcard matches every published event. Internal: subscribers get
// it by calling Subscribe with no types.
const typeWildcard Type = "*"

const (
	// Target lifecycle
	TargetAdded   Type = "target.added"
	TargetRemoved Type = "target.removed"

	// Lint cycle
	LintCycleCompleted Type = "lint.cycle.completed"

	// Render cycle
	RenderCompleted Type = "render.completed"

	// Cache
	CacheCleared Type = "cache.cleared"

	// User actions
	SuggestionApplied Type = "suggestion.applied"
	FindingIgnored    Type = "finding.ignored"
	DictionaryUpdated Type = "dictionary.updated"
)

// Event is one published occurrence.
type Event struct {
	Type    Type
	Payload any
}

// LintCyclePayload reports a completed lint cycle.
type LintCyclePayload struct {
	Targets  int // visible targets considered
	Findings int // findings across all targets
}

// RenderPayload reports a completed render cycle.
type RenderPayload struct {
	Boxes int
}

// SuggestionPayload reports an applied suggestion.
type SuggestionPayload struct {
	Rule        string
	Replacement string
}
