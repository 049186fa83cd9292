package lint

import (
	"context"
	"strings"

	"github.com/billie-coop/redpen/internal/csync"
)

// Filtered wraps a Provider and drops findings the user has dismissed:
// by ignore context key, or by adding the flagged word to a personal
// dictionary. Dictionary matching is case-insensitive on the flagged
// span text.
//
// Callers that mutate the filter must also invalidate any cache sitting
// in front of it, since cached results were produced under the old
// filter state.
type Filtered struct {
	inner   Provider
	ignored *csync.Map[string, struct{}]
	words   *csync.Map[string, struct{}]
}

// NewFiltered wraps inner with empty ignore and dictionary sets.
func NewFiltered(inner Provider) *Filtered {
	return &Filtered{
		inner:   inner,
		ignored: csync.NewMap[string, struct{}](),
		words:   csync.NewMap[string, struct{}](),
	}
}

// Ignore dismisses every future finding carrying this context key.
func (f *Filtered) Ignore(contextKey string) {
	if contextKey == "" {
		return
	}
	f.ignored.Set(contextKey, struct{}{})
}

// AddWords adds words to the personal dictionary.
func (f *Filtered) AddWords(words []string) {
	for _, w := range words {
		if w == "" {
			continue
		}
		f.words.Set(strings.ToLower(w), struct{}{})
	}
}

// Analyze fetches from the wrapped provider and strips dismissed
// findings.
func (f *Filtered) Analyze(ctx context.Context, text, scope string) ([]Finding, error) {
	findings, err := f.inner.Analyze(ctx, text, scope)
	if err != nil {
		return nil, err
	}
	if f.ignored.Len() == 0 && f.words.Len() == 0 {
		return findings, nil
	}

	// Filter into a fresh slice: the inner provider may retain the one
	// it returned.
	runes := []rune(text)
	kept := make([]Finding, 0, len(findings))
	for _, fd := range findings {
		if fd.Context != "" && f.ignored.Has(fd.Context) {
			continue
		}
		if f.inDictionary(runes, fd.Span) {
			continue
		}
		kept = append(kept, fd)
	}
	return kept, nil
}

func (f *Filtered) inDictionary(runes []rune, s Span) bool {
	if f.words.Len() == 0 {
		return false
	}
	if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
		return false
	}
	return f.words.Has(strings.ToLower(string(runes[s.Start:s.End])))
}
