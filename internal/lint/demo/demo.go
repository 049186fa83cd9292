// Package demo provides a small offline analyzer so the engine can run
// without a remote analysis service. It knows a handful of common typos
// and flags immediately repeated words. It is not a grammar checker.
package demo

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/billie-coop/redpen/internal/lint"
)

// typos maps lowercase misspellings to their replacements.
var typos = map[string]string{
	"teh":        "the",
	"adn":        "and",
	"taht":       "that",
	"recieve":    "receive",
	"seperate":   "separate",
	"definately": "definitely",
	"occured":    "occurred",
	"untill":     "until",
	"wich":       "which",
	"thier":      "their",
}

// Analyzer implements lint.Provider with the built-in rule table.
type Analyzer struct{}

// New creates a demo analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze scans the text for known typos and doubled words.
// Scope is accepted for interface compatibility but does not change the
// ruleset.
func (a *Analyzer) Analyze(_ context.Context, text, _ string) ([]lint.Finding, error) {
	var findings []lint.Finding

	var prev word
	for _, w := range splitWords(text) {
		lower := strings.ToLower(w.text)

		if fix, ok := typos[lower]; ok {
			findings = append(findings, lint.Finding{
				Rule:        "spelling",
				Message:     fmt.Sprintf("%q is a misspelling of %q", w.text, fix),
				Span:        lint.Span{Start: w.start, End: w.end},
				Suggestions: []string{matchCase(w.text, fix)},
				Context:     "spelling:" + lower,
			})
		}

		if prev.text != "" && strings.EqualFold(prev.text, w.text) {
			findings = append(findings, lint.Finding{
				Rule:        "repetition",
				Message:     fmt.Sprintf("%q is repeated", w.text),
				Span:        lint.Span{Start: prev.start, End: w.end},
				Suggestions: []string{w.text},
				Context:     "repetition:" + lower,
			})
		}
		prev = w
	}

	return findings, nil
}

type word struct {
	text       string
	start, end int // rune offsets
}

// splitWords yields the letter runs of text with their rune offsets.
func splitWords(text string) []word {
	var words []word
	var cur []rune
	start := 0

	pos := 0
	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' {
			if len(cur) == 0 {
				start = pos
			}
			cur = append(cur, r)
		} else if len(cur) > 0 {
			words = append(words, word{text: string(cur), start: start, end: pos})
			cur = nil
		}
		pos++
	}
	if len(cur) > 0 {
		words = append(words, word{text: string(cur), start: start, end: pos})
	}

	return words
}

// matchCase copies the leading capitalization of src onto fix.
func matchCase(src, fix string) string {
	if src == "" || fix == "" {
		return fix
	}
	first := []rune(src)[0]
	if unicode.IsUpper(first) {
		r := []rune(fix)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return fix
}
