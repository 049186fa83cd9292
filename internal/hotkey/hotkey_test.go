package hotkey

import (
	"context"
	"errors"
	"testing"

	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/host/hosttest"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/render"
)

func TestMatches_RequiresExactModifierEquality(t *testing.T) {
	ctrlK := host.Hotkey{Key: "k", Ctrl: true}

	tests := []struct {
		name  string
		ev    host.KeyEvent
		match bool
	}{
		{"exact match", host.KeyEvent{Key: "k", Ctrl: true}, true},
		{"case-insensitive key", host.KeyEvent{Key: "K", Ctrl: true}, true},
		{"missing required ctrl", host.KeyEvent{Key: "k"}, false},
		{"extra shift", host.KeyEvent{Key: "k", Ctrl: true, Shift: true}, false},
		{"extra alt", host.KeyEvent{Key: "k", Ctrl: true, Alt: true}, false},
		{"wrong key", host.KeyEvent{Key: "j", Ctrl: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(ctrlK, tt.ev); got != tt.match {
				t.Fatalf("Matches(%+v) = %v, want %v", tt.ev, got, tt.match)
			}
		})
	}
}

func fixedHotkey(hk host.Hotkey) host.Actions {
	return host.Actions{
		Hotkey: func(context.Context) (host.Hotkey, error) { return hk, nil },
	}
}

func TestDispatcher_AppliesFirstSuggestionOfLastBox(t *testing.T) {
	keys := hosttest.NewKeys()
	surface := hosttest.NewSurface("Teh cat", host.Rect{W: 100, H: 20}, nil)

	box := render.Box{
		Target: surface,
		Finding: lint.Finding{
			Rule:        "spelling",
			Span:        lint.Span{Start: 0, End: 3},
			Suggestions: []string{"The", "They"},
		},
		Rule: "spelling",
	}

	var applied string
	d := New(Config{
		Keys:      keys,
		Actions:   fixedHotkey(host.Hotkey{Key: "k", Ctrl: true}),
		LastBox:   func() (render.Box, bool) { return box, true },
		OnApplied: func(_ render.Box, replacement string) { applied = replacement },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !keys.Press(host.KeyEvent{Key: "k", Ctrl: true}) {
		t.Fatal("hotkey press should be consumed")
	}
	if surface.Text() != "The cat" {
		t.Fatalf("text = %q, want %q", surface.Text(), "The cat")
	}
	if applied != "The" {
		t.Fatalf("applied = %q, want first suggestion %q", applied, "The")
	}
}

func TestDispatcher_IgnoresWhenNoSuggestions(t *testing.T) {
	keys := hosttest.NewKeys()
	surface := hosttest.NewSurface("whatever", host.Rect{W: 100, H: 20}, nil)

	ignored := false
	box := render.Box{
		Target:  surface,
		Finding: lint.Finding{Rule: "style", Span: lint.Span{End: 3}},
		Ignore:  func() { ignored = true },
	}

	d := New(Config{
		Keys:    keys,
		Actions: fixedHotkey(host.Hotkey{Key: "k", Ctrl: true}),
		LastBox: func() (render.Box, bool) { return box, true },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	keys.Press(host.KeyEvent{Key: "k", Ctrl: true})
	if !ignored {
		t.Fatal("box without suggestions should be ignored via its capability")
	}
	if surface.Text() != "whatever" {
		t.Fatal("target text must not change on ignore")
	}
}

func TestDispatcher_EmptyHistoryIsConsumedNoOp(t *testing.T) {
	keys := hosttest.NewKeys()

	d := New(Config{
		Keys:    keys,
		Actions: fixedHotkey(host.Hotkey{Key: "k", Ctrl: true}),
		LastBox: func() (render.Box, bool) { return render.Box{}, false },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !keys.Press(host.KeyEvent{Key: "k", Ctrl: true}) {
		t.Fatal("matching press must be consumed even with empty history")
	}
}

func TestDispatcher_NonMatchingKeyPassesThrough(t *testing.T) {
	keys := hosttest.NewKeys()

	d := New(Config{
		Keys:    keys,
		Actions: fixedHotkey(host.Hotkey{Key: "k", Ctrl: true}),
		LastBox: func() (render.Box, bool) { return render.Box{}, false },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if keys.Press(host.KeyEvent{Key: "k", Ctrl: true, Shift: true}) {
		t.Fatal("Ctrl+Shift+K must not match a Ctrl+K hotkey")
	}
}

func TestDispatcher_StaysIdleWithoutHotkeyCallback(t *testing.T) {
	keys := hosttest.NewKeys()

	d := New(Config{
		Keys:    keys,
		Actions: host.Actions{}, // no Hotkey callback
		LastBox: func() (render.Box, bool) { return render.Box{}, false },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if d.Armed() {
		t.Fatal("dispatcher should stay idle when the host exposes no hotkey")
	}
	if keys.Intercepting() {
		t.Fatal("no interceptor should be installed")
	}
}

func TestDispatcher_FetchFailureStaysIdle(t *testing.T) {
	keys := hosttest.NewKeys()

	d := New(Config{
		Keys: keys,
		Actions: host.Actions{
			Hotkey: func(context.Context) (host.Hotkey, error) {
				return host.Hotkey{}, errors.New("storage unavailable")
			},
		},
		LastBox: func() (render.Box, bool) { return render.Box{}, false },
	})

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("Start should surface the fetch failure")
	}
	if d.Armed() {
		t.Fatal("failed fetch must leave the dispatcher idle")
	}
}

func TestDispatcher_StopUninstallsInterceptor(t *testing.T) {
	keys := hosttest.NewKeys()

	d := New(Config{
		Keys:    keys,
		Actions: fixedHotkey(host.Hotkey{Key: "k", Ctrl: true}),
		LastBox: func() (render.Box, bool) { return render.Box{}, false },
	})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	d.Stop()

	if keys.Intercepting() {
		t.Fatal("Stop must uninstall the interceptor")
	}
	if keys.Press(host.KeyEvent{Key: "k", Ctrl: true}) {
		t.Fatal("no key should be consumed after Stop")
	}
}
