// Package tui is the demo host: a terminal writing pad whose editable
// panes are observed by the overlay engine. It adapts the terminal to
// the engine's host contracts (see bridge.go) and presents findings,
// suggestions and engine status around two textareas.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textarea"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/redpen/internal/config"
	"github.com/billie-coop/redpen/internal/engine"
	"github.com/billie-coop/redpen/internal/events"
	"github.com/billie-coop/redpen/internal/host"
	"github.com/billie-coop/redpen/internal/lint"
	"github.com/billie-coop/redpen/internal/render"
)

// framePeriod is how often queued paint callbacks are flushed. It plays
// the role of the host's frame cadence.
const framePeriod = 33 * time.Millisecond

// frameMsg asks the model to flush the frame queue.
type frameMsg struct{}

// cellBoxes projects a finding's rune span onto terminal cells within
// its pane, assuming simple wrapping at the pane's inner width.
type cellBoxes struct{}

func (cellBoxes) ComputeBoxes(target host.Surface, f lint.Finding, rule string, ignore func()) []render.Box {
	b := target.Bounds()
	inner := int(b.W) - 2
	if inner < 1 {
		inner = 1
	}
	row := f.Span.Start / inner
	col := f.Span.Start % inner
	return []render.Box{{
		Target:  target,
		Finding: f,
		Rule:    rule,
		Bounds: host.Rect{
			X: b.X + float64(col),
			Y: b.Y + float64(row),
			W: float64(f.Span.Len()),
			H: 1,
		},
		Ignore: ignore,
	}}
}

// Model is the demo host's root bubbletea model.
type Model struct {
	width  int
	height int

	cfg    *config.Config
	keyMap KeyMap

	// Host bridge
	frames *frameQueue
	keys   *keySource
	doc    *document
	panes  []*pane
	focus  int

	// Engine
	engine *engine.Engine
	filter *lint.Filtered

	// Event system
	eventBroker *events.Broker
	eventSub    <-chan events.Event

	// UI state
	findings viewport.Model
	popup    string
	md       *glamour.TermRenderer
	status   string
	lastLint events.LintCyclePayload
}

// New creates the demo host over the given analysis provider.
func New(cfg *config.Config, provider lint.Provider) *Model {
	m := &Model{
		cfg:         cfg,
		keyMap:      DefaultKeyMap(),
		frames:      &frameQueue{},
		keys:        &keySource{},
		doc:         newDocument(),
		filter:      lint.NewFiltered(provider),
		eventBroker: events.NewBroker(),
		findings:    viewport.New(),
		status:      "starting...",
	}

	m.panes = []*pane{
		newPane("Draft", "Teh quick brown fox jumped over teh lazy dog.\n\nIt was was a dark and stormy night."),
		newPane("Notes", "Remember taht we recieve thier invoices seperate from ours."),
	}
	m.panes[0].area.Focus()

	actions := host.Actions{
		IgnoreFinding: func(_ context.Context, contextKey string) error {
			m.filter.Ignore(contextKey)
			return nil
		},
		AddToDictionary: m.filter.AddWords,
		OpenOptions: func() {
			m.status = "edit .redpen/config.json to change settings"
		},
	}
	if hk, ctrl, alt, shift, err := config.ParseHotkey(cfg.Hotkey); err == nil {
		actions.Hotkey = func(context.Context) (host.Hotkey, error) {
			return host.Hotkey{Key: hk, Ctrl: ctrl, Alt: alt, Shift: shift}, nil
		}
	}

	m.engine = engine.New(m.doc, m.filter, engine.Options{
		Scope:         cfg.Scope,
		Interval:      time.Duration(cfg.IntervalMS) * time.Millisecond,
		CacheCapacity: cfg.CacheCapacity,
		CacheTTL:      time.Duration(cfg.CacheTTLSeconds) * time.Second,
		MaxTextLen:    cfg.MaxTextLen,
		Frames:        m.frames,
		Keys:          m.keys,
		Compute:       cellBoxes{},
		Renderer:      m,
		Popup:         m,
		Actions:       actions,
		Broker:        m.eventBroker,
	})
	m.eventSub = m.eventBroker.Subscribe()

	for _, p := range m.panes {
		m.engine.AddTarget(p)
	}

	return m
}

// Init starts the engine and the model's recurring commands.
func (m *Model) Init() tea.Cmd {
	m.engine.Start(context.Background())
	return tea.Batch(
		textarea.Blink,
		m.frameTick(),
		m.listenForEvents(),
	)
}

// frameTick schedules the next frame flush.
func (m *Model) frameTick() tea.Cmd {
	return tea.Tick(framePeriod, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

// listenForEvents creates a command that waits for engine events
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.eventSub
	}
}

// Update handles all TUI updates
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case events.Event:
		m.handleEvent(msg)
		return m, m.listenForEvents()

	case frameMsg:
		// Paint opportunity: queued render passes run here, on the
		// update loop, so they may touch UI state freely.
		m.frames.Flush()
		return m, m.frameTick()

	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.engine.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keyMap.NextPane):
		m.cycleFocus()
		return m, nil
	case key.Matches(msg, m.keyMap.AddWord):
		m.addLastWordToDictionary()
		return m, nil
	case key.Matches(msg, m.keyMap.IgnoreLast):
		m.ignoreLastFinding()
		return m, nil
	case key.Matches(msg, m.keyMap.Options):
		m.engine.OpenOptions()
		return m, nil
	}

	// The engine's hotkey dispatcher sees the press before the focused
	// textarea, matching how a host delivers global keys first.
	if m.keys.deliver(keyEventOf(msg.String())) {
		return m, nil
	}

	p := m.panes[m.focus]
	var cmd tea.Cmd
	p.area, cmd = p.area.Update(msg)
	p.syncText()
	return m, cmd
}

func (m *Model) cycleFocus() {
	m.panes[m.focus].area.Blur()
	m.panes[m.focus].fire(host.EventBlur)
	m.focus = (m.focus + 1) % len(m.panes)
	m.panes[m.focus].area.Focus()
	m.panes[m.focus].fire(host.EventFocus)
}

// addLastWordToDictionary takes the flagged text of the most recent box
// and adds it to the personal dictionary.
func (m *Model) addLastWordToDictionary() {
	boxes := m.engine.LastBoxes()
	if len(boxes) == 0 {
		m.status = "nothing to add"
		return
	}
	box := boxes[len(boxes)-1]
	runes := []rune(box.Target.Text())
	s := box.Finding.Span
	if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
		return
	}
	word := string(runes[s.Start:s.End])
	m.engine.AddToDictionary([]string{word})
	m.status = fmt.Sprintf("added %q to dictionary", word)
}

func (m *Model) ignoreLastFinding() {
	boxes := m.engine.LastBoxes()
	if len(boxes) == 0 {
		m.status = "nothing to ignore"
		return
	}
	box := boxes[len(boxes)-1]
	if box.Ignore == nil {
		m.status = "finding cannot be ignored"
		return
	}
	box.Ignore()
	m.status = fmt.Sprintf("ignored %s", box.Rule)
}

// handleEvent reacts to engine lifecycle events.
func (m *Model) handleEvent(ev events.Event) {
	switch ev.Type {
	case events.LintCycleCompleted:
		if p, ok := ev.Payload.(events.LintCyclePayload); ok {
			m.lastLint = p
			m.status = fmt.Sprintf("%d targets · %d findings", p.Targets, p.Findings)
		}
	case events.SuggestionApplied:
		if p, ok := ev.Payload.(events.SuggestionPayload); ok {
			m.status = fmt.Sprintf("applied %q (%s)", p.Replacement, p.Rule)
		}
	case events.CacheCleared:
		// The refresh after a clear overwrites the status shortly.
	}
}

// layout recomputes geometry after a resize.
func (m *Model) layout(w, h int) {
	m.width = w
	m.height = h

	paneW := (w - 6) / 2
	if paneW < 20 {
		paneW = 20
	}
	paneH := h / 2
	if paneH < 5 {
		paneH = 5
	}

	for i, p := range m.panes {
		p.area.SetWidth(paneW - 2)
		p.area.SetHeight(paneH - 2)
		p.setBounds(host.Rect{
			X: float64(1 + i*(paneW+2)),
			Y: 2,
			W: float64(paneW),
			H: float64(paneH),
		})
	}

	findingsH := h - paneH - 8
	if findingsH < 3 {
		findingsH = 3
	}
	m.findings = viewport.New(
		viewport.WithWidth(w-2),
		viewport.WithHeight(findingsH),
	)
	m.findings.SetContent(m.renderFindings(m.engine.LastBoxes()))

	m.md, _ = glamour.NewTermRenderer(
		glamour.WithStylePath("dracula"),
		glamour.WithWordWrap(w-4),
	)

	// Viewport changes affect visibility the way scrolling does.
	m.doc.resize(w, h)
}

// RenderBoxes implements render.Renderer: it repaints the findings
// pane. Always called from a frame flush on the update loop.
func (m *Model) RenderBoxes(boxes []render.Box) {
	m.findings.SetContent(m.renderFindings(boxes))
}

// UpdatePopup implements render.Popup: it re-renders the suggestion
// popup for the trailing box, the one the hotkey acts on.
func (m *Model) UpdatePopup(boxes []render.Box) {
	if len(boxes) == 0 {
		m.popup = ""
		return
	}
	box := boxes[len(boxes)-1]

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** — %s\n", box.Rule, box.Finding.Message)
	if len(box.Finding.Suggestions) > 0 {
		fmt.Fprintf(&b, "\nPress `%s` to replace with `%s`.\n",
			m.cfg.Hotkey, box.Finding.Suggestions[0])
	} else {
		fmt.Fprintf(&b, "\nPress `%s` to dismiss.\n", m.cfg.Hotkey)
	}

	if m.md == nil {
		m.popup = b.String()
		return
	}
	out, err := m.md.Render(b.String())
	if err != nil {
		m.popup = b.String()
		return
	}
	m.popup = strings.TrimRight(out, "\n")
}

func (m *Model) renderFindings(boxes []render.Box) string {
	if len(boxes) == 0 {
		return messageStyle.Render("No findings.")
	}
	var b strings.Builder
	for _, box := range boxes {
		line := ruleStyle.Render(box.Rule) + " " + messageStyle.Render(box.Finding.Message)
		if len(box.Finding.Suggestions) > 0 {
			line += " " + suggestionStyle.Render("→ "+box.Finding.Suggestions[0])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the UI
func (m *Model) View() tea.View {
	if m.width == 0 {
		return tea.NewView("loading...")
	}

	var panes []string
	for i, p := range m.panes {
		style := blurredPaneStyle
		if i == m.focus {
			style = focusedPaneStyle
		}
		panes = append(panes, style.Render(
			paneTitleStyle.Render(p.title)+"\n"+p.area.View(),
		))
	}

	s := titleStyle.Render("redpen — writing assistant demo")
	s += "\n" + lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	s += "\n" + m.findings.View()
	if m.popup != "" {
		s += "\n" + m.popup
	}
	s += "\n" + statusStyle.Render(m.status)
	s += "\n" + helpStyle.Render(fmt.Sprintf(
		"tab: switch pane · %s: apply suggestion · ctrl+d: add to dictionary · ctrl+g: ignore · esc: quit",
		m.cfg.Hotkey,
	))
	return tea.NewView(s)
}
