// Package tui is the terminal new-tab page: a search field with mode
// preview, the pins row and live suggestions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newtab/config"
	"newtab/dispatch"
	"newtab/omnibox"
	"newtab/settings"
	"newtab/suggest"
	"newtab/theme"
)

// Messages
type (
	updateMsg   dispatch.Update
	snapshotMsg settings.Snapshot
	closedMsg   struct{}
	submitMsg   struct {
		url string
		err error
	}
)

// Options configures the page.
type Options struct {
	Controller *dispatch.Controller
	Snapshot   settings.Snapshot        // initial settings, for the pins row
	Snapshots  <-chan settings.Snapshot // later changes; may be nil
	Theme      *theme.Theme
	Keys       config.Keybindings
}

// Model is the bubbletea model of the page.
type Model struct {
	ctrl      *dispatch.Controller
	snapshots <-chan settings.Snapshot
	keys      config.Keybindings

	theme  *theme.Theme
	styles theme.Styles

	input    textinput.Model
	pins     []settings.Pin
	state    dispatch.Update
	selected int // index into state.Suggestions, -1 for none
	width    int

	// Result of the last submit
	URL string
	Err error
}

// New creates the page model.
func New(opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search or type a URL"
	ti.Prompt = "› "
	ti.Focus()

	th := opts.Theme
	if th == nil {
		th = theme.DefaultDark
	}

	m := &Model{
		ctrl:      opts.Controller,
		snapshots: opts.Snapshots,
		keys:      opts.Keys,
		input:     ti,
		pins:      opts.Snapshot.Pins,
		selected:  -1,
		width:     80,
	}
	m.setTheme(th)
	return m
}

func (m *Model) setTheme(th *theme.Theme) {
	m.theme = th
	m.styles = th.Styles()
	m.input.PromptStyle = m.styles.Prompt
	m.input.PlaceholderStyle = m.styles.Dim
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate(), m.waitForSnapshot())
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.ctrl.Updates()
		if !ok {
			return closedMsg{}
		}
		return updateMsg(u)
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	if m.snapshots == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-m.snapshots
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) submit() tea.Cmd {
	return func() tea.Msg {
		url, err := m.ctrl.Submit(context.Background())
		return submitMsg{url: url, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		return m, nil

	case updateMsg:
		m.state = dispatch.Update(msg)
		if m.selected >= len(m.state.Suggestions) {
			m.selected = -1
		}
		return m, m.waitForUpdate()

	case snapshotMsg:
		m.pins = msg.Pins
		return m, m.waitForSnapshot()

	case closedMsg:
		return m, nil

	case submitMsg:
		m.URL, m.Err = msg.url, msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		if s, ok := m.selectedSuggestion(); ok {
			m.setText(applySuggestion(m.input.Value(), s))
		}
		return m, m.submit()

	case "up":
		if n := len(m.state.Suggestions); n > 0 {
			m.selected--
			if m.selected < -1 {
				m.selected = n - 1
			}
		}
		return m, nil

	case "down":
		if n := len(m.state.Suggestions); n > 0 {
			m.selected++
			if m.selected >= n {
				m.selected = -1
			}
		}
		return m, nil

	case "tab":
		if s, ok := m.selectedSuggestion(); ok {
			m.setText(applySuggestion(m.input.Value(), s))
		} else if len(m.state.Suggestions) > 0 {
			m.setText(applySuggestion(m.input.Value(), m.state.Suggestions[0]))
		}
		return m, nil

	case m.keys.Reset:
		m.input.SetValue("")
		m.selected = -1
		m.ctrl.Reset()
		return m, nil

	case m.keys.ToggleTheme:
		m.setTheme(theme.Toggle(m.theme))
		return m, nil

	case m.keys.NextTheme:
		m.setTheme(theme.Next(m.theme))
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.selected = -1
		m.ctrl.Input(m.input.Value())
	}
	return m, cmd
}

func (m *Model) setText(text string) {
	m.input.SetValue(text)
	m.input.CursorEnd()
	m.selected = -1
	m.ctrl.Input(text)
}

func (m *Model) selectedSuggestion() (suggest.Suggestion, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Suggestions) {
		return suggest.Suggestion{}, false
	}
	return m.state.Suggestions[m.selected], true
}

// applySuggestion returns the field text after choosing s.
func applySuggestion(text string, s suggest.Suggestion) string {
	switch s.Kind {
	case suggest.Link:
		// "//" keeps the link provider's "https:" prefix valid
		return "//" + strings.TrimPrefix(s.URL, "https://")
	case suggest.Reword:
		return s.Content
	case suggest.Completion:
		return text + s.Content
	}
	return text
}

// View renders the page
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderPins())
	b.WriteString("\n\n")

	icon := "  "
	if m.state.Icon != "" {
		icon = m.styles.Icon.Render(m.state.Icon.Glyph()) + " "
	}
	b.WriteString(icon + m.input.View())
	b.WriteString("\n")

	for i, s := range m.state.Suggestions {
		line := m.renderSuggestion(s)
		if i == m.selected {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString("\n  " + line)
	}

	if m.Err != nil {
		b.WriteString("\n\n" + m.styles.Error.Render(m.Err.Error()))
	}

	b.WriteString("\n\n" + m.styles.Dim.Render(fmt.Sprintf(
		"enter open · tab complete · ↑↓ select · %s clear · %s theme · esc quit",
		m.keys.Reset, m.keys.ToggleTheme)))

	return m.styles.Base.Render(b.String())
}

func (m *Model) renderPins() string {
	if len(m.pins) == 0 {
		return m.styles.Dim.Render("no pins")
	}
	parts := make([]string, len(m.pins))
	for i, p := range m.pins {
		host := strings.TrimPrefix(strings.TrimPrefix(p.URL, "https://"), "http://")
		parts[i] = m.styles.PinIndex.Render(fmt.Sprint(i+1)) + " " +
			omnibox.PinIcon(p.Kind).Glyph() + " " +
			m.styles.PinURL.Render(strings.TrimSuffix(host, "/"))
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, "   "))
}

func (m *Model) renderSuggestion(s suggest.Suggestion) string {
	switch s.Kind {
	case suggest.Answer:
		return m.styles.Answer.Width(max(m.width-4, 20)).Render(s.Content)
	case suggest.Link:
		return omnibox.IconLink.Glyph() + " " + m.styles.Link.Render(s.URL)
	case suggest.Reword:
		return "↻ " + m.styles.Reword.Render(s.Content)
	default:
		return "  " + m.styles.Dim.Render(m.input.Value()) + m.styles.Completion.Render(s.Content)
	}
}

// Run starts the program and blocks until the page is closed. It returns
// the URL navigated to, if any.
func Run(opts Options) (string, error) {
	m := New(opts)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return "", err
	}
	return m.URL, m.Err
}
