package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/ccs/internal/tui/theme"
)

// --- Model ---

// ChoiceModel lets the user pick one of a fixed list of options.
type ChoiceModel struct {
	prompt  string
	options []string
	cursor  int
	done    bool
	ok      bool
	keys    choiceKeyMap
}

// NewChoice creates a picker over options.
func NewChoice(prompt string, options []string) ChoiceModel {
	return ChoiceModel{
		prompt:  prompt,
		options: options,
		keys:    defaultChoiceKeyMap,
	}
}

// Result returns the picked index; ok is false when the picker was dismissed.
func (m ChoiceModel) Result() (int, bool) {
	if !m.ok {
		return 0, false
	}
	return m.cursor, true
}

func (m ChoiceModel) Init() tea.Cmd {
	return nil
}

// --- Update ---

func (m ChoiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Select):
			if len(m.options) == 0 {
				return m, nil
			}
			m.done = true
			m.ok = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Top):
			m.cursor = 0
		case key.Matches(msg, m.keys.Bottom):
			if len(m.options) > 0 {
				m.cursor = len(m.options) - 1
			}
		}
	}

	return m, nil
}

// --- View ---

func (m ChoiceModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.DefaultTheme.Header.Render(m.prompt))
	b.WriteString("\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(theme.DefaultTheme.Highlight.Render("▶ "))
			b.WriteString(theme.DefaultTheme.Selected.Render(opt))
		} else {
			b.WriteString("  ")
			b.WriteString(opt)
		}
		b.WriteString("\n")
	}
	b.WriteString(theme.DefaultTheme.Muted.Render("↑/↓: move • enter: select • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// --- KeyMap ---

type choiceKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Select key.Binding
	Cancel key.Binding
}

var defaultChoiceKeyMap = choiceKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Top: key.NewBinding(
		key.WithKeys("home", "g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("end", "G"),
		key.WithHelp("G", "bottom"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc", "cancel"),
	),
}
