package prompt

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/ccs/internal/tui/theme"
)

// --- Model ---

// NameModel asks for a single line of text and validates it as the user
// types. Enter only submits a valid value.
type NameModel struct {
	prompt   string
	input    textinput.Model
	validate func(string) error
	err      error
	done     bool
	ok       bool
	keys     nameKeyMap
}

// NewName creates a name prompt prefilled with initial.
func NewName(prompt, initial string, validate func(string) error) NameModel {
	input := textinput.New()
	input.Placeholder = "New context name"
	input.CharLimit = 256
	input.SetValue(initial)
	input.Focus()

	return NameModel{
		prompt:   prompt,
		input:    input,
		validate: validate,
		keys:     defaultNameKeyMap,
	}
}

// Result returns the submitted value; ok is false when the prompt was dismissed.
func (m NameModel) Result() (string, bool) {
	if !m.ok {
		return "", false
	}
	return m.input.Value(), true
}

// Err is the current validation error, if any.
func (m NameModel) Err() error {
	return m.err
}

func (m NameModel) Init() tea.Cmd {
	return textinput.Blink
}

// --- Update ---

func (m NameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			m.err = m.check()
			if m.err != nil {
				return m, nil
			}
			m.done = true
			m.ok = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.err = m.check()
	}
	return m, cmd
}

func (m NameModel) check() error {
	if m.validate == nil {
		return nil
	}
	return m.validate(m.input.Value())
}

// --- View ---

func (m NameModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.DefaultTheme.Header.Render(m.prompt))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(theme.DefaultTheme.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(theme.DefaultTheme.Muted.Render("enter: confirm • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// --- KeyMap ---

type nameKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

var defaultNameKeyMap = nameKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}
