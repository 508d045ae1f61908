// Package confirm is a yes/no dialog for destructive browser actions.
package confirm

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/ccs/internal/tui/theme"
)

// --- Messages ---

// ConfirmedMsg is sent when the user accepts the action tagged Tag.
type ConfirmedMsg struct {
	Tag string
}

// CancelledMsg is sent when the user declines the action tagged Tag.
type CancelledMsg struct {
	Tag string
}

// --- Model ---

type Model struct {
	Active bool
	Prompt string
	Detail string
	tag    string
	keys   keyMap
}

func New() Model {
	return Model{keys: defaultKeyMap}
}

// Activate shows the dialog. The tag comes back on the resulting message so
// the caller can tell which action was answered.
func (m *Model) Activate(tag, prompt, detail string) {
	m.tag = tag
	m.Prompt = prompt
	m.Detail = detail
	m.Active = true
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.Active {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	tag := m.tag
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.Active = false
		return m, func() tea.Msg { return ConfirmedMsg{Tag: tag} }
	case key.Matches(keyMsg, m.keys.Cancel):
		m.Active = false
		return m, func() tea.Msg { return CancelledMsg{Tag: tag} }
	}
	return m, nil
}

// --- View ---

func (m Model) View() string {
	if !m.Active {
		return ""
	}

	body := m.Prompt
	if m.Detail != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, m.Prompt, "", theme.DefaultTheme.Muted.Render(m.Detail))
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultTheme.Colors.Red).
		Padding(1, 2).
		Render(body)

	hint := theme.DefaultTheme.Muted.
		Width(lipgloss.Width(box)).
		Align(lipgloss.Center).
		Render("(y/n)")

	return lipgloss.JoinVertical(lipgloss.Left, box, hint)
}

// --- KeyMap ---

type keyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

var defaultKeyMap = keyMap{
	Confirm: key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("n", "N", "esc"),
		key.WithHelp("n/esc", "cancel"),
	),
}
