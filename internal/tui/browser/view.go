package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/ccs/internal/tui/theme"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/tree"
)

func (m Model) View() string {
	if m.showHelp {
		return "\n" + m.help.FullHelpView(m.keys.FullHelp())
	}

	header := theme.DefaultTheme.Header.Render("Contexts")
	if ws := m.svc.Workspace(); ws != nil {
		header += "  " + theme.DefaultTheme.Muted.Render(shortenPath(ws.Path))
	}

	var body string
	if m.confirm.Active {
		body = m.confirm.View()
	} else {
		body = m.renderTree()
	}

	parts := []string{header, ""}
	if input := m.renderInput(); input != "" {
		parts = append(parts, input, "")
	}
	parts = append(parts, body, "", m.renderStatus(), m.help.ShortHelpView(m.keys.ShortHelp()))

	// Top margin keeps the header clear of the terminal edge.
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderInput() string {
	switch m.mode {
	case inputNewContext:
		return theme.DefaultTheme.Info.Render("New context name: ") + m.nameInput.View()
	case inputRename:
		return theme.DefaultTheme.Info.Render("Rename context: ") + m.nameInput.View()
	}
	if m.filterInput.Focused() || m.filterInput.Value() != "" {
		return m.filterInput.View()
	}
	return ""
}

func (m Model) renderStatus() string {
	if m.statusMessage == "" {
		return ""
	}
	if m.statusIsError {
		return theme.DefaultTheme.Error.Render(m.statusMessage)
	}
	return theme.DefaultTheme.Info.Render(m.statusMessage)
}

func (m Model) renderTree() string {
	if len(m.rows) == 0 {
		if m.filterInput.Value() != "" {
			return theme.DefaultTheme.Muted.Render("No matching items.")
		}
		return theme.DefaultTheme.Muted.Render("No contexts yet. Press n to create one.")
	}

	start := m.scrollOffset
	end := len(m.rows)
	if m.height > 0 {
		end = min(start+m.viewportHeight(), len(m.rows))
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if end-start < len(m.rows) {
		b.WriteString("\n")
		b.WriteString(theme.DefaultTheme.Muted.Render(fmt.Sprintf(" (%d-%d of %d)", start+1, end, len(m.rows))))
	}
	return b.String()
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	cursor := "  "
	if i == m.cursor {
		cursor = theme.DefaultTheme.Highlight.Render("▶ ")
	}
	indent := strings.Repeat("  ", r.depth)

	var label string
	switch r.node.Kind {
	case tree.KindContext:
		fold := "▼ "
		if m.collapsed[r.node.ID()] && m.filterInput.Value() == "" {
			fold = "▶ "
		}
		label = fold + theme.DefaultTheme.Context.Render(r.pres.Label)
		label += theme.DefaultTheme.Muted.Render(fmt.Sprintf(" (%d)", r.childCount))
		if r.pres.Description != "" {
			label += theme.DefaultTheme.Muted.Render("  " + r.pres.Description)
		}
	case tree.KindDocument:
		label = "≡ " + theme.DefaultTheme.Document.Render(r.pres.Label)
	case tree.KindItem:
		if r.node.Item.Kind() == models.KindDirectory {
			label = "▸ " + theme.DefaultTheme.Directory.Render(r.pres.Label)
		} else {
			label = "· " + r.pres.Label
		}
		if r.pres.Description != "" {
			label += "  " + theme.DefaultTheme.Muted.Render(shortenPath(r.pres.Description))
		}
	}

	line := cursor + indent + label
	if i == m.cursor {
		line = lipgloss.NewStyle().Bold(true).Render(line)
	}
	return line
}
