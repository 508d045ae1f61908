// Package theme holds the shared terminal styles.
package theme

import "github.com/charmbracelet/lipgloss"

type Colors struct {
	Orange lipgloss.AdaptiveColor
	Green  lipgloss.AdaptiveColor
	Red    lipgloss.AdaptiveColor
	Cyan   lipgloss.AdaptiveColor
	Muted  lipgloss.AdaptiveColor
}

type Theme struct {
	Colors    Colors
	Header    lipgloss.Style
	Info      lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Context   lipgloss.Style
	Document  lipgloss.Style
	Directory lipgloss.Style
}

func newTheme() *Theme {
	colors := Colors{
		Orange: lipgloss.AdaptiveColor{Light: "#d75f00", Dark: "#ffaf5f"},
		Green:  lipgloss.AdaptiveColor{Light: "#008700", Dark: "#87d787"},
		Red:    lipgloss.AdaptiveColor{Light: "#d70000", Dark: "#ff5f5f"},
		Cyan:   lipgloss.AdaptiveColor{Light: "#0087af", Dark: "#5fd7ff"},
		Muted:  lipgloss.AdaptiveColor{Light: "#6c6c6c", Dark: "#8a8a8a"},
	}
	return &Theme{
		Colors:    colors,
		Header:    lipgloss.NewStyle().Bold(true).Foreground(colors.Orange),
		Info:      lipgloss.NewStyle().Foreground(colors.Cyan),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(colors.Orange),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(colors.Green),
		Muted:     lipgloss.NewStyle().Foreground(colors.Muted),
		Error:     lipgloss.NewStyle().Foreground(colors.Red),
		Context:   lipgloss.NewStyle().Bold(true),
		Document:  lipgloss.NewStyle().Italic(true).Foreground(colors.Cyan),
		Directory: lipgloss.NewStyle().Foreground(colors.Green),
	}
}

var DefaultTheme = newTheme()
