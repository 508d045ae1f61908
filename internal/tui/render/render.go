// Package render draws the projected context tree for the terminal.
package render

import (
	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/grovetools/ccs/internal/tui/theme"
	"github.com/grovetools/ccs/pkg/tree"
)

// Options control what is drawn.
type Options struct {
	// Paths appends each item's parent directory.
	Paths bool
	// Only restricts output to the named context.
	Only string
}

// Tree renders every context with its document and items, in projection order.
func Tree(p *tree.Projector, opts Options) string {
	root := ltree.New().
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(theme.DefaultTheme.Muted)

	for _, ctxNode := range p.Roots() {
		if opts.Only != "" && ctxNode.Context.Name() != opts.Only {
			continue
		}
		branch := ltree.Root(label(ctxNode, opts)).
			Enumerator(ltree.RoundedEnumerator).
			EnumeratorStyle(theme.DefaultTheme.Muted)
		node := ctxNode
		for _, child := range p.Children(&node) {
			branch.Child(label(child, opts))
		}
		root.Child(branch)
	}
	return root.String()
}

func label(n tree.Node, opts Options) string {
	pres := tree.Present(n)
	t := theme.DefaultTheme

	var text string
	switch n.Kind {
	case tree.KindContext:
		text = t.Context.Render(pres.Label)
	case tree.KindDocument:
		text = t.Document.Render(pres.Label)
	case tree.KindItem:
		if pres.Icon == "folder" {
			text = t.Directory.Render(pres.Label)
		} else {
			text = pres.Label
		}
		if !opts.Paths {
			return text
		}
	default:
		return pres.Label
	}
	if pres.Description == "" {
		return text
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, text, " ", t.Muted.Render(pres.Description))
}
