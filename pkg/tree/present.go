package tree

import (
	"github.com/grovetools/ccs/pkg/models"
)

// Collapsible describes the initial expansion of a node in the host.
type Collapsible int

const (
	CollapsibleNone Collapsible = iota
	CollapsibleCollapsed
	CollapsibleExpanded
)

// Commands bound to leaf nodes.
const (
	CommandOpenItem     = "open-item"
	CommandViewDocument = "view-document"
)

// Presentation is what a host needs to draw a node.
type Presentation struct {
	ID          string
	Label       string
	Description string
	Icon        string
	Collapsible Collapsible
	Command     string
	// Path is the file-system path shown as the node's resource. Documents
	// have none so hosts don't decorate them as plain files.
	Path string
}

// Present binds display attributes to a node.
func Present(n Node) Presentation {
	switch n.Kind {
	case KindContext:
		desc := ""
		if n.Context.SortBy() == models.SortByCategory {
			desc = "by category"
		}
		return Presentation{
			ID:          n.ID(),
			Label:       n.Context.Name(),
			Description: desc,
			Icon:        "context",
			Collapsible: CollapsibleExpanded,
		}
	case KindDocument:
		return Presentation{
			ID:      n.ID(),
			Label:   models.DocumentLabel,
			Icon:    "document",
			Command: CommandViewDocument,
		}
	case KindItem:
		icon := "file"
		if n.Item.Kind() == models.KindDirectory {
			icon = "folder"
		}
		return Presentation{
			ID:          n.ID(),
			Label:       n.Item.DisplayName(),
			Description: n.Item.Resource().Dir().Path(),
			Icon:        icon,
			Command:     CommandOpenItem,
			Path:        n.Item.Resource().Path(),
		}
	default:
		return Presentation{}
	}
}
