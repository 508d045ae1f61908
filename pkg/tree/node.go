package tree

import (
	"github.com/grovetools/ccs/pkg/models"
)

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	KindContext NodeKind = iota + 1
	KindItem
	KindDocument
)

func (k NodeKind) String() string {
	switch k {
	case KindContext:
		return "context"
	case KindItem:
		return "item"
	case KindDocument:
		return "document"
	default:
		return "invalid"
	}
}

// Node is a single entry of the projected tree. It only points at domain
// objects; labels and icons are bound by Present.
type Node struct {
	Kind    NodeKind
	Context *models.Context
	Item    *models.Item // nil for KindContext
}

func ContextNode(c *models.Context) Node {
	return Node{Kind: KindContext, Context: c}
}

func ItemNode(c *models.Context, item *models.Item) Node {
	return Node{Kind: KindItem, Context: c, Item: item}
}

func DocumentNode(c *models.Context, doc *models.Item) Node {
	return Node{Kind: KindDocument, Context: c, Item: doc}
}

// ID is the display identity the host uses to keep expansion and selection
// across refreshes. Contexts are identified by name, so renaming a context
// gives it a new identity.
func (n Node) ID() string {
	switch n.Kind {
	case KindContext:
		return "ctx:" + n.Context.Name()
	case KindItem:
		return "item:" + n.Context.Name() + "/" + n.Item.Resource().String()
	case KindDocument:
		return "doc:" + n.Context.Name()
	default:
		return ""
	}
}
