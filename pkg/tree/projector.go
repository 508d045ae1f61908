package tree

import (
	"github.com/grovetools/ccs/pkg/models"
)

// Change is a refresh notification. A nil Node means the whole tree.
type Change struct {
	Node *Node
}

// Full reports whether the change covers the whole tree.
func (c Change) Full() bool {
	return c.Node == nil
}

// Listener receives change notifications in program order.
type Listener func(Change)

// RevealOptions mirror what a host needs to bring a node into view.
type RevealOptions struct {
	Select bool
	Focus  bool
	Expand bool
}

// Revealer is implemented by hosts that can scroll to and select a node.
type Revealer interface {
	Reveal(node Node, opts RevealOptions) error
}

// Projector exposes a store as root -> contexts -> items and owns the
// change channel consumed by the host and by persistence.
type Projector struct {
	store     *models.Store
	listeners []subscriber
	nextID    int
	revealer  Revealer
}

type subscriber struct {
	id int
	fn Listener
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	p  *Projector
	id int
}

// NewProjector creates a projector over store.
func NewProjector(store *models.Store) *Projector {
	return &Projector{store: store}
}

// Store returns the projected store.
func (p *Projector) Store() *models.Store {
	return p.store
}

// Roots returns all contexts ordered by name. The per-context SortBy only
// affects the context's own children.
func (p *Projector) Roots() []Node {
	contexts := models.SortContexts(p.store.Contexts())
	nodes := make([]Node, 0, len(contexts))
	for _, c := range contexts {
		nodes = append(nodes, ContextNode(c))
	}
	return nodes
}

// Children returns the children of node, or the roots when node is nil.
// A context's document is always listed first.
func (p *Projector) Children(node *Node) []Node {
	if node == nil {
		return p.Roots()
	}
	switch node.Kind {
	case KindContext:
		c := node.Context
		items := c.Items()
		nodes := make([]Node, 0, len(items)+1)
		if doc, ok := c.Document(); ok {
			nodes = append(nodes, DocumentNode(c, doc))
		}
		for _, item := range items {
			nodes = append(nodes, ItemNode(c, item))
		}
		return nodes
	case KindItem, KindDocument:
		return nil
	default:
		return nil
	}
}

// Parent resolves items and documents to their context. Contexts have no
// parent.
func (p *Projector) Parent(node Node) (Node, bool) {
	switch node.Kind {
	case KindItem, KindDocument:
		return ContextNode(node.Context), true
	case KindContext:
		return Node{}, false
	default:
		return Node{}, false
	}
}

// Subscribe registers fn for change notifications.
func (p *Projector) Subscribe(fn Listener) *Subscription {
	p.nextID++
	p.listeners = append(p.listeners, subscriber{id: p.nextID, fn: fn})
	return &Subscription{p: p, id: p.nextID}
}

// Unsubscribe stops delivery to the subscription's listener. It is safe to
// call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.p == nil {
		return
	}
	p := s.p
	for i, l := range p.listeners {
		if l.id == s.id {
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			break
		}
	}
	s.p = nil
}

// Refresh notifies every subscriber that node (or the whole tree when nil)
// changed. The host is expected to re-query Children.
func (p *Projector) Refresh(node *Node) {
	change := Change{}
	if node != nil {
		n := *node
		change.Node = &n
	}
	listeners := make([]subscriber, len(p.listeners))
	copy(listeners, p.listeners)
	for _, l := range listeners {
		l.fn(change)
	}
}

// SetRevealer attaches the host's reveal hook.
func (p *Projector) SetRevealer(r Revealer) {
	p.revealer = r
}

// Reveal asks the host to bring node into view. Without a host it is a no-op.
func (p *Projector) Reveal(node Node, opts RevealOptions) error {
	if p.revealer == nil {
		return nil
	}
	return p.revealer.Reveal(node, opts)
}
