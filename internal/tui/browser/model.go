// Package browser is the interactive context tree behind 'ccs tui'.
package browser

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/grovetools/ccs/internal/tui/browser/components/confirm"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/service"
	"github.com/grovetools/ccs/pkg/tree"
)

// Options configure the browser.
type Options struct {
	Editor string
}

type inputMode int

const (
	inputNone inputMode = iota
	inputNewContext
	inputRename
)

// row is a single line of the rendered tree.
type row struct {
	node       tree.Node
	depth      int
	pres       tree.Presentation
	childCount int
}

// host receives projector notifications on behalf of the model. The model
// is copied on every Update, so shared state lives behind this pointer.
type host struct {
	dirty   bool
	reveals []revealRequest
}

type revealRequest struct {
	node tree.Node
	opts tree.RevealOptions
}

func (h *host) changed(tree.Change) {
	h.dirty = true
}

// Reveal queues node to be selected on the next sync.
func (h *host) Reveal(node tree.Node, opts tree.RevealOptions) error {
	h.reveals = append(h.reveals, revealRequest{node: node, opts: opts})
	return nil
}

// Model is the main model for the context browser
type Model struct {
	ctx       context.Context
	svc       *service.Service
	projector *tree.Projector
	host      *host
	sub       *tree.Subscription
	opener    *service.EditorOpener

	rows         []row
	cursor       int
	scrollOffset int
	collapsed    map[string]bool
	keys         KeyMap
	help         help.Model
	showHelp     bool
	width        int
	height       int

	filterInput textinput.Model
	nameInput   textinput.Model
	mode        inputMode
	renaming    *models.Context

	confirm       confirm.Model
	pendingRemove *tree.Node
	statusMessage string
	statusIsError bool
}

// New builds a browser over svc and attaches it to the service's projector.
// Call Close once the program has exited.
func New(ctx context.Context, svc *service.Service, opts Options) Model {
	filter := textinput.New()
	filter.Placeholder = "filter items..."
	filter.Prompt = "/ "

	name := textinput.New()
	name.CharLimit = 128

	h := &host{}
	p := svc.Projector()
	p.SetRevealer(h)

	m := Model{
		ctx:         ctx,
		svc:         svc,
		projector:   p,
		host:        h,
		sub:         p.Subscribe(h.changed),
		opener:      &service.EditorOpener{Editor: opts.Editor},
		collapsed:   make(map[string]bool),
		keys:        keys,
		help:        help.New(),
		filterInput: filter,
		nameInput:   name,
		confirm:     confirm.New(),
	}
	m.rebuild()
	return m
}

// Close detaches the browser from the projector.
func (m Model) Close() {
	m.sub.Unsubscribe()
	m.projector.SetRevealer(nil)
}

func (m Model) Init() tea.Cmd {
	return nil
}

// selected returns the node under the cursor.
func (m Model) selected() (tree.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tree.Node{}, false
	}
	return m.rows[m.cursor].node, true
}

// selectedContext resolves the cursor to its context, whatever row it is on.
func (m Model) selectedContext() (*models.Context, bool) {
	node, ok := m.selected()
	if !ok {
		return nil, false
	}
	return node.Context, true
}

// sync applies queued projector notifications.
func (m *Model) sync() {
	if m.host.dirty {
		m.host.dirty = false
		m.rebuild()
	}
	reveals := m.host.reveals
	m.host.reveals = nil
	for _, r := range reveals {
		m.reveal(r.node, r.opts)
	}
}

func (m *Model) reveal(node tree.Node, opts tree.RevealOptions) {
	if opts.Expand {
		if parent, ok := m.projector.Parent(node); ok && m.collapsed[parent.ID()] {
			delete(m.collapsed, parent.ID())
			m.rebuild()
		}
	}
	if !opts.Select {
		return
	}
	if i := m.indexOf(node.ID()); i >= 0 {
		m.cursor = i
		m.adjustScroll()
	}
}

func (m Model) indexOf(id string) int {
	for i, r := range m.rows {
		if r.node.ID() == id {
			return i
		}
	}
	return -1
}

// rebuild re-queries the projector and keeps the cursor on the same node
// when it still exists.
func (m *Model) rebuild() {
	var current string
	if node, ok := m.selected(); ok {
		current = node.ID()
	}

	query := strings.TrimSpace(m.filterInput.Value())
	var rows []row
	for _, root := range m.projector.Roots() {
		children := m.projector.Children(&root)
		if query != "" {
			children = filterChildren(root.Context, children, query)
			if len(children) == 0 && len(fuzzy.Find(query, []string{root.Context.Name()})) == 0 {
				continue
			}
		}
		rows = append(rows, row{node: root, pres: tree.Present(root), childCount: len(children)})
		if m.collapsed[root.ID()] && query == "" {
			continue
		}
		for _, child := range children {
			rows = append(rows, row{node: child, depth: 1, pres: tree.Present(child)})
		}
	}
	m.rows = rows

	if i := m.indexOf(current); i >= 0 {
		m.cursor = i
	} else if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustScroll()
}

// filterChildren keeps the children whose item fuzzily matches query, in
// their tree order.
func filterChildren(c *models.Context, children []tree.Node, query string) []tree.Node {
	matched := make(map[*models.Item]bool)
	for _, match := range service.SearchItems(c, query) {
		matched[match.Item] = true
	}
	out := children[:0:0]
	for _, child := range children {
		if matched[child.Item] {
			out = append(out, child)
		}
	}
	return out
}

func (m Model) viewportHeight() int {
	// header, blank line, blank line, footer, status
	h := m.height - 6
	if m.filterInput.Focused() || m.filterInput.Value() != "" || m.mode != inputNone {
		h -= 2
	}
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) adjustScroll() {
	height := m.viewportHeight()
	if m.height == 0 {
		m.scrollOffset = 0
		return
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+height {
		m.scrollOffset = m.cursor - height + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	m.statusMessage = err.Error()
	m.statusIsError = true
}
