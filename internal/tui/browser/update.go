package browser

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/ccs/internal/tui/browser/components/confirm"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/tree"
)

const removeTag = "remove"

type editorFinishedMsg struct {
	err error
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.adjustScroll()
		return m, nil

	case editorFinishedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("editor: %w", msg.err))
		}
		return m, nil

	case confirm.ConfirmedMsg:
		if msg.Tag == removeTag && m.pendingRemove != nil {
			node := *m.pendingRemove
			m.pendingRemove = nil
			m.remove(node)
		}
		return m, nil

	case confirm.CancelledMsg:
		m.pendingRemove = nil
		m.setStatus("")
		return m, nil

	case tea.KeyMsg:
		if m.confirm.Active {
			var cmd tea.Cmd
			m.confirm, cmd = m.confirm.Update(msg)
			return m, cmd
		}
		if m.mode != inputNone {
			return m.updateNameInput(msg)
		}
		if m.filterInput.Focused() {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Back):
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.rebuild()
		}
		m.setStatus("")
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-max(m.viewportHeight()/2, 1))
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(max(m.viewportHeight()/2, 1))
	case key.Matches(msg, m.keys.GoToTop):
		m.moveCursor(-len(m.rows))
	case key.Matches(msg, m.keys.GoToBottom):
		m.moveCursor(len(m.rows))
	case key.Matches(msg, m.keys.Open):
		return m.open()
	case key.Matches(msg, m.keys.Fold):
		m.toggleFold()
	case key.Matches(msg, m.keys.Search):
		m.setStatus("")
		cmd := m.filterInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.New):
		return m.startInput(inputNewContext, nil)
	case key.Matches(msg, m.keys.Rename):
		if c, ok := m.selectedContext(); ok {
			return m.startInput(inputRename, c)
		}
	case key.Matches(msg, m.keys.Document):
		return m.openDocument()
	case key.Matches(msg, m.keys.Remove):
		m.askRemove()
	case key.Matches(msg, m.keys.Sort):
		m.toggleSort()
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
	m.adjustScroll()
}

func (m *Model) toggleFold() {
	node, ok := m.selected()
	if !ok {
		return
	}
	ctxNode := tree.ContextNode(node.Context)
	id := ctxNode.ID()
	if m.collapsed[id] {
		delete(m.collapsed, id)
	} else {
		m.collapsed[id] = true
	}
	// Folding from a child moves the cursor onto its context.
	m.rebuild()
	if i := m.indexOf(id); i >= 0 && node.Kind != tree.KindContext {
		m.cursor = i
		m.adjustScroll()
	}
}

func (m Model) open() (tea.Model, tea.Cmd) {
	node, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch node.Kind {
	case tree.KindContext:
		m.toggleFold()
		return m, nil
	case tree.KindItem, tree.KindDocument:
		return m, m.edit(node.Item.Resource().Path())
	default:
		return m, nil
	}
}

func (m Model) openDocument() (tea.Model, tea.Cmd) {
	c, ok := m.selectedContext()
	if !ok {
		return m, nil
	}
	doc, err := m.svc.EnsureContextDocument(m.ctx, c)
	m.sync()
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.reveal(tree.DocumentNode(c, doc), tree.RevealOptions{Select: true, Expand: true})
	return m, m.edit(doc.Resource().Path())
}

// edit suspends the program while the editor owns the terminal.
func (m Model) edit(path string) tea.Cmd {
	return tea.ExecProcess(m.opener.Command(m.ctx, path), func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m *Model) askRemove() {
	node, ok := m.selected()
	if !ok {
		return
	}
	var prompt string
	detail := ""
	switch node.Kind {
	case tree.KindContext:
		prompt = fmt.Sprintf("Remove context '%s'?", node.Context.Name())
		detail = "Tracked files are not deleted."
	case tree.KindDocument:
		prompt = fmt.Sprintf("Detach the document of '%s'?", node.Context.Name())
		detail = "The document file is kept."
	case tree.KindItem:
		prompt = fmt.Sprintf("Remove %s from '%s'?", node.Item.DisplayName(), node.Context.Name())
	default:
		return
	}
	m.pendingRemove = &node
	m.confirm.Activate(removeTag, prompt, detail)
}

func (m *Model) remove(node tree.Node) {
	var err error
	switch node.Kind {
	case tree.KindContext:
		err = m.svc.RemoveContext(m.ctx, node.Context, false)
	case tree.KindItem, tree.KindDocument:
		err = m.svc.RemoveItemFromContext(m.ctx, node)
	}
	m.sync()
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Removed " + tree.Present(node).Label)
}

func (m *Model) toggleSort() {
	c, ok := m.selectedContext()
	if !ok {
		return
	}
	next := models.SortByCategory
	if c.SortBy() == models.SortByCategory {
		next = models.SortByName
	}
	err := m.svc.SetSortBy(m.ctx, c, next)
	m.sync()
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("'%s' sorted by %s", c.Name(), next))
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.rebuild()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.rebuild()
	return m, cmd
}

func (m Model) startInput(mode inputMode, c *models.Context) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.renaming = c
	m.setStatus("")
	if c != nil {
		m.nameInput.SetValue(c.Name())
		m.nameInput.CursorEnd()
	} else {
		m.nameInput.SetValue("")
	}
	cmd := m.nameInput.Focus()
	return m, cmd
}

func (m Model) validateName(name string) error {
	if m.mode == inputRename && m.renaming != nil && name == m.renaming.Name() {
		return nil
	}
	return m.svc.Store().ValidateNewContextName(name)
}

func (m Model) updateNameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.endInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		name := m.nameInput.Value()
		if err := m.validateName(name); err != nil {
			m.setError(err)
			return m, nil
		}
		mode, target := m.mode, m.renaming
		m.endInput()
		m.applyName(mode, target, name)
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	if err := m.validateName(m.nameInput.Value()); err != nil {
		m.setError(err)
	} else {
		m.setStatus("")
	}
	return m, cmd
}

func (m *Model) endInput() {
	m.mode = inputNone
	m.renaming = nil
	m.nameInput.Blur()
	m.setStatus("")
}

func (m *Model) applyName(mode inputMode, target *models.Context, name string) {
	var err error
	switch mode {
	case inputNewContext:
		_, err = m.svc.CreateContext(m.ctx, name)
	case inputRename:
		if target == nil {
			err = errors.New("no context selected")
			break
		}
		err = m.svc.RenameContextTo(m.ctx, target, name)
		if err == nil {
			m.sync()
			m.reveal(tree.ContextNode(target), tree.RevealOptions{Select: true})
		}
	}
	m.sync()
	if err != nil {
		m.setError(err)
	}
}
