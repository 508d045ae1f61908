package service

import (
	"context"
	"fmt"

	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/tree"
)

// Outcome is the result of an interactive workflow: a value, or a
// cancellation that happened before anything was changed.
type Outcome[T any] struct {
	Value     T
	Cancelled bool
}

func done[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func cancelled[T any]() Outcome[T] {
	return Outcome[T]{Cancelled: true}
}

// Validator checks a candidate name and returns a message-bearing error
// when it is unacceptable.
type Validator func(string) error

// Prompter collects input from the user. Both methods report ok == false
// when the user dismissed the prompt.
type Prompter interface {
	PromptForName(ctx context.Context, prompt, initial string, validate Validator) (name string, ok bool, err error)
	PromptForChoice(ctx context.Context, prompt string, options []string) (index int, ok bool, err error)
}

const (
	newContextPrompt = "Please enter a name for your new context"
	renamePrompt     = "Please enter a new name for the context"
	chooseTarget     = "To which context shall the item be added?"
	chooseSearch     = "Which context shall be searched?"
	createNewChoice  = "Create New Context"
)

func (s *Service) promptName(ctx context.Context, prompt, initial string, validate Validator) (string, bool, error) {
	if s.prompter == nil {
		return "", false, ErrNoPrompter
	}
	name, ok, err := s.prompter.PromptForName(ctx, prompt, initial, validate)
	if err != nil {
		return "", false, fmt.Errorf("prompt for name: %w", err)
	}
	return name, ok, nil
}

func (s *Service) promptChoice(ctx context.Context, prompt string, options []string) (int, bool, error) {
	if s.prompter == nil {
		return 0, false, ErrNoPrompter
	}
	i, ok, err := s.prompter.PromptForChoice(ctx, prompt, options)
	if err != nil {
		return 0, false, fmt.Errorf("prompt for choice: %w", err)
	}
	if ok && (i < 0 || i >= len(options)) {
		return 0, false, fmt.Errorf("prompt for choice: selection %d out of range", i)
	}
	return i, ok, nil
}

// CreateContext creates a context with a known name and reveals it.
func (s *Service) CreateContext(ctx context.Context, name string) (*models.Context, error) {
	if err := s.store.ValidateNewContextName(name); err != nil {
		return nil, err
	}
	c := s.store.GetOrCreateContext(name)
	if err := s.commit(nil); err != nil {
		return c, err
	}
	s.reveal(tree.ContextNode(c))
	s.logger.WithField("context", name).Info("Created context")
	return c, nil
}

// CreateNewContext asks for a name and creates the context.
func (s *Service) CreateNewContext(ctx context.Context) (Outcome[*models.Context], error) {
	name, ok, err := s.promptName(ctx, newContextPrompt, "", s.store.ValidateNewContextName)
	if err != nil || !ok {
		return cancelled[*models.Context](), err
	}
	c, err := s.CreateContext(ctx, name)
	if err != nil {
		return cancelled[*models.Context](), err
	}
	return done(c), nil
}

// RenameContext asks for a new name, prefilled with the current one.
// Keeping the current name changes nothing.
func (s *Service) RenameContext(ctx context.Context, c *models.Context) (Outcome[string], error) {
	current := c.Name()
	validate := func(name string) error {
		if name == current {
			return nil
		}
		return s.store.ValidateNewContextName(name)
	}
	name, ok, err := s.promptName(ctx, renamePrompt, current, validate)
	if err != nil || !ok {
		return cancelled[string](), err
	}
	if err := s.renameTo(ctx, c, name); err != nil {
		return cancelled[string](), err
	}
	return done(name), nil
}

// RenameContextTo renames without prompting.
func (s *Service) RenameContextTo(ctx context.Context, c *models.Context, name string) error {
	if name != c.Name() {
		if err := s.store.ValidateNewContextName(name); err != nil {
			return err
		}
	}
	return s.renameTo(ctx, c, name)
}

func (s *Service) renameTo(ctx context.Context, c *models.Context, name string) error {
	old := c.Name()
	if name == old {
		return nil
	}
	if s.ownsContextDir(c, s.storage.ContextDir(old)) {
		from, to, moved, err := s.storage.MoveContextDir(ctx, old, name)
		if err != nil {
			s.logger.WithError(err).WithField("context", old).Warn("Failed to move context directory")
		}
		if moved {
			s.store.RebaseResources(from, to)
		}
	}
	c.Rename(name)
	if doc, ok := c.Document(); ok {
		if err := s.storage.RenameContextDocument(ctx, doc.Resource(), old, name); err != nil {
			s.logger.WithError(err).WithField("context", name).Warn("Failed to update context document")
		}
	}
	// The node identity is the name, so the whole tree is refreshed.
	if err := s.commit(nil); err != nil {
		return err
	}
	s.logger.WithField("from", old).WithField("to", name).Info("Renamed context")
	return nil
}

// RemoveContext drops a context. With deleteFiles the directory holding its
// document is deleted first; a failed delete leaves the store as is.
func (s *Service) RemoveContext(ctx context.Context, c *models.Context, deleteFiles bool) error {
	if deleteFiles {
		dir := s.contextDir(c)
		if !s.ownsContextDir(c, dir) {
			return fmt.Errorf("'%s' shares %s with another context", c.Name(), dir.Path())
		}
		if err := s.storage.DeleteContextDir(ctx, dir); err != nil {
			return err
		}
	}
	if !s.store.RemoveContext(c) {
		return fmt.Errorf("context '%s' not found", c.Name())
	}
	return s.commit(nil)
}

// EnsureContextDocument creates and attaches the context's document on
// first use and returns it.
func (s *Service) EnsureContextDocument(ctx context.Context, c *models.Context) (*models.Item, error) {
	if doc, ok := c.Document(); ok {
		return doc, nil
	}
	if !s.ownsContextDir(c, s.storage.ContextDir(c.Name())) {
		return nil, fmt.Errorf("'%s' shares %s with another context", c.Name(), s.storage.ContextDir(c.Name()).Path())
	}
	res, err := s.storage.CreateContextDocument(ctx, c.Name())
	if err != nil {
		return nil, err
	}
	doc, err := c.AddDocument(res)
	if err != nil {
		return nil, err
	}
	node := tree.ContextNode(c)
	return doc, s.commit(&node)
}

// contextDir is the directory of the document c holds, or the directory its
// name maps to when it has none under the store directory.
func (s *Service) contextDir(c *models.Context) models.Resource {
	if doc, ok := c.Document(); ok {
		dir := doc.Resource().Dir()
		if dir.Dir() == s.storage.Dir() {
			return dir
		}
	}
	return s.storage.ContextDir(c.Name())
}

// ownsContextDir reports whether no other context keeps its document in dir.
func (s *Service) ownsContextDir(c *models.Context, dir models.Resource) bool {
	for _, owner := range s.store.DocumentOwners(dir) {
		if owner != c {
			return false
		}
	}
	return true
}

// ViewContextDocument ensures the context has a document and opens it.
func (s *Service) ViewContextDocument(ctx context.Context, c *models.Context) (*models.Item, error) {
	doc, err := s.EnsureContextDocument(ctx, c)
	if err != nil {
		return doc, err
	}
	if err := s.opener.Open(ctx, doc.Resource().Path()); err != nil {
		return doc, fmt.Errorf("open context document: %w", err)
	}
	return doc, nil
}

// SetSortBy changes how a context orders its items.
func (s *Service) SetSortBy(ctx context.Context, c *models.Context, sortBy models.SortBy) error {
	if !sortBy.Valid() {
		return fmt.Errorf("invalid sort order %d", sortBy)
	}
	if c.SortBy() == sortBy {
		return nil
	}
	c.SetSortBy(sortBy)
	node := tree.ContextNode(c)
	return s.commit(&node)
}
