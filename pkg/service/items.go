package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/search"
	"github.com/grovetools/ccs/pkg/tree"
)

// AddResult reports where a resource ended up.
type AddResult struct {
	Context *models.Context
	Item    *models.Item
	Added   bool
	Created bool // the context did not exist before
}

func (s *Service) kindOf(ctx context.Context, resource models.Resource) (models.Kind, error) {
	return s.fs.Stat(ctx, resource)
}

// AddItem adds resource to the named context, creating the context when
// needed. Nothing is created if the resource's kind cannot be determined.
func (s *Service) AddItem(ctx context.Context, name string, resource models.Resource) (AddResult, error) {
	if c, ok := s.store.FindContext(name); ok {
		return s.addToExisting(ctx, c, resource)
	}
	return s.addToNew(ctx, name, resource)
}

// AddItemToContext asks which context should receive resource, offering to
// create a new one, then adds it.
func (s *Service) AddItemToContext(ctx context.Context, resource models.Resource) (Outcome[AddResult], error) {
	contexts := s.Contexts()
	options := make([]string, 0, len(contexts)+1)
	options = append(options, createNewChoice)
	for _, c := range contexts {
		options = append(options, c.Name())
	}

	choice, ok, err := s.promptChoice(ctx, chooseTarget, options)
	if err != nil || !ok {
		return cancelled[AddResult](), err
	}

	var result AddResult
	if choice == 0 {
		name, ok, err := s.promptName(ctx, newContextPrompt, "", s.store.ValidateNewContextName)
		if err != nil || !ok {
			return cancelled[AddResult](), err
		}
		result, err = s.addToNew(ctx, name, resource)
		if err != nil {
			return cancelled[AddResult](), err
		}
	} else {
		result, err = s.addToExisting(ctx, contexts[choice-1], resource)
		if err != nil {
			return cancelled[AddResult](), err
		}
	}
	return done(result), nil
}

func (s *Service) addToExisting(ctx context.Context, c *models.Context, resource models.Resource) (AddResult, error) {
	item, added, err := c.GetOrAddItem(ctx, resource, s.kindOf)
	if err != nil {
		return AddResult{}, err
	}
	result := AddResult{Context: c, Item: item, Added: added}
	if added {
		node := tree.ContextNode(c)
		if err := s.commit(&node); err != nil {
			return result, err
		}
	}
	s.reveal(tree.ItemNode(c, item))
	return result, nil
}

// addToNew builds the context detached from the store and only inserts it
// once the item is in place.
func (s *Service) addToNew(ctx context.Context, name string, resource models.Resource) (AddResult, error) {
	if err := s.store.ValidateNewContextName(name); err != nil {
		return AddResult{}, err
	}
	c := models.NewContext(name)
	item, added, err := c.GetOrAddItem(ctx, resource, s.kindOf)
	if err != nil {
		return AddResult{}, err
	}
	if err := s.store.AddContext(c); err != nil {
		return AddResult{}, err
	}
	result := AddResult{Context: c, Item: item, Added: added, Created: true}
	if err := s.commit(nil); err != nil {
		return result, err
	}
	s.reveal(tree.ItemNode(c, item))
	s.logger.WithField("context", name).Info("Created context")
	return result, nil
}

// RemoveItemFromContext removes an item or detaches a context document.
// Files on disk are left alone.
func (s *Service) RemoveItemFromContext(ctx context.Context, node tree.Node) error {
	switch node.Kind {
	case tree.KindItem, tree.KindDocument:
		if !node.Context.RemoveItem(node.Item) {
			return fmt.Errorf("%s is not in context '%s'", node.Item.DisplayName(), node.Context.Name())
		}
		parent := tree.ContextNode(node.Context)
		return s.commit(&parent)
	case tree.KindContext:
		return errors.New("cannot remove a context as an item")
	default:
		return fmt.Errorf("unknown node kind %v", node.Kind)
	}
}

// OpenItem opens the file behind an item or document.
func (s *Service) OpenItem(ctx context.Context, node tree.Node) error {
	switch node.Kind {
	case tree.KindItem, tree.KindDocument:
		return s.opener.Open(ctx, node.Item.Resource().Path())
	case tree.KindContext:
		return errors.New("a context cannot be opened")
	default:
		return fmt.Errorf("unknown node kind %v", node.Kind)
	}
}

// SearchContext asks for a context and fuzzy-matches query against its
// document and items.
func (s *Service) SearchContext(ctx context.Context, query string) (Outcome[[]search.Match], error) {
	contexts := s.Contexts()
	if len(contexts) == 0 {
		return cancelled[[]search.Match](), errors.New("no contexts to search")
	}
	names := make([]string, 0, len(contexts))
	for _, c := range contexts {
		names = append(names, c.Name())
	}
	choice, ok, err := s.promptChoice(ctx, chooseSearch, names)
	if err != nil || !ok {
		return cancelled[[]search.Match](), err
	}
	return done(SearchItems(contexts[choice], query)), nil
}

// SearchItems fuzzy-matches query against one context, document first.
func SearchItems(c *models.Context, query string) []search.Match {
	items := c.Items()
	if doc, ok := c.Document(); ok {
		items = append([]*models.Item{doc}, items...)
	}
	return search.MatchItems(query, items)
}

// SearchIndex queries the cross-workspace index.
func (s *Service) SearchIndex(query string, opts *search.Options) ([]search.Entry, error) {
	if s.index == nil {
		return nil, errors.New("search index is disabled")
	}
	return s.index.Search(query, opts)
}

// HandleResourceDeleted prunes a deleted resource (and, for directories,
// its tracked descendants) from every context.
func (s *Service) HandleResourceDeleted(ctx context.Context, resource models.Resource) (int, error) {
	n, err := s.cascade.Remove(ctx, resource)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	s.logger.WithField("resource", resource.Path()).WithField("removed", n).Info("Pruned deleted resource")
	return n, s.commit(nil)
}

// PruneIfGone prunes resource like HandleResourceDeleted, but only if it is
// still missing. File-system notifications can arrive after the path was
// recreated.
func (s *Service) PruneIfGone(ctx context.Context, resource models.Resource) (int, error) {
	if _, err := s.fs.Stat(ctx, resource); err == nil {
		s.logger.WithField("resource", resource.Path()).Debug("Resource exists again, not pruning")
		return 0, nil
	} else if !errors.Is(err, fsys.ErrNotFound) {
		return 0, fmt.Errorf("check deleted resource: %w", err)
	}
	return s.HandleResourceDeleted(ctx, resource)
}

// TrackedResources lists every item and document resource once.
func (s *Service) TrackedResources() []models.Resource {
	seen := make(map[models.Resource]bool)
	var out []models.Resource
	add := func(r models.Resource) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, c := range s.store.Contexts() {
		if doc, ok := c.Document(); ok {
			add(doc.Resource())
		}
		for _, item := range c.Items() {
			add(item.Resource())
		}
	}
	return out
}

// Node locates resource within c, preferring the document.
func Node(c *models.Context, resource models.Resource) (tree.Node, bool) {
	if doc, ok := c.Document(); ok && doc.Resource() == resource {
		return tree.DocumentNode(c, doc), true
	}
	if item, ok := c.Item(resource); ok {
		return tree.ItemNode(c, item), true
	}
	return tree.Node{}, false
}
