package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DocumentLabel is how a context document is presented in place of its file name.
const DocumentLabel = "Context Document"

// Item is a single tracked resource. Derived fields are computed once from
// the resource and kind and are never read from persisted state.
type Item struct {
	resource Resource
	kind     Kind
	name     string
	ext      string
}

func newItem(resource Resource, kind Kind) *Item {
	name := resource.Base()
	if kind == KindDirectory {
		name += "/"
	}
	return &Item{
		resource: resource,
		kind:     kind,
		name:     name,
		ext:      resource.Ext(),
	}
}

func (i *Item) Resource() Resource  { return i.resource }
func (i *Item) Kind() Kind          { return i.kind }
func (i *Item) DisplayName() string { return i.name }
func (i *Item) Extension() string   { return i.ext }

// KindProvider reports the kind of a resource, usually by asking the file system.
type KindProvider func(ctx context.Context, resource Resource) (Kind, error)

// Context is a named group of tracked resources with an optional document.
type Context struct {
	name     string
	sortBy   SortBy
	items    []*Item
	byID     map[Resource]*Item
	document *Item
}

// NewContext creates an empty context ordered by name
func NewContext(name string) *Context {
	return &Context{
		name:   name,
		sortBy: SortByName,
		byID:   make(map[Resource]*Item),
	}
}

func (c *Context) Name() string { return c.name }

// Rename changes the name in place. Callers validate uniqueness first.
func (c *Context) Rename(name string) {
	c.name = name
}

func (c *Context) SortBy() SortBy { return c.sortBy }

func (c *Context) SetSortBy(s SortBy) {
	c.sortBy = s
}

// Len returns the number of plain items, not counting the document.
func (c *Context) Len() int {
	return len(c.items)
}

// Items returns a freshly sorted copy of the context's items.
func (c *Context) Items() []*Item {
	items := make([]*Item, len(c.items))
	copy(items, c.items)

	col := newCollator()
	category := c.sortBy == SortByCategory
	sort.SliceStable(items, func(a, b int) bool {
		x, y := items[a], items[b]
		if category {
			if x.kind != y.kind {
				// Directories first
				return x.kind > y.kind
			}
			if d := compareText(col, x.ext, y.ext); d != 0 {
				return d < 0
			}
		}
		return compareText(col, x.name, y.name) < 0
	})
	return items
}

// Item looks up a plain item by resource identity.
func (c *Context) Item(resource Resource) (*Item, bool) {
	item, ok := c.byID[resource]
	return item, ok
}

// Document returns the context document, if any.
func (c *Context) Document() (*Item, bool) {
	return c.document, c.document != nil
}

// AddDocument binds a description document to the context.
func (c *Context) AddDocument(resource Resource) (*Item, error) {
	if c.document != nil {
		return nil, fmt.Errorf("'%s' already has its context document: %w", c.name, ErrDocumentAlreadyExists)
	}
	c.document = newItem(resource, KindFile)
	return c.document, nil
}

// AddItem inserts an item of a known kind. An already-tracked resource is
// returned unchanged with added == false.
func (c *Context) AddItem(resource Resource, kind Kind) (item *Item, added bool) {
	if existing, ok := c.byID[resource]; ok {
		return existing, false
	}
	item = newItem(resource, kind)
	c.items = append(c.items, item)
	c.byID[resource] = item
	return item, true
}

// GetOrAddItem returns the tracked item for resource, asking kinds for the
// resource kind only when the resource is not yet tracked. A failing
// provider leaves the context untouched.
func (c *Context) GetOrAddItem(ctx context.Context, resource Resource, kinds KindProvider) (*Item, bool, error) {
	if existing, ok := c.byID[resource]; ok {
		return existing, false, nil
	}
	kind, err := kinds(ctx, resource)
	if err != nil {
		return nil, false, fmt.Errorf("query kind of %s: %w", resource, err)
	}
	item, added := c.AddItem(resource, kind)
	return item, added, nil
}

// Rebase points the document and every item at or below from to the same
// place under to, and reports how many were moved. An item whose new
// resource is already tracked is dropped.
func (c *Context) Rebase(from, to Resource) int {
	moved := 0
	if c.document != nil {
		if r, ok := rebased(c.document.resource, from, to); ok {
			c.document = newItem(r, KindFile)
			moved++
		}
	}

	var kept []*Item
	var rebasedItems []*Item
	for _, item := range c.items {
		r, ok := rebased(item.resource, from, to)
		if !ok {
			kept = append(kept, item)
			continue
		}
		delete(c.byID, item.resource)
		rebasedItems = append(rebasedItems, newItem(r, item.kind))
		moved++
	}
	c.items = kept
	for _, item := range rebasedItems {
		if _, ok := c.byID[item.resource]; ok {
			continue
		}
		c.items = append(c.items, item)
		c.byID[item.resource] = item
	}
	return moved
}

func rebased(r, from, to Resource) (Resource, bool) {
	if r == from {
		return to, true
	}
	prefix := string(from) + "/"
	if rest, ok := strings.CutPrefix(string(r), prefix); ok {
		return Resource(string(to) + "/" + rest), true
	}
	return r, false
}

// RemoveItem removes the item's resource from the context.
func (c *Context) RemoveItem(item *Item) bool {
	return c.RemoveItemByResource(item.resource)
}

// RemoveItemByResource drops the matching item and, if the document points
// at the same resource, the document as well.
func (c *Context) RemoveItemByResource(resource Resource) bool {
	removed := false
	if c.document != nil && c.document.resource == resource {
		c.document = nil
		removed = true
	}
	if _, ok := c.byID[resource]; ok {
		delete(c.byID, resource)
		kept := c.items[:0]
		for _, item := range c.items {
			if item.resource != resource {
				kept = append(kept, item)
			}
		}
		for i := len(kept); i < len(c.items); i++ {
			c.items[i] = nil
		}
		c.items = kept
		removed = true
	}
	return removed
}

func newCollator() *collate.Collator {
	return collate.New(language.Und)
}

// compareText orders like a locale-aware string compare and breaks
// collation ties bytewise so the ordering is total.
func compareText(col *collate.Collator, a, b string) int {
	if d := col.CompareString(a, b); d != 0 {
		return d
	}
	return strings.Compare(a, b)
}

// SortContexts orders contexts by name.
func SortContexts(contexts []*Context) []*Context {
	sorted := make([]*Context, len(contexts))
	copy(sorted, contexts)
	col := newCollator()
	sort.SliceStable(sorted, func(a, b int) bool {
		return compareText(col, sorted[a].name, sorted[b].name) < 0
	})
	return sorted
}
