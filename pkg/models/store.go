package models

// Store holds the contexts of one workspace, keyed by name.
// It is not safe for concurrent use; a single goroutine owns it.
type Store struct {
	contexts []*Context
}

// NewStore creates a store from already-built contexts. Later contexts
// with a name already present are dropped.
func NewStore(contexts ...*Context) *Store {
	s := &Store{}
	for _, c := range contexts {
		if _, ok := s.FindContext(c.Name()); ok {
			continue
		}
		s.contexts = append(s.contexts, c)
	}
	return s
}

// GetOrCreateContext returns the context with the given name, creating it if needed
func (s *Store) GetOrCreateContext(name string) *Context {
	if c, ok := s.FindContext(name); ok {
		return c
	}
	c := NewContext(name)
	s.contexts = append(s.contexts, c)
	return c
}

// AddContext inserts a context built elsewhere.
func (s *Store) AddContext(c *Context) error {
	if err := s.ValidateNewContextName(c.Name()); err != nil {
		return err
	}
	s.contexts = append(s.contexts, c)
	return nil
}

// ValidateNewContextName returns a *ValidationError if name is empty or taken
func (s *Store) ValidateNewContextName(name string) error {
	if len(name) == 0 {
		return &ValidationError{Reason: EmptyName}
	}
	if _, ok := s.FindContext(name); ok {
		return &ValidationError{Reason: DuplicateName, Name: name}
	}
	return nil
}

// RemoveContext drops the context from the store. Files on disk are untouched.
func (s *Store) RemoveContext(c *Context) bool {
	for i, existing := range s.contexts {
		if existing == c || existing.Name() == c.Name() {
			s.contexts = append(s.contexts[:i], s.contexts[i+1:]...)
			return true
		}
	}
	return false
}

// FindContext looks up a context by exact name
func (s *Store) FindContext(name string) (*Context, bool) {
	for _, c := range s.contexts {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Contexts returns the contexts in insertion order.
func (s *Store) Contexts() []*Context {
	out := make([]*Context, len(s.contexts))
	copy(out, s.contexts)
	return out
}

func (s *Store) Len() int {
	return len(s.contexts)
}

// RemoveResource removes resource from every context and reports how many changed.
func (s *Store) RemoveResource(resource Resource) int {
	changed := 0
	for _, c := range s.contexts {
		if c.RemoveItemByResource(resource) {
			changed++
		}
	}
	return changed
}

// RebaseResources moves every reference at or below from under to, across
// all contexts, and reports the number of moved references.
func (s *Store) RebaseResources(from, to Resource) int {
	moved := 0
	for _, c := range s.contexts {
		moved += c.Rebase(from, to)
	}
	return moved
}

// DocumentOwners returns the contexts whose document lives at or below
// resource.
func (s *Store) DocumentOwners(resource Resource) []*Context {
	var owners []*Context
	for _, c := range s.contexts {
		doc, ok := c.Document()
		if !ok {
			continue
		}
		if _, under := rebased(doc.Resource(), resource, resource); under {
			owners = append(owners, c)
		}
	}
	return owners
}
