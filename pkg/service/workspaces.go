package service

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/grovetools/ccs/pkg/workspace"
)

// Workspaces lists every workspace contexts were used in, most recent first.
func (s *Service) Workspaces() ([]*workspace.Workspace, error) {
	if s.registry == nil {
		return nil, errors.New("workspace registry is disabled")
	}
	return s.registry.List()
}

// ForgetWorkspace drops a workspace from the registry and the search index.
// Its stored contexts are left alone.
func (s *Service) ForgetWorkspace(path string) error {
	if s.registry == nil {
		return errors.New("workspace registry is disabled")
	}
	path = filepath.Clean(path)
	if err := s.registry.Remove(path); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}
	if s.index != nil {
		if err := s.index.RemoveWorkspace(path); err != nil {
			return fmt.Errorf("remove workspace from index: %w", err)
		}
	}
	return nil
}

// PruneWorkspaces forgets registered workspaces whose directory is gone and
// returns them.
func (s *Service) PruneWorkspaces() ([]*workspace.Workspace, error) {
	workspaces, err := s.Workspaces()
	if err != nil {
		return nil, err
	}
	var pruned []*workspace.Workspace
	for _, w := range workspaces {
		if w.Exists() {
			continue
		}
		if err := s.ForgetWorkspace(w.Path); err != nil {
			return pruned, err
		}
		pruned = append(pruned, w)
	}
	return pruned, nil
}
