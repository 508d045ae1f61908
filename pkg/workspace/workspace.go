package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Type represents the type of workspace
type Type string

const (
	TypeGitRepo   Type = "git-repo"
	TypeDirectory Type = "directory"
)

// Workspace is a directory whose contexts are stored under it.
type Workspace struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// Detect finds the workspace containing start: the nearest enclosing git
// repository, or start itself.
func Detect(start string) (*Workspace, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", start, err)
	}
	if root := findGitRoot(abs); root != "" {
		return &Workspace{Name: filepath.Base(root), Path: root, Type: TypeGitRepo}, nil
	}
	return &Workspace{Name: filepath.Base(abs), Path: abs, Type: TypeDirectory}, nil
}

// At describes the workspace rooted exactly at path.
func At(path string) *Workspace {
	w := &Workspace{Name: filepath.Base(path), Path: path, Type: TypeDirectory}
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		w.Type = TypeGitRepo
	}
	return w
}

// Exists reports whether the workspace directory is still there.
func (w *Workspace) Exists() bool {
	info, err := os.Stat(w.Path)
	return err == nil && info.IsDir()
}

// Contains reports whether path lies inside the workspace.
func (w *Workspace) Contains(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.Path, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Validate checks if the workspace configuration is valid
func (w *Workspace) Validate() error {
	if w.Path == "" {
		return fmt.Errorf("workspace path cannot be empty")
	}

	// Expand home directory
	if strings.HasPrefix(w.Path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		w.Path = filepath.Join(home, w.Path[1:])
	}
	if !filepath.IsAbs(w.Path) {
		return fmt.Errorf("workspace path must be absolute: %s", w.Path)
	}
	w.Path = filepath.Clean(w.Path)

	if w.Name == "" {
		w.Name = filepath.Base(w.Path)
	}
	if w.Type == "" {
		w.Type = TypeDirectory
	}
	return nil
}

// findGitRoot finds the root of a git repository
func findGitRoot(path string) string {
	current := path
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ""
}
