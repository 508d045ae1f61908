package workspace

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Registry remembers every workspace contexts were used in.
type Registry struct {
	db      *sql.DB
	dataDir string
}

// NewRegistry creates a new workspace registry
func NewRegistry(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "workspaces.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	r := &Registry{
		db:      db,
		dataDir: dataDir,
	}

	if err := r.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize registry: %w", err)
	}

	return r, nil
}

// init creates the database schema
func (r *Registry) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		path TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_workspaces_last_used ON workspaces(last_used);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Touch registers w, or marks an already registered workspace as used now.
func (r *Registry) Touch(w *Workspace) error {
	if err := w.Validate(); err != nil {
		return fmt.Errorf("validate workspace: %w", err)
	}

	query := `
	INSERT INTO workspaces (path, name, type, created_at, last_used)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		type = excluded.type,
		last_used = excluded.last_used
	`

	now := time.Now()
	_, err := r.db.Exec(query, w.Path, w.Name, string(w.Type), now, now)
	return err
}

// Get retrieves a workspace by path
func (r *Registry) Get(path string) (*Workspace, error) {
	query := `
	SELECT path, name, type, created_at, last_used
	FROM workspaces WHERE path = ?
	`

	w := &Workspace{}
	var typ string
	err := r.db.QueryRow(query, filepath.Clean(path)).Scan(&w.Path, &w.Name, &typ, &w.CreatedAt, &w.LastUsed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workspace not found: %s", path)
	}
	if err != nil {
		return nil, err
	}
	w.Type = Type(typ)
	return w, nil
}

// List returns all registered workspaces, most recently used first
func (r *Registry) List() ([]*Workspace, error) {
	query := `
	SELECT path, name, type, created_at, last_used
	FROM workspaces ORDER BY last_used DESC, path
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		w := &Workspace{}
		var typ string
		if err := rows.Scan(&w.Path, &w.Name, &typ, &w.CreatedAt, &w.LastUsed); err != nil {
			return nil, err
		}
		w.Type = Type(typ)
		workspaces = append(workspaces, w)
	}

	return workspaces, rows.Err()
}

// FindByPath finds the most specific registered workspace containing path.
// It returns nil when none does.
func (r *Registry) FindByPath(path string) (*Workspace, error) {
	workspaces, err := r.List()
	if err != nil {
		return nil, err
	}

	var bestMatch *Workspace
	for _, w := range workspaces {
		if w.Contains(path) && (bestMatch == nil || len(w.Path) > len(bestMatch.Path)) {
			bestMatch = w
		}
	}
	return bestMatch, nil
}

// Remove removes a workspace from the registry
func (r *Registry) Remove(path string) error {
	_, err := r.db.Exec("DELETE FROM workspaces WHERE path = ?", filepath.Clean(path))
	return err
}

// Close closes the registry database
func (r *Registry) Close() error {
	return r.db.Close()
}
