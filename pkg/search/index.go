package search

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/grovetools/ccs/pkg/models"
)

// Index is a cross-workspace sqlite index of tracked resources. It is a
// derived cache: contexts.json stays the source of truth.
type Index struct {
	db *sql.DB
}

// Entry is one indexed item or document
type Entry struct {
	Workspace  string
	Context    string
	Resource   models.Resource
	Name       string
	Kind       models.Kind
	IsDocument bool
	IndexedAt  time.Time
}

// NewIndex opens (and creates if needed) the index database
func NewIndex(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize index: %w", err)
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracked_items (
		workspace TEXT NOT NULL,
		context TEXT NOT NULL,
		resource TEXT NOT NULL,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		is_document BOOLEAN NOT NULL DEFAULT 0,
		indexed_at TIMESTAMP,
		PRIMARY KEY (workspace, context, resource, is_document)
	);

	CREATE INDEX IF NOT EXISTS idx_tracked_items_name ON tracked_items(name);
	CREATE INDEX IF NOT EXISTS idx_tracked_items_resource ON tracked_items(resource);
	`

	_, err := idx.db.Exec(schema)
	return err
}

// Sync replaces everything indexed for workspace with contexts.
func (idx *Index) Sync(workspace string, contexts []*models.Context) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM tracked_items WHERE workspace = ?", workspace); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO tracked_items (workspace, context, resource, name, kind, is_document, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range contexts {
		if doc, ok := c.Document(); ok {
			if _, err := stmt.Exec(workspace, c.Name(), doc.Resource().String(), models.DocumentLabel, int(doc.Kind()), true, now); err != nil {
				return err
			}
		}
		for _, item := range c.Items() {
			if _, err := stmt.Exec(workspace, c.Name(), item.Resource().String(), item.DisplayName(), int(item.Kind()), false, now); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Options for searching
type Options struct {
	Workspace string
	Context   string
	Limit     int
}

// Search finds indexed entries whose name or resource contains query.
// Spaces in query match any run of characters.
func (idx *Index) Search(query string, opts *Options) ([]Entry, error) {
	if opts == nil {
		opts = &Options{Limit: 50}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}

	var conditions []string
	var args []any

	if opts.Workspace != "" {
		conditions = append(conditions, "workspace = ?")
		args = append(args, opts.Workspace)
	}
	if opts.Context != "" {
		conditions = append(conditions, "context = ?")
		args = append(args, opts.Context)
	}

	searchPattern := "%" + strings.ReplaceAll(query, " ", "%") + "%"
	conditions = append(conditions, "(name LIKE ? OR resource LIKE ?)")
	args = append(args, searchPattern, searchPattern)

	searchQuery := fmt.Sprintf(`
		SELECT workspace, context, resource, name, kind, is_document, indexed_at
		FROM tracked_items
		WHERE %s
		ORDER BY workspace, context, is_document DESC, name
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var e Entry
		var resource string
		var kind int
		if err := rows.Scan(&e.Workspace, &e.Context, &resource, &e.Name, &kind, &e.IsDocument, &e.IndexedAt); err != nil {
			return nil, err
		}
		e.Resource = models.Resource(resource)
		e.Kind = models.Kind(kind)
		results = append(results, e)
	}

	return results, rows.Err()
}

// RemoveWorkspace drops every entry of a workspace
func (idx *Index) RemoveWorkspace(workspace string) error {
	_, err := idx.db.Exec("DELETE FROM tracked_items WHERE workspace = ?", workspace)
	return err
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}
