// Package storage owns the on-disk layout of a workspace's contexts:
//
//	<root>/.ccs/contexts.json
//	<root>/.ccs/<context>/Context Document.md
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ccs/pkg/adapter"
	"github.com/grovetools/ccs/pkg/frontmatter"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
)

const (
	// DefaultDir is the store directory created under the workspace root.
	DefaultDir = ".ccs"

	contextsFile = "contexts.json"
	documentFile = models.DocumentLabel + ".md"
)

// Storage reads and writes one workspace's contexts.
type Storage struct {
	fs     fsys.FileSystem
	dir    models.Resource
	logger *logrus.Entry
	now    func() time.Time
}

// New creates a storage rooted at root/dirName.
func New(fs fsys.FileSystem, root models.Resource, dirName string, logger *logrus.Entry) *Storage {
	if dirName == "" {
		dirName = DefaultDir
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Storage{
		fs:     fs,
		dir:    root.Join(dirName),
		logger: logger.WithField("component", "storage"),
		now:    time.Now,
	}
}

// Dir is the store directory.
func (s *Storage) Dir() models.Resource {
	return s.dir
}

// ContextsFile is the persisted contexts document.
func (s *Storage) ContextsFile() models.Resource {
	return s.dir.Join(contextsFile)
}

// ContextDir is the per-context directory holding its document.
func (s *Storage) ContextDir(name string) models.Resource {
	return s.dir.Join(dirName(name))
}

// DocumentResource is where a context's document is created.
func (s *Storage) DocumentResource(name string) models.Resource {
	return s.ContextDir(name).Join(documentFile)
}

// Load reads the contexts document. A missing document is an empty store.
// An unreadable one is kept aside as contexts.json.corrupt-<timestamp> and
// reported as warnings on an empty result, never as an error.
func (s *Storage) Load(ctx context.Context) (adapter.Result, error) {
	file := s.ContextsFile()
	data, err := s.fs.ReadFile(ctx, file)
	if err != nil {
		if errors.Is(err, fsys.ErrNotFound) {
			return adapter.Result{}, nil
		}
		return adapter.Result{}, fmt.Errorf("read contexts: %w", err)
	}

	result := adapter.Unmarshal(data)
	if result.Corrupt {
		backup, err := s.corruptBackup(ctx, file)
		if err == nil {
			err = s.fs.WriteFile(ctx, backup, data)
		}
		if err != nil {
			s.logger.WithError(err).Warn("Failed to back up unreadable contexts file")
		} else {
			result.Warnings = append(result.Warnings, adapter.Warning{
				Message: fmt.Sprintf("previous contents saved to %s", backup.Path()),
			})
		}
	}
	for _, w := range result.Warnings {
		s.logger.WithField("file", file.Path()).Warn(w.String())
	}
	return result, nil
}

// corruptBackup picks a backup name that does not overwrite an earlier one.
func (s *Storage) corruptBackup(ctx context.Context, file models.Resource) (models.Resource, error) {
	base := file.String() + ".corrupt-" + s.now().UTC().Format("20060102-150405")
	backup := models.Resource(base)
	for i := 1; ; i++ {
		_, err := s.fs.Stat(ctx, backup)
		if errors.Is(err, fsys.ErrNotFound) {
			return backup, nil
		}
		if err != nil {
			return "", err
		}
		backup = models.Resource(fmt.Sprintf("%s-%d", base, i))
	}
}

// Save writes contexts atomically through a temporary file.
func (s *Storage) Save(ctx context.Context, contexts []*models.Context) error {
	data, err := adapter.MarshalJSON(contexts)
	if err != nil {
		return err
	}
	file := s.ContextsFile()
	tmp := models.Resource(file.String() + ".tmp")
	if err := s.fs.WriteFile(ctx, tmp, data); err != nil {
		return fmt.Errorf("write contexts: %w", err)
	}
	if err := s.fs.Rename(ctx, tmp, file); err != nil {
		return fmt.Errorf("replace contexts: %w", err)
	}
	s.logger.WithField("contexts", len(contexts)).Debug("Saved contexts")
	return nil
}

// CreateContextDocument writes the initial description document for a
// context unless one already exists, and returns its resource.
func (s *Storage) CreateContextDocument(ctx context.Context, name string) (models.Resource, error) {
	doc := s.DocumentResource(name)
	if _, err := s.fs.Stat(ctx, doc); err == nil {
		return doc, nil
	} else if !errors.Is(err, fsys.ErrNotFound) {
		return "", fmt.Errorf("check context document: %w", err)
	}

	content := frontmatter.BuildContent(frontmatter.New(name, s.now()), documentBody(name))
	if err := s.fs.WriteFile(ctx, doc, []byte(content)); err != nil {
		return "", fmt.Errorf("create context document: %w", err)
	}
	return doc, nil
}

// MoveContextDir moves the directory of a renamed context to its new name.
// moved is false when there is nothing to move.
func (s *Storage) MoveContextDir(ctx context.Context, oldName, newName string) (from, to models.Resource, moved bool, err error) {
	from, to = s.ContextDir(oldName), s.ContextDir(newName)
	if from == to {
		return from, to, false, nil
	}
	if _, err := s.fs.Stat(ctx, from); err != nil {
		if errors.Is(err, fsys.ErrNotFound) {
			return from, to, false, nil
		}
		return from, to, false, fmt.Errorf("check context dir: %w", err)
	}
	if _, err := s.fs.Stat(ctx, to); err == nil {
		return from, to, false, fmt.Errorf("move context dir: %s already exists", to.Path())
	} else if !errors.Is(err, fsys.ErrNotFound) {
		return from, to, false, fmt.Errorf("check context dir: %w", err)
	}
	if err := s.fs.Rename(ctx, from, to); err != nil {
		return from, to, false, fmt.Errorf("move context dir: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"from": from.Path(), "to": to.Path()}).Debug("Moved context dir")
	return from, to, true, nil
}

// RenameContextDocument rewrites the document's frontmatter and heading
// after its context was renamed.
func (s *Storage) RenameContextDocument(ctx context.Context, doc models.Resource, oldName, newName string) error {
	data, err := s.fs.ReadFile(ctx, doc)
	if err != nil {
		return fmt.Errorf("read context document: %w", err)
	}
	content, changed, err := frontmatter.Rename(string(data), newName, s.now())
	if err != nil {
		return fmt.Errorf("update context document: %w", err)
	}
	oldHeading := documentHeading(oldName)
	if strings.Contains(content, oldHeading+"\n") {
		content = strings.Replace(content, oldHeading+"\n", documentHeading(newName)+"\n", 1)
		changed = true
	}
	if !changed {
		return nil
	}
	return s.fs.WriteFile(ctx, doc, []byte(content))
}

// DeleteContextDir removes a context directory and everything in it. Only
// direct children of the store directory are accepted. A missing directory
// is not an error.
func (s *Storage) DeleteContextDir(ctx context.Context, dir models.Resource) error {
	if dir.Dir() != s.dir || dir == s.ContextsFile() {
		return fmt.Errorf("delete context dir: %s is not a context directory", dir.Path())
	}
	err := s.fs.Delete(ctx, dir, true)
	if err != nil && !errors.Is(err, fsys.ErrNotFound) {
		return fmt.Errorf("delete context dir: %w", err)
	}
	return nil
}

func documentHeading(name string) string {
	return "# Context: " + name
}

func documentBody(name string) string {
	return documentHeading(name) + "\n## Description\n"
}

// dirName keeps a context name to a single path segment.
func dirName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_")
	cleaned := r.Replace(name)
	if cleaned == "." || cleaned == ".." {
		cleaned = "_" + cleaned
	}
	return cleaned
}
