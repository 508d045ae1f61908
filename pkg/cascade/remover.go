// Package cascade prunes tracked resources from every context when the
// underlying files are deleted.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
)

// Remover reacts to resource deletion notifications.
type Remover struct {
	fs     fsys.FileSystem
	store  *models.Store
	logger *logrus.Entry
}

// New creates a remover over store.
func New(fs fsys.FileSystem, store *models.Store, logger *logrus.Entry) *Remover {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Remover{
		fs:     fs,
		store:  store,
		logger: logger.WithField("component", "cascade"),
	}
}

// Remove prunes resource from every context. For a directory, each
// descendant is matched on its own, depth first, and the directory itself
// is removed last. Only exact matches are pruned; untracked descendants of a
// tracked directory are never inferred from path prefixes.
//
// A resource that no longer exists is treated as a file. It returns the
// number of (context, resource) removals.
func (r *Remover) Remove(ctx context.Context, resource models.Resource) (int, error) {
	kind, err := r.fs.Stat(ctx, resource)
	if err != nil {
		if !errors.Is(err, fsys.ErrNotFound) {
			return 0, fmt.Errorf("cascade remove: %w", err)
		}
		kind = models.KindFile
	}

	if kind != models.KindDirectory {
		return r.removeOne(resource), nil
	}
	return r.removeDir(ctx, resource)
}

// removeDir walks the whole tree before touching the store, so a failed
// walk leaves every context as it was.
func (r *Remover) removeDir(ctx context.Context, dir models.Resource) (int, error) {
	var targets []models.Resource
	if err := r.collect(ctx, dir, &targets); err != nil {
		return 0, err
	}
	removed := 0
	for _, target := range targets {
		removed += r.removeOne(target)
	}
	return removed, nil
}

func (r *Remover) collect(ctx context.Context, dir models.Resource, targets *[]models.Resource) error {
	entries, err := r.fs.ReadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("cascade remove: %w", err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		child := dir.Join(entry.Name)
		if entry.Kind == models.KindDirectory {
			if err := r.collect(ctx, child, targets); err != nil {
				return err
			}
			continue
		}
		*targets = append(*targets, child)
	}
	*targets = append(*targets, dir)
	return nil
}

func (r *Remover) removeOne(resource models.Resource) int {
	n := r.store.RemoveResource(resource)
	if n > 0 {
		r.logger.WithFields(logrus.Fields{
			"resource": resource.String(),
			"contexts": n,
		}).Debug("Removed deleted resource from contexts")
	}
	return n
}
