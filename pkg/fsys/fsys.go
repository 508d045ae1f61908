// Package fsys is the file-system collaborator used by the context store.
// The production implementation sits on the OS through afero; tests use an
// in-memory afero filesystem.
package fsys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/grovetools/ccs/pkg/models"
)

// ErrNotFound is returned when a resource no longer exists.
var ErrNotFound = errors.New("resource not found")

// DirEntry is one child of a listed directory.
type DirEntry struct {
	Name string
	Kind models.Kind
}

// FileSystem is everything the core needs from the underlying file system.
type FileSystem interface {
	Stat(ctx context.Context, r models.Resource) (models.Kind, error)
	ReadDir(ctx context.Context, r models.Resource) ([]DirEntry, error)
	ReadFile(ctx context.Context, r models.Resource) ([]byte, error)
	// WriteFile creates missing parent directories.
	WriteFile(ctx context.Context, r models.Resource, data []byte) error
	Delete(ctx context.Context, r models.Resource, recursive bool) error
	Rename(ctx context.Context, from, to models.Resource) error
}

// Afero adapts an afero.Fs to FileSystem.
type Afero struct {
	fs afero.Fs
}

// New wraps fs.
func New(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// NewOS returns a FileSystem backed by the operating system.
func NewOS() *Afero {
	return New(afero.NewOsFs())
}

// Fs exposes the underlying afero filesystem.
func (a *Afero) Fs() afero.Fs {
	return a.fs
}

func (a *Afero) Stat(ctx context.Context, r models.Resource) (models.Kind, error) {
	if err := ctx.Err(); err != nil {
		return models.KindUnknown, err
	}
	info, err := a.fs.Stat(r.Path())
	if err != nil {
		return models.KindUnknown, wrap("stat", r, err)
	}
	if info.IsDir() {
		return models.KindDirectory, nil
	}
	return models.KindFile, nil
}

func (a *Afero) ReadDir(ctx context.Context, r models.Resource) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(a.fs, r.Path())
	if err != nil {
		return nil, wrap("read dir", r, err)
	}
	entries := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		kind := models.KindFile
		if info.IsDir() {
			kind = models.KindDirectory
		}
		entries = append(entries, DirEntry{Name: info.Name(), Kind: kind})
	}
	return entries, nil
}

func (a *Afero) ReadFile(ctx context.Context, r models.Resource) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(a.fs, r.Path())
	if err != nil {
		return nil, wrap("read", r, err)
	}
	return data, nil
}

func (a *Afero) WriteFile(ctx context.Context, r models.Resource, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := r.Path()
	if err := a.fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return wrap("create parent of", r, err)
	}
	if err := afero.WriteFile(a.fs, p, data, 0644); err != nil {
		return wrap("write", r, err)
	}
	return nil
}

func (a *Afero) Delete(ctx context.Context, r models.Resource, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := r.Path()
	if _, err := a.fs.Stat(p); err != nil {
		return wrap("delete", r, err)
	}
	var err error
	if recursive {
		err = a.fs.RemoveAll(p)
	} else {
		err = a.fs.Remove(p)
	}
	if err != nil {
		return wrap("delete", r, err)
	}
	return nil
}

func (a *Afero) Rename(ctx context.Context, from, to models.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.fs.Rename(from.Path(), to.Path()); err != nil {
		return wrap("rename", from, err)
	}
	return nil
}

// wrap maps not-exist errors onto ErrNotFound.
func wrap(op string, r models.Resource, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", op, r, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, r, err)
}
