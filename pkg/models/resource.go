package models

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// Resource is the canonical locator of a file-system resource.
// Its string form is the identity key for context items.
type Resource string

// ParseResource canonicalizes a file URI or a plain path.
// Relative paths are resolved against the working directory.
func ParseResource(s string) (Resource, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty resource locator")
	}

	if strings.HasPrefix(s, fileScheme) {
		p := strings.TrimPrefix(s, fileScheme)
		unescaped, err := url.PathUnescape(p)
		if err != nil {
			return "", fmt.Errorf("parse resource %q: %w", s, err)
		}
		if !strings.HasPrefix(unescaped, "/") {
			return "", fmt.Errorf("parse resource %q: path must be absolute", s)
		}
		return Resource(fileScheme + path.Clean(unescaped)), nil
	}

	return ResourceFromPath(s)
}

// ResourceFromPath builds a resource from a file-system path
func ResourceFromPath(p string) (Resource, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", p, err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		// Windows volume paths
		slashed = "/" + slashed
	}
	return Resource(fileScheme + path.Clean(slashed)), nil
}

func (r Resource) String() string {
	return string(r)
}

// Path returns the resource as a native file-system path.
func (r Resource) Path() string {
	p := r.slashPath()
	if filepath.Separator != '/' && len(p) > 2 && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// Base returns the last path segment.
func (r Resource) Base() string {
	return path.Base(r.slashPath())
}

// Ext returns the extension of the last path segment, including the dot.
func (r Resource) Ext() string {
	return path.Ext(r.slashPath())
}

// Dir returns the parent resource.
func (r Resource) Dir() Resource {
	return Resource(fileScheme + path.Dir(r.slashPath()))
}

// Join appends a child name.
func (r Resource) Join(name string) Resource {
	return Resource(fileScheme + path.Join(r.slashPath(), name))
}

func (r Resource) slashPath() string {
	return strings.TrimPrefix(string(r), fileScheme)
}
