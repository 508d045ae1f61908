package models

import (
	"fmt"
	"strings"
)

// Kind is the file-system type of a tracked resource.
// Values match the persisted "type" field.
type Kind int

const (
	KindUnknown   Kind = 0
	KindFile      Kind = 1
	KindDirectory Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// SortBy controls the ordering of a context's items
type SortBy int

const (
	SortByName     SortBy = 0
	SortByCategory SortBy = 1
)

func (s SortBy) String() string {
	switch s {
	case SortByCategory:
		return "category"
	default:
		return "name"
	}
}

// Valid reports whether s is a known ordering.
func (s SortBy) Valid() bool {
	return s == SortByName || s == SortByCategory
}

// ParseSortBy accepts "name" or "category", case-insensitively.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName, nil
	case "category", "type", "kind":
		return SortByCategory, nil
	default:
		return SortByName, fmt.Errorf("unknown sort order %q (expected name or category)", s)
	}
}
