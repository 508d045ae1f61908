package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grovetools/ccs/pkg/adapter"
	"github.com/grovetools/ccs/pkg/frontmatter"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/storage"
)

// ErrNewerVersion is returned for stores written by a newer release.
var ErrNewerVersion = errors.New("contexts file was written by a newer version")

// Analysis is what the analyzer found in a workspace's store.
type Analysis struct {
	Contexts   []*models.Context
	Issues     []Issue
	Missing    bool // no contexts file at all
	Unreadable bool
}

type Analyzer struct {
	fs      fsys.FileSystem
	storage *storage.Storage
}

func NewAnalyzer(fs fsys.FileSystem, st *storage.Storage) *Analyzer {
	return &Analyzer{fs: fs, storage: st}
}

type probe struct {
	Version  *int                         `json:"version"`
	Contexts []map[string]json.RawMessage `json:"contexts"`
}

func (a *Analyzer) Analyze(ctx context.Context) (*Analysis, error) {
	data, err := a.fs.ReadFile(ctx, a.storage.ContextsFile())
	if errors.Is(err, fsys.ErrNotFound) {
		return &Analysis{Missing: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contexts: %w", err)
	}

	an := &Analysis{}

	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		an.Unreadable = true
		an.Issues = append(an.Issues, Issue{
			Type:        IssueUnreadable,
			Description: fmt.Sprintf("contexts file cannot be parsed: %v", err),
		})
		return an, nil
	}

	if p.Version == nil {
		an.Issues = append(an.Issues, Issue{
			Type:        IssueMissingVersion,
			Description: "contexts file has no version",
		})
	} else if *p.Version > adapter.Version {
		return nil, fmt.Errorf("%w: %d", ErrNewerVersion, *p.Version)
	}

	for _, raw := range p.Contexts {
		if _, ok := raw["contextDescription"]; !ok {
			continue
		}
		var name string
		_ = json.Unmarshal(raw["name"], &name)
		an.Issues = append(an.Issues, Issue{
			Type:        IssueLegacyDocumentKey,
			Context:     name,
			Description: "document stored under the old contextDescription key",
		})
	}

	result := adapter.Unmarshal(data)
	for _, w := range result.Warnings {
		an.Issues = append(an.Issues, Issue{
			Type:        IssueDroppedEntry,
			Context:     w.Context,
			Description: w.Message,
		})
	}
	an.Contexts = result.Contexts

	for _, c := range an.Contexts {
		issues, err := a.analyzeContext(ctx, c)
		if err != nil {
			return nil, err
		}
		an.Issues = append(an.Issues, issues...)
	}
	return an, nil
}

func (a *Analyzer) analyzeContext(ctx context.Context, c *models.Context) ([]Issue, error) {
	var issues []Issue

	if doc, ok := c.Document(); ok {
		issue, err := a.analyzeDocument(ctx, c, doc.Resource())
		if err != nil {
			return nil, err
		}
		if issue != nil {
			issues = append(issues, *issue)
		}
	}

	for _, item := range c.Items() {
		kind, err := a.fs.Stat(ctx, item.Resource())
		switch {
		case errors.Is(err, fsys.ErrNotFound):
			issues = append(issues, Issue{
				Type:        IssueMissingItem,
				Context:     c.Name(),
				Resource:    item.Resource(),
				Description: fmt.Sprintf("%s no longer exists", item.Resource().Path()),
			})
		case err != nil:
			return nil, fmt.Errorf("failed to stat %s: %w", item.Resource().Path(), err)
		case kind != item.Kind():
			issues = append(issues, Issue{
				Type:        IssueKindChanged,
				Context:     c.Name(),
				Resource:    item.Resource(),
				Kind:        kind,
				Description: fmt.Sprintf("%s is now a %s, stored as a %s", item.Resource().Path(), kind, item.Kind()),
			})
		}
	}
	return issues, nil
}

func (a *Analyzer) analyzeDocument(ctx context.Context, c *models.Context, doc models.Resource) (*Issue, error) {
	content, err := a.fs.ReadFile(ctx, doc)
	if errors.Is(err, fsys.ErrNotFound) {
		return &Issue{
			Type:        IssueMissingDocument,
			Context:     c.Name(),
			Resource:    doc,
			Description: fmt.Sprintf("context document %s no longer exists", doc.Path()),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context document: %w", err)
	}

	fm, _, err := frontmatter.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter of %s: %w", doc.Path(), err)
	}
	if fm == nil {
		return &Issue{
			Type:        IssueMissingFrontmatter,
			Context:     c.Name(),
			Resource:    doc,
			Description: "context document has no frontmatter",
		}, nil
	}
	if fm.Context != c.Name() {
		return &Issue{
			Type:        IssueStaleDocumentContext,
			Context:     c.Name(),
			Resource:    doc,
			Description: fmt.Sprintf("context document names '%s'", fm.Context),
		}, nil
	}
	return nil, nil
}
