package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ccs/pkg/frontmatter"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/storage"
)

// ErrUnreadable is returned when the contexts file cannot be parsed at all.
var ErrUnreadable = errors.New("contexts file is unreadable")

// Migrator upgrades a workspace's stored contexts to the current format and
// repairs what drifted from the file system.
type Migrator struct {
	options  Options
	fs       fsys.FileSystem
	storage  *storage.Storage
	analyzer *Analyzer
	output   io.Writer
	logger   *logrus.Entry
	now      func() time.Time
}

func NewMigrator(fs fsys.FileSystem, st *storage.Storage, options Options, output io.Writer, logger *logrus.Entry) *Migrator {
	if output == nil {
		output = os.Stdout
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New()) // Fallback to a null logger
	}
	return &Migrator{
		options:  options,
		fs:       fs,
		storage:  st,
		analyzer: NewAnalyzer(fs, st),
		output:   output,
		logger:   logger.WithField("component", "migrator"),
		now:      time.Now,
	}
}

// Run analyzes the store and, unless DryRun is set, rewrites it.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := NewReport()
	defer report.Complete()

	an, err := m.analyzer.Analyze(ctx)
	if err != nil {
		return report, err
	}
	if an.Missing {
		m.logger.Debug("No contexts file, nothing to migrate")
		return report, nil
	}
	report.Issues = an.Issues

	if m.options.Verbose {
		for _, issue := range an.Issues {
			if issue.Context != "" {
				fmt.Fprintf(m.output, "  - %s [%s]: %s\n", issue.Type, issue.Context, issue.Description)
			} else {
				fmt.Fprintf(m.output, "  - %s: %s\n", issue.Type, issue.Description)
			}
		}
	}

	if an.Unreadable {
		return report, ErrUnreadable
	}
	if len(an.Issues) == 0 || m.options.DryRun {
		return report, nil
	}

	if !m.options.NoBackup {
		backup, err := m.backup(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to create backup: %w", err)
		}
		report.Backup = backup
	}

	byName := make(map[string]*models.Context, len(an.Contexts))
	for _, c := range an.Contexts {
		byName[c.Name()] = c
	}
	for _, issue := range an.Issues {
		fixed, err := m.fix(ctx, byName[issue.Context], issue, report)
		if err != nil {
			return report, fmt.Errorf("failed to fix %s: %w", issue.Type, err)
		}
		if fixed {
			report.IssuesFixed++
		} else {
			report.IssuesSkipped++
		}
	}

	if err := m.storage.Save(ctx, an.Contexts); err != nil {
		return report, err
	}
	report.Written = true
	m.logger.WithField("fixed", report.IssuesFixed).Info("Migrated contexts")
	return report, nil
}

func (m *Migrator) backup(ctx context.Context) (models.Resource, error) {
	file := m.storage.ContextsFile()
	data, err := m.fs.ReadFile(ctx, file)
	if err != nil {
		return "", err
	}
	backup := models.Resource(file.String() + ".backup")
	if err := m.fs.WriteFile(ctx, backup, data); err != nil {
		return "", err
	}
	return backup, nil
}

func (m *Migrator) fix(ctx context.Context, c *models.Context, issue Issue, report *Report) (bool, error) {
	switch issue.Type {
	case IssueMissingVersion, IssueLegacyDocumentKey, IssueDroppedEntry:
		// Rewriting the file is the fix.
		return true, nil

	case IssueMissingItem:
		if !m.options.PruneMissing || c == nil {
			return false, nil
		}
		if _, ok := c.Item(issue.Resource); !ok {
			return false, nil
		}
		c.RemoveItemByResource(issue.Resource)
		report.ItemsRemoved++
		return true, nil

	case IssueKindChanged:
		if c == nil {
			return false, nil
		}
		c.RemoveItemByResource(issue.Resource)
		c.AddItem(issue.Resource, issue.Kind)
		return true, nil

	case IssueMissingDocument:
		if c == nil {
			return false, nil
		}
		// Detach it; the next 'doc' recreates a fresh one.
		doc, ok := c.Document()
		if !ok || doc.Resource() != issue.Resource {
			return false, nil
		}
		c.RemoveItemByResource(issue.Resource)
		return true, nil

	case IssueMissingFrontmatter, IssueStaleDocumentContext:
		if c == nil {
			return false, nil
		}
		if err := m.fixDocument(ctx, c, issue.Resource); err != nil {
			return false, err
		}
		report.DocumentsUpdated++
		return true, nil

	case IssueUnreadable:
		return false, nil

	default:
		return false, nil
	}
}

func (m *Migrator) fixDocument(ctx context.Context, c *models.Context, doc models.Resource) error {
	content, err := m.fs.ReadFile(ctx, doc)
	if err != nil {
		return err
	}

	fm, body, err := frontmatter.Parse(string(content))
	if err != nil {
		return err
	}
	now := m.now()
	if fm == nil {
		fm = frontmatter.New(c.Name(), now)
		body = string(content)
	} else {
		fm.Context = c.Name()
		fm.Modified = frontmatter.FormatTimestamp(now)
	}

	if !m.options.NoBackup {
		if err := m.fs.WriteFile(ctx, models.Resource(doc.String()+".backup"), content); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}
	return m.fs.WriteFile(ctx, doc, []byte(frontmatter.BuildContent(fm, body)))
}

// WriteSummary prints a short human-readable summary of report.
func WriteSummary(w io.Writer, report *Report, dryRun bool) {
	if len(report.Issues) == 0 {
		fmt.Fprintln(w, "Contexts are up to date.")
		return
	}
	if dryRun {
		fmt.Fprintf(w, "Found %d issue(s). Run without --dry-run to fix them.\n", len(report.Issues))
		return
	}
	fmt.Fprintf(w, "Fixed %d issue(s)", report.IssuesFixed)
	if report.IssuesSkipped > 0 {
		fmt.Fprintf(w, ", skipped %d", report.IssuesSkipped)
	}
	fmt.Fprintln(w, ".")
	if report.ItemsRemoved > 0 {
		fmt.Fprintf(w, "Removed %d missing item(s).\n", report.ItemsRemoved)
	}
	if report.DocumentsUpdated > 0 {
		fmt.Fprintf(w, "Updated %d context document(s).\n", report.DocumentsUpdated)
	}
	if report.Backup != "" {
		fmt.Fprintf(w, "Previous contexts saved to %s\n", report.Backup.Path())
	}
}
