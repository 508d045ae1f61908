package migration

import (
	"time"

	"github.com/grovetools/ccs/pkg/models"
)

// IssueType classifies something the migrator can report or repair.
type IssueType string

const (
	IssueUnreadable           IssueType = "unreadable"
	IssueMissingVersion       IssueType = "missing_version"
	IssueLegacyDocumentKey    IssueType = "legacy_document_key"
	IssueDroppedEntry         IssueType = "dropped_entry"
	IssueMissingItem          IssueType = "missing_item"
	IssueKindChanged          IssueType = "kind_changed"
	IssueMissingDocument      IssueType = "missing_document"
	IssueMissingFrontmatter   IssueType = "missing_frontmatter"
	IssueStaleDocumentContext IssueType = "stale_document_context"
)

type Issue struct {
	Type        IssueType
	Context     string
	Description string
	Resource    models.Resource
	Kind        models.Kind // current kind, for IssueKindChanged
}

type Report struct {
	Issues           []Issue
	IssuesFixed      int
	IssuesSkipped    int
	ItemsRemoved     int
	DocumentsUpdated int
	Backup           models.Resource
	Written          bool
	StartTime        time.Time
	EndTime          time.Time
}

type Options struct {
	DryRun       bool
	Verbose      bool
	NoBackup     bool
	PruneMissing bool
}

func NewReport() *Report {
	return &Report{
		StartTime: time.Now(),
	}
}

func (r *Report) Complete() {
	r.EndTime = time.Now()
}

func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
