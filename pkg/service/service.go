package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/ccs/pkg/adapter"
	"github.com/grovetools/ccs/pkg/cascade"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/search"
	"github.com/grovetools/ccs/pkg/storage"
	"github.com/grovetools/ccs/pkg/tree"
	"github.com/grovetools/ccs/pkg/workspace"
)

// ErrNoPrompter is returned by interactive workflows when no prompter is configured.
var ErrNoPrompter = errors.New("no prompter configured")

// Service is the core context service. It owns the store and is its only
// writer; it is not safe for concurrent use.
type Service struct {
	Config    *Config
	Warnings  []adapter.Warning
	fs        fsys.FileSystem
	storage   *storage.Storage
	store     *models.Store
	projector *tree.Projector
	cascade   *cascade.Remover
	index     *search.Index
	ownsIndex bool
	registry  *workspace.Registry
	ownsReg   bool
	workspace *workspace.Workspace
	prompter  Prompter
	opener    Opener
	revealer  tree.Revealer
	logger    *logrus.Entry
	subs      []*tree.Subscription
	saveErr   error
}

// Config holds service configuration
type Config struct {
	Root     string // workspace root, absolute
	StoreDir string
	DataDir  string
	Editor   string
	Index    bool
}

// Option configures a Service.
type Option func(*Service)

func WithPrompter(p Prompter) Option {
	return func(s *Service) {
		s.prompter = p
	}
}

func WithOpener(o Opener) Option {
	return func(s *Service) {
		s.opener = o
	}
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithIndex uses an already-open index instead of opening one under DataDir.
// The caller keeps ownership and closes it.
func WithIndex(idx *search.Index) Option {
	return func(s *Service) {
		s.index = idx
	}
}

// WithRegistry records the workspace in an already-open registry. The
// caller keeps ownership and closes it.
func WithRegistry(r *workspace.Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

func WithRevealer(r tree.Revealer) Option {
	return func(s *Service) {
		s.revealer = r
	}
}

// New loads the workspace's contexts and wires persistence and indexing to
// the projector's change notifications.
func New(ctx context.Context, config *Config, fs fsys.FileSystem, options ...Option) (*Service, error) {
	if config == nil || config.Root == "" {
		return nil, errors.New("service: workspace root is required")
	}
	root, err := models.ParseResource(config.Root)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}

	s := &Service{Config: config, fs: fs, workspace: workspace.At(root.Path())}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	s.logger = s.logger.WithField("workspace", root.Path())
	if s.opener == nil {
		s.opener = &EditorOpener{Editor: config.Editor}
	}

	s.storage = storage.New(fs, root, config.StoreDir, s.logger)
	result, err := s.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load contexts: %w", err)
	}
	s.Warnings = result.Warnings
	s.store = models.NewStore(result.Contexts...)
	s.projector = tree.NewProjector(s.store)
	s.projector.SetRevealer(s.revealer)
	s.cascade = cascade.New(fs, s.store, s.logger)

	if s.index == nil && config.Index && config.DataDir != "" {
		idx, err := search.NewIndex(filepath.Join(config.DataDir, "index.db"))
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		s.index = idx
		s.ownsIndex = true
	}

	if s.registry == nil && config.DataDir != "" {
		reg, err := workspace.NewRegistry(config.DataDir)
		if err != nil {
			s.closeOwned()
			return nil, fmt.Errorf("open workspace registry: %w", err)
		}
		s.registry = reg
		s.ownsReg = true
	}
	if s.registry != nil {
		if err := s.registry.Touch(s.workspace); err != nil {
			s.logger.WithError(err).Warn("Failed to record workspace")
		}
	}

	s.subs = append(s.subs, s.projector.Subscribe(s.persist))
	if s.index != nil {
		s.subs = append(s.subs, s.projector.Subscribe(s.reindex))
	}
	return s, nil
}

// persist saves the whole store on every change.
func (s *Service) persist(tree.Change) {
	if err := s.storage.Save(context.Background(), s.store.Contexts()); err != nil {
		s.logger.WithError(err).Error("Failed to save contexts")
		s.saveErr = err
	}
}

func (s *Service) reindex(tree.Change) {
	if err := s.index.Sync(s.workspace.Path, s.store.Contexts()); err != nil {
		s.logger.WithError(err).Warn("Failed to update search index")
	}
}

// commit notifies subscribers that node (or everything when nil) changed and
// reports a failed save.
func (s *Service) commit(node *tree.Node) error {
	s.saveErr = nil
	s.projector.Refresh(node)
	return s.saveErr
}

func (s *Service) reveal(node tree.Node) {
	opts := tree.RevealOptions{Select: true, Focus: true, Expand: true}
	if err := s.projector.Reveal(node, opts); err != nil {
		s.logger.WithError(err).WithField("node", node.ID()).Debug("Reveal failed")
	}
}

// Refresh re-emits a full-tree change, which also re-saves the store.
func (s *Service) Refresh() error {
	return s.commit(nil)
}

// Contexts returns the contexts ordered by name.
func (s *Service) Contexts() []*models.Context {
	return models.SortContexts(s.store.Contexts())
}

// Context looks a context up by name.
func (s *Service) Context(name string) (*models.Context, error) {
	c, ok := s.store.FindContext(name)
	if !ok {
		return nil, fmt.Errorf("context '%s' not found", name)
	}
	return c, nil
}

func (s *Service) Store() *models.Store {
	return s.store
}

func (s *Service) Projector() *tree.Projector {
	return s.projector
}

func (s *Service) Storage() *storage.Storage {
	return s.storage
}

// Workspace is the workspace the service stores contexts for.
func (s *Service) Workspace() *workspace.Workspace {
	return s.workspace
}

// Close detaches the service's listeners and closes what it opened.
func (s *Service) Close() error {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	return s.closeOwned()
}

func (s *Service) closeOwned() error {
	var errs []error
	if s.ownsIndex && s.index != nil {
		errs = append(errs, s.index.Close())
		s.index = nil
		s.ownsIndex = false
	}
	if s.ownsReg && s.registry != nil {
		errs = append(errs, s.registry.Close())
		s.registry = nil
		s.ownsReg = false
	}
	return errors.Join(errs...)
}

// Logger is the service's logger, for components driven alongside it.
func (s *Service) Logger() *logrus.Entry {
	return s.logger
}
