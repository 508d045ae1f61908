package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ccs/pkg/adapter"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/tree"
)

type answer struct {
	name   string
	choice int
	ok     bool
}

type fakePrompter struct {
	answers     []answer
	prompts     []string
	initials    []string
	options     [][]string
	validations []error
}

func (f *fakePrompter) next() answer {
	if len(f.answers) == 0 {
		return answer{}
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a
}

func (f *fakePrompter) PromptForName(_ context.Context, prompt, initial string, validate Validator) (string, bool, error) {
	f.prompts = append(f.prompts, prompt)
	f.initials = append(f.initials, initial)
	a := f.next()
	if !a.ok {
		return "", false, nil
	}
	if validate != nil {
		if err := validate(a.name); err != nil {
			// A real prompt keeps asking; the fake gives up.
			f.validations = append(f.validations, err)
			return "", false, nil
		}
	}
	return a.name, true, nil
}

func (f *fakePrompter) PromptForChoice(_ context.Context, prompt string, options []string) (int, bool, error) {
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, options)
	a := f.next()
	return a.choice, a.ok, nil
}

type fakeOpener struct {
	opened []string
}

func (f *fakeOpener) Open(_ context.Context, path string) error {
	f.opened = append(f.opened, path)
	return nil
}

type reveal struct {
	id   string
	opts tree.RevealOptions
}

type recordingRevealer struct {
	reveals []reveal
}

func (r *recordingRevealer) Reveal(node tree.Node, opts tree.RevealOptions) error {
	r.reveals = append(r.reveals, reveal{id: node.ID(), opts: opts})
	return nil
}

type fixture struct {
	svc      *Service
	mem      afero.Fs
	prompter *fakePrompter
	opener   *fakeOpener
	revealer *recordingRevealer
}

func newFixture(t *testing.T, answers ...answer) *fixture {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll(filepath.FromSlash("/ws"), 0755))
	return openFixture(t, mem, answers...)
}

func openFixture(t *testing.T, mem afero.Fs, answers ...answer) *fixture {
	t.Helper()
	f := &fixture{
		mem:      mem,
		prompter: &fakePrompter{answers: answers},
		opener:   &fakeOpener{},
		revealer: &recordingRevealer{},
	}
	svc, err := New(context.Background(), &Config{Root: "/ws"}, fsys.New(mem),
		WithPrompter(f.prompter), WithOpener(f.opener), WithRevealer(f.revealer))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	f.svc = svc
	return f
}

func (f *fixture) writeFile(t *testing.T, path string) models.Resource {
	t.Helper()
	p := filepath.FromSlash(path)
	require.NoError(t, f.mem.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, afero.WriteFile(f.mem, p, []byte("content"), 0644))
	return resource(t, path)
}

func (f *fixture) mkdir(t *testing.T, path string) models.Resource {
	t.Helper()
	require.NoError(t, f.mem.MkdirAll(filepath.FromSlash(path), 0755))
	return resource(t, path)
}

func (f *fixture) contextsSaved(t *testing.T) bool {
	t.Helper()
	_, err := f.mem.Stat(filepath.FromSlash("/ws/.ccs/contexts.json"))
	return err == nil
}

func resource(t *testing.T, path string) models.Resource {
	t.Helper()
	r, err := models.ParseResource(path)
	require.NoError(t, err)
	return r
}

func displayNames(items []*models.Item) []string {
	names := []string{}
	for _, item := range items {
		names = append(names, item.DisplayName())
	}
	return names
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	readme := f.writeFile(t, "/ws/docs/readme.md")
	docs := f.mkdir(t, "/ws/docs")

	research, err := f.svc.CreateContext(ctx, "Research")
	require.NoError(t, err)

	first, err := f.svc.AddItem(ctx, "Research", readme)
	require.NoError(t, err)
	assert.True(t, first.Added)

	second, err := f.svc.AddItem(ctx, "Research", readme)
	require.NoError(t, err)
	assert.False(t, second.Added)
	assert.Same(t, first.Item, second.Item)

	require.NoError(t, f.svc.SetSortBy(ctx, research, models.SortByCategory))

	_, err = f.svc.AddItem(ctx, "Research", docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/", "readme.md"}, displayNames(research.Items()))

	doc := adapter.Marshal(f.svc.Contexts())
	require.Len(t, doc.Contexts, 1)
	assert.Len(t, doc.Contexts[0].Items, 2)
	assert.Equal(t, models.SortByCategory, doc.Contexts[0].SortBy)

	// Saved state matches memory.
	reloaded := openFixture(t, f.mem)
	c, err := reloaded.svc.Context("Research")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/", "readme.md"}, displayNames(c.Items()))

	n, err := f.svc.HandleResourceDeleted(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, research.Items())

	reloaded = openFixture(t, f.mem)
	c, err = reloaded.svc.Context("Research")
	require.NoError(t, err)
	assert.Empty(t, c.Items())
}

func TestCreateNewContext(t *testing.T) {
	f := newFixture(t, answer{name: "Research", ok: true})

	out, err := f.svc.CreateNewContext(context.Background())
	require.NoError(t, err)
	require.False(t, out.Cancelled)
	assert.Equal(t, "Research", out.Value.Name())
	assert.True(t, f.contextsSaved(t))

	require.Len(t, f.revealer.reveals, 1)
	assert.Equal(t, "ctx:Research", f.revealer.reveals[0].id)
	assert.Equal(t, tree.RevealOptions{Select: true, Focus: true, Expand: true}, f.revealer.reveals[0].opts)
}

func TestCreateNewContextCancelled(t *testing.T) {
	f := newFixture(t, answer{ok: false})

	out, err := f.svc.CreateNewContext(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
	assert.Equal(t, 0, f.svc.Store().Len())
	assert.False(t, f.contextsSaved(t), "nothing is saved")
	assert.Empty(t, f.revealer.reveals)
}

func TestCreateNewContextValidatesName(t *testing.T) {
	f := newFixture(t, answer{name: "Research", ok: true}, answer{name: "Research", ok: true})
	ctx := context.Background()

	_, err := f.svc.CreateNewContext(ctx)
	require.NoError(t, err)

	out, err := f.svc.CreateNewContext(ctx)
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
	require.Len(t, f.prompter.validations, 1)

	var verr *models.ValidationError
	require.True(t, errors.As(f.prompter.validations[0], &verr))
	assert.Equal(t, models.DuplicateName, verr.Reason)
	assert.Equal(t, 1, f.svc.Store().Len())
}

func TestCreateContextRejectsEmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateContext(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrInvalidName)
	assert.Equal(t, 0, f.svc.Store().Len())
}

func TestWorkflowsWithoutPrompter(t *testing.T) {
	mem := afero.NewMemMapFs()
	svc, err := New(context.Background(), &Config{Root: "/ws"}, fsys.New(mem))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.CreateNewContext(context.Background())
	assert.ErrorIs(t, err, ErrNoPrompter)
}

func TestAddItemToContextOffersNewContextFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, answer{choice: 1, ok: true})
	file := f.writeFile(t, "/ws/main.go")
	_, err := f.svc.CreateContext(ctx, "beta")
	require.NoError(t, err)
	_, err = f.svc.CreateContext(ctx, "alpha")
	require.NoError(t, err)

	out, err := f.svc.AddItemToContext(ctx, file)
	require.NoError(t, err)
	require.False(t, out.Cancelled)

	require.Len(t, f.prompter.options, 1)
	assert.Equal(t, []string{"Create New Context", "alpha", "beta"}, f.prompter.options[0])
	assert.Equal(t, "alpha", out.Value.Context.Name())
	assert.True(t, out.Value.Added)
	assert.False(t, out.Value.Created)

	last := f.revealer.reveals[len(f.revealer.reveals)-1]
	assert.Equal(t, "item:alpha/"+file.String(), last.id)
}

func TestAddItemToContextCreatesContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, answer{choice: 0, ok: true}, answer{name: "Fresh", ok: true})
	dir := f.mkdir(t, "/ws/pkg")

	out, err := f.svc.AddItemToContext(ctx, dir)
	require.NoError(t, err)
	require.False(t, out.Cancelled)
	assert.True(t, out.Value.Created)
	assert.Equal(t, models.KindDirectory, out.Value.Item.Kind())

	c, err := f.svc.Context("Fresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/"}, displayNames(c.Items()))
}

func TestAddItemToContextCancellation(t *testing.T) {
	tests := []struct {
		name    string
		answers []answer
	}{
		{"choice dismissed", []answer{{ok: false}}},
		{"name dismissed", []answer{{choice: 0, ok: true}, {ok: false}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.answers...)
			file := f.writeFile(t, "/ws/a.txt")

			out, err := f.svc.AddItemToContext(context.Background(), file)
			require.NoError(t, err)
			assert.True(t, out.Cancelled)
			assert.Equal(t, 0, f.svc.Store().Len())
			assert.False(t, f.contextsSaved(t))
		})
	}
}

func TestAddItemToNewContextFailsWithoutPartialState(t *testing.T) {
	f := newFixture(t, answer{choice: 0, ok: true}, answer{name: "Ghost", ok: true})

	_, err := f.svc.AddItemToContext(context.Background(), resource(t, "/ws/missing.txt"))
	require.ErrorIs(t, err, fsys.ErrNotFound)

	_, err = f.svc.Context("Ghost")
	assert.Error(t, err, "no context is created when the kind query fails")
	assert.False(t, f.contextsSaved(t))
}

func TestRenameContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, answer{name: "Renamed", ok: true})
	c, err := f.svc.CreateContext(ctx, "Original")
	require.NoError(t, err)
	doc, err := f.svc.ViewContextDocument(ctx, c)
	require.NoError(t, err)

	out, err := f.svc.RenameContext(ctx, c)
	require.NoError(t, err)
	require.False(t, out.Cancelled)
	assert.Equal(t, "Renamed", out.Value)
	assert.Equal(t, []string{"Original"}, f.prompter.initials)

	_, err = f.svc.Context("Original")
	assert.Error(t, err)
	_, err = f.svc.Context("Renamed")
	assert.NoError(t, err)

	_, err = f.mem.Stat(doc.Resource().Path())
	assert.True(t, os.IsNotExist(err), "directory moves with the name")

	moved, ok := c.Document()
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/ws/.ccs/Renamed/Context Document.md"), moved.Resource().Path())
	data, err := afero.ReadFile(f.mem, moved.Resource().Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Context: Renamed\n")
	assert.Contains(t, string(data), "context: Renamed")
}

func TestRenameThenRecreateKeepsDocumentsApart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.CreateContext(ctx, "A")
	require.NoError(t, err)
	_, err = f.svc.ViewContextDocument(ctx, a)
	require.NoError(t, err)
	require.NoError(t, f.svc.RenameContextTo(ctx, a, "B"))

	recreated, err := f.svc.CreateContext(ctx, "A")
	require.NoError(t, err)
	fresh, err := f.svc.ViewContextDocument(ctx, recreated)
	require.NoError(t, err)
	data, err := afero.ReadFile(f.mem, fresh.Resource().Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Context: A\n", "a fresh document, not the renamed one")

	require.NoError(t, f.svc.RemoveContext(ctx, recreated, true))
	_, err = f.mem.Stat(filepath.FromSlash("/ws/.ccs/A"))
	assert.True(t, os.IsNotExist(err))

	bDoc, ok := a.Document()
	require.True(t, ok)
	data, err = afero.ReadFile(f.mem, bDoc.Resource().Path())
	require.NoError(t, err, "the renamed context keeps its document")
	assert.Contains(t, string(data), "# Context: B\n")

	require.NoError(t, f.svc.RemoveContext(ctx, a, true))
	_, err = f.mem.Stat(filepath.FromSlash("/ws/.ccs/B"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, f.svc.Store().Len())
}

func TestRenameMovesTrackedItemsUnderContextDir(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateContext(ctx, "Old")
	require.NoError(t, err)
	_, err = f.svc.ViewContextDocument(ctx, c)
	require.NoError(t, err)
	notes := f.writeFile(t, "/ws/.ccs/Old/notes.md")
	_, err = f.svc.AddItem(ctx, "other", notes)
	require.NoError(t, err)

	require.NoError(t, f.svc.RenameContextTo(ctx, c, "New"))

	other, err := f.svc.Context("other")
	require.NoError(t, err)
	_, ok := other.Item(resource(t, "/ws/.ccs/New/notes.md"))
	assert.True(t, ok)
	_, ok = other.Item(notes)
	assert.False(t, ok)
}

func TestContextDirCollisionIsRefused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slash, err := f.svc.CreateContext(ctx, "a/b")
	require.NoError(t, err)
	_, err = f.svc.ViewContextDocument(ctx, slash)
	require.NoError(t, err)
	underscore, err := f.svc.CreateContext(ctx, "a_b")
	require.NoError(t, err)

	_, err = f.svc.ViewContextDocument(ctx, underscore)
	assert.Error(t, err, "both names map to .ccs/a_b")
	_, hasDoc := underscore.Document()
	assert.False(t, hasDoc)

	assert.Error(t, f.svc.RemoveContext(ctx, underscore, true))
	_, err = f.mem.Stat(filepath.FromSlash("/ws/.ccs/a_b/Context Document.md"))
	assert.NoError(t, err)
}

func TestRenameContextKeepingName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, answer{name: "Same", ok: true})
	c, err := f.svc.CreateContext(ctx, "Same")
	require.NoError(t, err)

	out, err := f.svc.RenameContext(ctx, c)
	require.NoError(t, err)
	assert.False(t, out.Cancelled)
	assert.Empty(t, f.prompter.validations)
	assert.Equal(t, "Same", c.Name())
}

func TestRenameContextToRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.CreateContext(ctx, "a")
	require.NoError(t, err)
	_, err = f.svc.CreateContext(ctx, "b")
	require.NoError(t, err)

	err = f.svc.RenameContextTo(ctx, a, "b")
	assert.ErrorIs(t, err, models.ErrInvalidName)
	assert.Equal(t, "a", a.Name())
}

func TestViewContextDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateContext(ctx, "Research")
	require.NoError(t, err)

	doc, err := f.svc.ViewContextDocument(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/ws/.ccs/Research/Context Document.md"), doc.Resource().Path())

	data, err := afero.ReadFile(f.mem, doc.Resource().Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Context: Research\n## Description\n")

	again, err := f.svc.ViewContextDocument(ctx, c)
	require.NoError(t, err)
	assert.Same(t, doc, again)
	assert.Equal(t, []string{doc.Resource().Path(), doc.Resource().Path()}, f.opener.opened)

	children := f.svc.Projector().Children(&tree.Node{Kind: tree.KindContext, Context: c})
	require.Len(t, children, 1)
	assert.Equal(t, tree.KindDocument, children[0].Kind)
}

func TestRemoveContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	keep, err := f.svc.CreateContext(ctx, "keep")
	require.NoError(t, err)
	drop, err := f.svc.CreateContext(ctx, "drop")
	require.NoError(t, err)
	_, err = f.svc.ViewContextDocument(ctx, keep)
	require.NoError(t, err)
	_, err = f.svc.ViewContextDocument(ctx, drop)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveContext(ctx, keep, false))
	_, err = f.mem.Stat(filepath.FromSlash("/ws/.ccs/keep"))
	assert.NoError(t, err, "files stay unless asked")

	require.NoError(t, f.svc.RemoveContext(ctx, drop, true))
	_, err = f.mem.Stat(filepath.FromSlash("/ws/.ccs/drop"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, 0, f.svc.Store().Len())
	assert.Error(t, f.svc.RemoveContext(ctx, drop, false))
}

func TestRemoveItemFromContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := f.writeFile(t, "/ws/a.txt")
	added, err := f.svc.AddItem(ctx, "c", file)
	require.NoError(t, err)
	doc, err := f.svc.ViewContextDocument(ctx, added.Context)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItemFromContext(ctx, tree.ItemNode(added.Context, added.Item)))
	assert.Equal(t, 0, added.Context.Len())

	require.NoError(t, f.svc.RemoveItemFromContext(ctx, tree.DocumentNode(added.Context, doc)))
	_, ok := added.Context.Document()
	assert.False(t, ok)
	_, err = f.mem.Stat(doc.Resource().Path())
	assert.NoError(t, err, "the document file is kept")

	assert.Error(t, f.svc.RemoveItemFromContext(ctx, tree.ContextNode(added.Context)))
}

func TestOpenItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := f.writeFile(t, "/ws/a.txt")
	added, err := f.svc.AddItem(ctx, "c", file)
	require.NoError(t, err)

	require.NoError(t, f.svc.OpenItem(ctx, tree.ItemNode(added.Context, added.Item)))
	assert.Equal(t, []string{file.Path()}, f.opener.opened)
	assert.Error(t, f.svc.OpenItem(ctx, tree.ContextNode(added.Context)))
}

func TestSearchContext(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, answer{choice: 0, ok: true})
	for _, p := range []string{"/ws/readme.md", "/ws/main.go", "/ws/reader.go"} {
		_, err := f.svc.AddItem(ctx, "code", f.writeFile(t, p))
		require.NoError(t, err)
	}

	out, err := f.svc.SearchContext(ctx, "read")
	require.NoError(t, err)
	require.False(t, out.Cancelled)

	var names []string
	for _, m := range out.Value {
		names = append(names, m.Item.DisplayName())
	}
	assert.ElementsMatch(t, []string{"readme.md", "reader.go"}, names)
}

func TestSearchContextWithoutContexts(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SearchContext(context.Background(), "x")
	assert.Error(t, err)
}

func TestHandleResourceDeletedUntracked(t *testing.T) {
	f := newFixture(t)
	n, err := f.svc.HandleResourceDeleted(context.Background(), resource(t, "/ws/nothing.txt"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, f.contextsSaved(t), "no change, no save")
}

func TestPruneIfGone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := f.writeFile(t, "/ws/a.txt")
	_, err := f.svc.AddItem(ctx, "c", file)
	require.NoError(t, err)
	c, err := f.svc.Context("c")
	require.NoError(t, err)

	n, err := f.svc.PruneIfGone(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "a file that exists is kept")
	assert.Equal(t, 1, c.Len())

	require.NoError(t, f.mem.Remove(filepath.FromSlash("/ws/a.txt")))
	n, err = f.svc.PruneIfGone(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, c.Len())
}

func TestTrackedResources(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	shared := f.writeFile(t, "/ws/shared.txt")
	_, err := f.svc.AddItem(ctx, "a", shared)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "b", shared)
	require.NoError(t, err)

	assert.Equal(t, []models.Resource{shared}, f.svc.TrackedResources())
}

func TestLoadReportsWarnings(t *testing.T) {
	mem := afero.NewMemMapFs()
	path := filepath.FromSlash("/ws/.ccs/contexts.json")
	require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(mem, path, []byte("[broken"), 0644))

	f := openFixture(t, mem)
	assert.NotEmpty(t, f.svc.Warnings)
	assert.Equal(t, 0, f.svc.Store().Len())
}

func TestSaveFailureIsReturned(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll(filepath.FromSlash("/ws"), 0755))
	svc, err := New(context.Background(), &Config{Root: "/ws"}, fsys.New(afero.NewReadOnlyFs(mem)))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.CreateContext(context.Background(), "x")
	assert.Error(t, err)
}

func TestCloseDetachesPersistence(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Close())

	f.svc.Store().GetOrCreateContext("late")
	require.NoError(t, f.svc.Refresh())
	assert.False(t, f.contextsSaved(t))
}

func TestNode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	file := f.writeFile(t, "/ws/a.txt")
	added, err := f.svc.AddItem(ctx, "c", file)
	require.NoError(t, err)
	doc, err := f.svc.EnsureContextDocument(ctx, added.Context)
	require.NoError(t, err)

	node, ok := Node(added.Context, file)
	require.True(t, ok)
	assert.Equal(t, tree.KindItem, node.Kind)

	node, ok = Node(added.Context, doc.Resource())
	require.True(t, ok)
	assert.Equal(t, tree.KindDocument, node.Kind)

	_, ok = Node(added.Context, resource(t, "/ws/other.txt"))
	assert.False(t, ok)
	assert.Empty(t, f.opener.opened, "ensuring a document does not open it")
}
