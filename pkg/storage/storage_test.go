package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ccs/pkg/frontmatter"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
)

func newTestStorage(t *testing.T) (*Storage, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	root, err := models.ParseResource("/ws")
	require.NoError(t, err)
	s := New(fsys.New(mem), root, "", nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return s, mem
}

func TestLayout(t *testing.T) {
	s, _ := newTestStorage(t)

	assert.Equal(t, filepath.FromSlash("/ws/.ccs/contexts.json"), s.ContextsFile().Path())
	assert.Equal(t, filepath.FromSlash("/ws/.ccs/Research/Context Document.md"), s.DocumentResource("Research").Path())
	assert.Equal(t, filepath.FromSlash("/ws/.ccs/a_b"), s.ContextDir("a/b").Path())
	assert.Equal(t, filepath.FromSlash("/ws/.ccs/_.."), s.ContextDir("..").Path())
}

func TestLoadMissingFile(t *testing.T) {
	s, _ := newTestStorage(t)

	result, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Contexts)
	assert.Empty(t, result.Warnings)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	c := models.NewContext("Research")
	res, err := models.ParseResource("/ws/docs/readme.md")
	require.NoError(t, err)
	c.AddItem(res, models.KindFile)

	require.NoError(t, s.Save(ctx, []*models.Context{c}))

	_, err = mem.Stat(filepath.FromSlash("/ws/.ccs/contexts.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")

	result, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, result.Contexts, 1)
	assert.Equal(t, "Research", result.Contexts[0].Name())
	_, ok := result.Contexts[0].Item(res)
	assert.True(t, ok)
}

func TestLoadCorruptFileKeepsBackup(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)
	path := filepath.FromSlash("/ws/.ccs/contexts.json")
	require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(mem, path, []byte("{not valid json"), 0644))

	result, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Contexts)
	assert.True(t, result.Corrupt)
	assert.Len(t, result.Warnings, 2)

	backup, err := afero.ReadFile(mem, path+".corrupt-20240501-093000")
	require.NoError(t, err)
	assert.Equal(t, "{not valid json", string(backup))
}

func TestLoadCorruptFileKeepsEarlierBackups(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)
	path := filepath.FromSlash("/ws/.ccs/contexts.json")
	require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0755))

	for _, content := range []string{"{first", "{second", "{third"} {
		require.NoError(t, afero.WriteFile(mem, path, []byte(content), 0644))
		_, err := s.Load(ctx)
		require.NoError(t, err)
	}

	tests := map[string]string{
		path + ".corrupt-20240501-093000":   "{first",
		path + ".corrupt-20240501-093000-1": "{second",
		path + ".corrupt-20240501-093000-2": "{third",
	}
	for name, want := range tests {
		data, err := afero.ReadFile(mem, name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(data), name)
	}
}

func TestCreateContextDocument(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	doc, err := s.CreateContextDocument(ctx, "Research")
	require.NoError(t, err)
	assert.Equal(t, s.DocumentResource("Research"), doc)

	data, err := afero.ReadFile(mem, doc.Path())
	require.NoError(t, err)
	fm, body, err := frontmatter.Parse(string(data))
	require.NoError(t, err)
	require.NotNil(t, fm)
	assert.Equal(t, "Research", fm.Context)
	assert.Equal(t, "2024-05-01 09:30:00", fm.Created)
	assert.Equal(t, "\n# Context: Research\n## Description\n", body)

	require.NoError(t, afero.WriteFile(mem, doc.Path(), []byte("edited"), 0644))
	again, err := s.CreateContextDocument(ctx, "Research")
	require.NoError(t, err)
	assert.Equal(t, doc, again)
	data, err = afero.ReadFile(mem, doc.Path())
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data), "existing documents are not overwritten")
}

func TestRenameContextDocument(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	doc, err := s.CreateContextDocument(ctx, "Old")
	require.NoError(t, err)
	require.NoError(t, s.RenameContextDocument(ctx, doc, "Old", "New"))

	data, err := afero.ReadFile(mem, doc.Path())
	require.NoError(t, err)
	fm, body, err := frontmatter.Parse(string(data))
	require.NoError(t, err)
	assert.Equal(t, "New", fm.Context)
	assert.Contains(t, body, "# Context: New\n")
	assert.NotContains(t, body, "Old")
}

func TestDeleteContextDir(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	doc, err := s.CreateContextDocument(ctx, "Gone")
	require.NoError(t, err)
	require.NoError(t, s.DeleteContextDir(ctx, doc.Dir()))

	_, err = mem.Stat(doc.Path())
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.DeleteContextDir(ctx, doc.Dir()), "missing directory is fine")
}

func TestDeleteContextDirRejectsOtherDirs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStorage(t)

	for _, dir := range []string{"/ws", "/ws/.ccs", "/ws/src", "/ws/.ccs/a/b", "/ws/.ccs/contexts.json"} {
		r, err := models.ParseResource(dir)
		require.NoError(t, err)
		assert.Error(t, s.DeleteContextDir(ctx, r), dir)
	}
}

func TestMoveContextDir(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	_, err := s.CreateContextDocument(ctx, "Old")
	require.NoError(t, err)

	from, to, moved, err := s.MoveContextDir(ctx, "Old", "New")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, s.ContextDir("Old"), from)
	assert.Equal(t, s.ContextDir("New"), to)

	_, err = mem.Stat(s.DocumentResource("New").Path())
	assert.NoError(t, err)
	_, err = mem.Stat(s.ContextDir("Old").Path())
	assert.True(t, os.IsNotExist(err))

	_, _, moved, err = s.MoveContextDir(ctx, "Old", "Other")
	require.NoError(t, err)
	assert.False(t, moved, "nothing to move")

	_, _, moved, err = s.MoveContextDir(ctx, "a/b", "a_b")
	require.NoError(t, err)
	assert.False(t, moved, "same directory")
}

func TestMoveContextDirRefusesExistingTarget(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStorage(t)

	_, err := s.CreateContextDocument(ctx, "Old")
	require.NoError(t, err)
	_, err = s.CreateContextDocument(ctx, "Taken")
	require.NoError(t, err)

	_, _, moved, err := s.MoveContextDir(ctx, "Old", "Taken")
	assert.Error(t, err)
	assert.False(t, moved)

	data, err := afero.ReadFile(mem, s.DocumentResource("Taken").Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Context: Taken")
}
