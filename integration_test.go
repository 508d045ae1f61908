//go:build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/service"
	"github.com/grovetools/ccs/pkg/watch"
)

// TestIntegration drives the service and the watcher against the real file
// system and a real sqlite index.
func TestIntegration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	ctx := context.Background()
	root := t.TempDir()
	dataDir := t.TempDir()
	config := &service.Config{Root: root, DataDir: dataDir, Index: true}

	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0755))
	readme := filepath.Join(docs, "readme.md")
	require.NoError(t, os.WriteFile(readme, []byte("# readme"), 0644))

	t.Run("CreateAndPersist", func(t *testing.T) {
		svc, err := service.New(ctx, config, fsys.NewOS())
		require.NoError(t, err)
		defer svc.Close()

		for _, p := range []string{docs, readme} {
			res, err := models.ParseResource(p)
			require.NoError(t, err)
			_, err = svc.AddItem(ctx, "Research", res)
			require.NoError(t, err)
		}
		c, err := svc.Context("Research")
		require.NoError(t, err)
		_, err = svc.EnsureContextDocument(ctx, c)
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(root, ".ccs", "contexts.json"))
		assert.NoError(t, err)

		entries, err := svc.SearchIndex("readme", nil)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Research", entries[0].Context)
	})

	t.Run("WatchCascade", func(t *testing.T) {
		svc, err := service.New(ctx, config, fsys.NewOS())
		require.NoError(t, err)
		defer svc.Close()

		c, err := svc.Context("Research")
		require.NoError(t, err)
		require.Equal(t, 2, c.Len())

		w, err := watch.New(nil)
		require.NoError(t, err)
		defer w.Close()
		require.NoError(t, w.Track(svc.TrackedResources()))

		require.NoError(t, os.RemoveAll(docs))

		removed := 0
		timeout := time.After(5 * time.Second)
		for removed < 2 {
			var res models.Resource
			select {
			case r, ok := <-w.Events():
				require.True(t, ok, "watcher closed early")
				res = r
			case <-timeout:
				t.Fatalf("timed out waiting for removal events, %d handled", removed)
			}
			n, err := svc.PruneIfGone(ctx, res)
			require.NoError(t, err)
			removed += n
		}
		assert.Equal(t, 0, c.Len())
		_, hasDoc := c.Document()
		assert.True(t, hasDoc, "the context document is outside docs/")
	})

	t.Run("Reload", func(t *testing.T) {
		svc, err := service.New(ctx, config, fsys.NewOS())
		require.NoError(t, err)
		defer svc.Close()

		c, err := svc.Context("Research")
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
		assert.Empty(t, svc.Warnings)
	})
}
