package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/service"
)

func TestExecuteClosesServiceWhenCommandFails(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll(filepath.FromSlash("/ws"), 0755))

	var opened *service.Service
	boom := errors.New("command failed")
	root := &cobra.Command{
		Use:           "ccs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			var err error
			svc, err = service.New(context.Background(), &service.Config{Root: "/ws"}, fsys.New(mem))
			opened = svc
			return err
		},
		RunE: func(c *cobra.Command, args []string) error {
			return boom
		},
	}
	root.SetArgs([]string{})

	err := execute(root)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, opened)
	assert.Nil(t, svc)

	opened.Store().GetOrCreateContext("late")
	require.NoError(t, opened.Refresh())
	_, err = mem.Stat(filepath.FromSlash("/ws/.ccs/contexts.json"))
	assert.Error(t, err, "a closed service no longer persists")
}
