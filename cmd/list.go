package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/internal/tui/render"
	"github.com/grovetools/ccs/pkg/adapter"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/service"
)

func NewListCmd(svc **service.Service) *cobra.Command {
	var (
		listJSON  bool
		listPaths bool
	)

	cmd := &cobra.Command{
		Use:     "list [context]",
		Short:   "Show contexts and their items",
		Aliases: []string{"ls"},
		Long: `Show the contexts of the current workspace as a tree.

Examples:
  ccs list              # All contexts
  ccs list Research     # One context
  ccs list --json       # The stored form`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			out := cmd.OutOrStdout()

			only := ""
			contexts := s.Contexts()
			if len(args) == 1 {
				c, err := s.Context(args[0])
				if err != nil {
					return err
				}
				only = c.Name()
				contexts = []*models.Context{c}
			}

			if listJSON {
				data, err := adapter.MarshalJSON(contexts)
				if err != nil {
					return fmt.Errorf("failed to marshal contexts to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(contexts) == 0 {
				fmt.Fprintln(out, "No contexts yet. Create one with 'ccs new'.")
				return nil
			}
			fmt.Fprintln(out, render.Tree(s.Projector(), render.Options{Only: only, Paths: listPaths}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&listPaths, "paths", false, "Show the directory of each item")
	return cmd
}
