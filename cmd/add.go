package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewAddCmd(svc **service.Service) *cobra.Command {
	var contextName string

	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Add files or directories to a context",
		Long: `Add files or directories to a context. Without --context you pick the
target, or create a new context, for each path.

Examples:
  ccs add README.md                  # Pick a context
  ccs add -c Research docs/ notes.md # Add to "Research", creating it if needed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			resources, err := parseResources(args)
			if err != nil {
				return err
			}

			for _, r := range resources {
				var result service.AddResult
				if contextName != "" {
					result, err = s.AddItem(ctx, contextName, r)
					if err != nil {
						return err
					}
				} else {
					outcome, err := s.AddItemToContext(ctx, r)
					if err != nil {
						return err
					}
					if outcome.Cancelled {
						return nil
					}
					result = outcome.Value
				}

				if result.Added {
					fmt.Fprintf(out, "Added %s to '%s'\n", result.Item.DisplayName(), result.Context.Name())
				} else {
					fmt.Fprintf(out, "%s is already in '%s'\n", result.Item.DisplayName(), result.Context.Name())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextName, "context", "c", "", "Target context")
	return cmd
}
