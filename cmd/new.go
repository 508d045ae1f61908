package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewNewCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new context",
		Long: `Create a new, empty context in the current workspace.

Examples:
  ccs new               # Prompt for a name
  ccs new Research      # Create the "Research" context`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := cmd.Context()

			if len(args) == 1 {
				c, err := s.CreateContext(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created context '%s'\n", c.Name())
				return nil
			}

			out, err := s.CreateNewContext(ctx)
			if err != nil {
				return err
			}
			if out.Cancelled {
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created context '%s'\n", out.Value.Name())
			return nil
		},
	}
	return cmd
}
