package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewDocCmd(svc **service.Service) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "doc <context>",
		Short: "Open a context's document",
		Long: `Open the context document, creating it on first use.

Examples:
  ccs doc Research           # Open in $EDITOR
  ccs doc Research --print   # Only print its path`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := cmd.Context()

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}
			if printOnly {
				doc, err := s.EnsureContextDocument(ctx, c)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc.Resource().Path())
				return nil
			}
			_, err = s.ViewContextDocument(ctx, c)
			return err
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the document path instead of opening it")
	return cmd
}
