package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewRenameCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <context> [new-name]",
		Short: "Rename a context",
		Long: `Rename a context. Without a new name you are prompted, starting from
the current one. The context document's title follows the new name.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := cmd.Context()

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}
			old := c.Name()

			if len(args) == 2 {
				if err := s.RenameContextTo(ctx, c, args[1]); err != nil {
					return err
				}
			} else {
				out, err := s.RenameContext(ctx, c)
				if err != nil {
					return err
				}
				if out.Cancelled {
					return nil
				}
			}

			if c.Name() != old {
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed '%s' to '%s'\n", old, c.Name())
			}
			return nil
		},
	}
	return cmd
}
