package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewRmCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <context> <path>...",
		Short: "Remove items from a context",
		Long:  "Stop tracking paths in a context. The files themselves are not deleted.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}
			resources, err := parseResources(args[1:])
			if err != nil {
				return err
			}

			for _, r := range resources {
				node, ok := service.Node(c, r)
				if !ok {
					return fmt.Errorf("%s is not in context '%s'", r.Path(), c.Name())
				}
				if err := s.RemoveItemFromContext(cmd.Context(), node); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from '%s'\n", node.Item.DisplayName(), c.Name())
			}
			return nil
		},
	}
	return cmd
}
