package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/service"
)

func NewSortCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort <context> <name|category>",
		Short: "Choose how a context orders its items",
		Long:  "Order items by name, or by category: directories first, then by extension, then by name.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}
			sortBy, err := models.ParseSortBy(args[1])
			if err != nil {
				return err
			}
			if err := s.SetSortBy(cmd.Context(), c, sortBy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Context '%s' is sorted by %s\n", c.Name(), sortBy)
			return nil
		},
	}
	return cmd
}
