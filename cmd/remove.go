package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewRemoveCmd(svc **service.Service) *cobra.Command {
	var deleteFiles bool

	cmd := &cobra.Command{
		Use:     "remove <context>",
		Aliases: []string{"delete"},
		Short:   "Remove a context",
		Long: `Remove a context and everything it tracks. Tracked files are never
touched. With --delete-files the context's own directory (holding its
document) is deleted as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}
			if err := s.RemoveContext(cmd.Context(), c, deleteFiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed context '%s'\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Also delete the context's directory and document")
	return cmd
}
