package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
	"github.com/grovetools/ccs/pkg/tree"
)

func NewOpenCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <context> <item>",
		Short: "Open an item of a context",
		Long: `Open an item in your editor. The item is a path, or a name that is
fuzzily matched against the context's items; the best match is opened.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			c, err := s.Context(args[0])
			if err != nil {
				return err
			}

			var node tree.Node
			found := false
			if resources, err := parseResources(args[1:]); err == nil {
				node, found = service.Node(c, resources[0])
			}
			if !found {
				matches := service.SearchItems(c, args[1])
				if len(matches) == 0 {
					return fmt.Errorf("no item matching %q in '%s'", args[1], c.Name())
				}
				node, _ = service.Node(c, matches[0].Item.Resource())
			}
			return s.OpenItem(cmd.Context(), node)
		},
	}
	return cmd
}
