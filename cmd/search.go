package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/search"
	"github.com/grovetools/ccs/pkg/service"
)

func NewSearchCmd(svc **service.Service) *cobra.Command {
	var (
		contextName string
		allSpaces   bool
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search tracked items",
		Long: `Fuzzy-search the items of one context, or search the index of every
workspace you have used.

Examples:
  ccs search read                # Pick a context, then match "read"
  ccs search -c Research read    # Match within "Research"
  ccs search --all handler       # Search all workspaces`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			out := cmd.OutOrStdout()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			if allSpaces {
				entries, err := s.SearchIndex(query, &search.Options{Context: contextName, Limit: limit})
				if err != nil {
					return err
				}
				printEntries(out, entries)
				return nil
			}

			var matches []search.Match
			if contextName != "" {
				c, err := s.Context(contextName)
				if err != nil {
					return err
				}
				matches = service.SearchItems(c, query)
			} else {
				outcome, err := s.SearchContext(cmd.Context(), query)
				if err != nil {
					return err
				}
				if outcome.Cancelled {
					return nil
				}
				matches = outcome.Value
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}
			printMatches(out, matches)
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextName, "context", "c", "", "Context to search")
	cmd.Flags().BoolVar(&allSpaces, "all", false, "Search the index of all workspaces")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	return cmd
}

func printMatches(out io.Writer, matches []search.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matching items found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\n", m.Item.DisplayName(), m.Item.Resource().Path())
	}
	w.Flush()
}

func printEntries(out io.Writer, entries []search.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching items found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKSPACE\tCONTEXT\tNAME\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Workspace, e.Context, e.Name, e.Resource.Path())
	}
	w.Flush()
}
