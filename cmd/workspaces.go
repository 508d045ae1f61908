package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
)

func NewWorkspacesCmd(svc **service.Service) *cobra.Command {
	var (
		prune   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces that have contexts",
		Long: `List every workspace ccs has been used in, most recent first. These are
the workspaces 'ccs search --all' looks through.

Examples:
  ccs workspaces             # List
  ccs workspaces --prune     # Forget workspaces whose directory is gone`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			out := cmd.OutOrStdout()

			if prune {
				pruned, err := s.PruneWorkspaces()
				for _, w := range pruned {
					fmt.Fprintf(out, "Forgot %s\n", w.Path)
				}
				if err != nil {
					return err
				}
			}

			workspaces, err := s.Workspaces()
			if err != nil {
				return err
			}

			if jsonOut {
				data, err := json.MarshalIndent(workspaces, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal workspaces to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(workspaces) == 0 {
				fmt.Fprintln(out, "No workspaces recorded.")
				return nil
			}
			current := s.Workspace().Path
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tNAME\tTYPE\tLAST USED\tPATH")
			for _, ws := range workspaces {
				marker := " "
				if ws.Path == current {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", marker, ws.Name, ws.Type, ws.LastUsed.Format("2006-01-02 15:04"), ws.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Forget workspaces whose directory no longer exists")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}
