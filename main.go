package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/cmd"
	"github.com/grovetools/ccs/cmd/config"
	"github.com/grovetools/ccs/pkg/service"
)

var svc *service.Service

func main() {
	rootCmd := &cobra.Command{
		Use:   "ccs",
		Short: "Group files into named contexts",
		Long: `ccs keeps named sets of files and directories ("contexts") per workspace,
each with an optional description document. Contexts are stored in
.ccs/contexts.json at the workspace root.`,
		SilenceUsage: true,
	}
	config.AddGlobalFlags(rootCmd)
	cobra.OnInitialize(config.InitConfig)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		if c.Annotations[cmd.SkipServiceAnnotation] != "" {
			return nil
		}
		logger := config.NewLogger()
		var err error
		svc, err = config.InitService(c.Context(), logger)
		return err
	}
	// Add subcommands
	rootCmd.AddCommand(cmd.NewNewCmd(&svc))
	rootCmd.AddCommand(cmd.NewRenameCmd(&svc))
	rootCmd.AddCommand(cmd.NewRemoveCmd(&svc))
	rootCmd.AddCommand(cmd.NewDocCmd(&svc))
	rootCmd.AddCommand(cmd.NewSortCmd(&svc))
	rootCmd.AddCommand(cmd.NewAddCmd(&svc))
	rootCmd.AddCommand(cmd.NewRmCmd(&svc))
	rootCmd.AddCommand(cmd.NewOpenCmd(&svc))
	rootCmd.AddCommand(cmd.NewListCmd(&svc))
	rootCmd.AddCommand(cmd.NewSearchCmd(&svc))
	rootCmd.AddCommand(cmd.NewWatchCmd(&svc))
	rootCmd.AddCommand(cmd.NewTuiCmd(&svc))
	rootCmd.AddCommand(cmd.NewWorkspacesCmd(&svc))
	rootCmd.AddCommand(cmd.NewMigrateCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := execute(rootCmd); err != nil {
		os.Exit(1)
	}
}

// execute runs root and closes the service afterwards, also when the
// command failed. Cobra skips post-run hooks on RunE errors.
func execute(root *cobra.Command) error {
	err := root.Execute()
	if svc != nil {
		if cerr := svc.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "Error:", cerr)
			if err == nil {
				err = cerr
			}
		}
		svc = nil
	}
	return err
}
