package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovetools/ccs/cmd/config"
	"github.com/grovetools/ccs/pkg/fsys"
	"github.com/grovetools/ccs/pkg/migration"
	"github.com/grovetools/ccs/pkg/models"
	"github.com/grovetools/ccs/pkg/storage"
)

func NewMigrateCmd() *cobra.Command {
	var opts migration.Options

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade and repair the workspace's stored contexts",
		Long: `Rewrite contexts.json in the current format and repair drift from the file system.

Stores without a version or using the old contextDescription key are upgraded,
context documents get their frontmatter back, and items whose kind changed on
disk are re-recorded. Items that no longer exist are only dropped with
--prune-missing. A backup of contexts.json is written first unless --no-backup
is given.`,
		Annotations: map[string]string{SkipServiceAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := config.NewLogger()
			root, err := config.WorkspaceRoot()
			if err != nil {
				return err
			}
			rootRes, err := models.ParseResource(root)
			if err != nil {
				return fmt.Errorf("invalid workspace root: %w", err)
			}

			fs := fsys.NewOS()
			st := storage.New(fs, rootRes, viper.GetString("store_dir"), logrus.NewEntry(logger))
			out := cmd.OutOrStdout()

			if opts.DryRun {
				fmt.Fprintln(out, "Checking contexts (dry run)...")
			}
			report, err := migration.NewMigrator(fs, st, opts, out, logrus.NewEntry(logger)).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			migration.WriteSummary(out, report, opts.DryRun)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report issues without changing anything")
	cmd.Flags().BoolVar(&opts.Verbose, "details", false, "List every issue found")
	cmd.Flags().BoolVar(&opts.NoBackup, "no-backup", false, "Do not back up files before rewriting them")
	cmd.Flags().BoolVar(&opts.PruneMissing, "prune-missing", false, "Drop items that no longer exist")

	return cmd
}
