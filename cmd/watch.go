package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grovetools/ccs/pkg/service"
	"github.com/grovetools/ccs/pkg/watch"
)

func NewWatchCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Prune deleted files from contexts as they disappear",
		Long: `Watch every tracked file and directory and remove them from their
contexts when they are deleted or moved away. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			logger := s.Logger().WithField("component", "watch")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(logger)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Close()

			if err := w.Track(s.TrackedResources()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d paths, press Ctrl+C to stop\n", w.Watched())

			for {
				select {
				case <-ctx.Done():
					return nil
				case r, ok := <-w.Events():
					if !ok {
						return nil
					}
					// Only this goroutine mutates the store.
					n, err := s.PruneIfGone(ctx, r)
					if err != nil {
						logger.WithError(err).WithField("resource", r.Path()).Warn("Failed to prune deleted resource")
						continue
					}
					if n > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "Pruned %s (%d)\n", r.Path(), n)
					}
					if err := w.Track(s.TrackedResources()); err != nil {
						return err
					}
				}
			}
		},
	}
	return cmd
}
