package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grovetools/ccs/internal/tui/browser"
	"github.com/grovetools/ccs/pkg/service"
)

func NewTuiCmd(svc **service.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tui",
		Aliases: []string{"browse"},
		Short:   "Browse contexts interactively",
		Long: `Open the context tree in the terminal.

Contexts can be created, renamed, sorted and removed, and items opened in
the editor. Press ? for all keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			m := browser.New(cmd.Context(), s, browser.Options{Editor: viper.GetString("editor")})
			defer m.Close()

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}
			return nil
		},
	}
	return cmd
}
