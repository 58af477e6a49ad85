package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/db"
	"github.com/qualitylink/qldash/internal/db/repos"
	"github.com/qualitylink/qldash/internal/services"
)

// openThemeService opens the preference store. The returned func closes it.
func openThemeService() (*services.Theme, func(), error) {
	conn, err := db.New(cfg.DBOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("error opening preference store: %w", err)
	}
	closeFn := func() { _ = db.Close(conn) }
	return services.NewTheme(repos.NewPreferenceRepository(conn)), closeFn, nil
}

// GetThemeCmd returns the theme command
func GetThemeCmd() *cobra.Command {
	themeCmd := &cobra.Command{
		Use:   "theme",
		Short: "Manage the dashboard theme",
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current theme",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openThemeService()
			if err != nil {
				return err
			}
			defer closeFn()

			theme, err := svc.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:       "set <theme>",
		Short:     "Select a theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: services.Themes,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openThemeService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Set(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), args[0])
			return nil
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Switch to the other theme",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := openThemeService()
			if err != nil {
				return err
			}
			defer closeFn()

			theme, err := svc.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}

	themeCmd.AddCommand(getCmd, setCmd, toggleCmd)
	return themeCmd
}
