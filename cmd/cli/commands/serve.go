package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/constants"
	"github.com/qualitylink/qldash/internal/web"
)

// GetServeCmd returns the serve command
func GetServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard to browsers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, err := cmd.Flags().GetString(flagListen)
			if err != nil {
				return fmt.Errorf("error getting listen flag: %w", err)
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			theme, closeFn, err := openThemeService()
			if err != nil {
				return err
			}
			defer closeFn()

			server, err := web.New(apiClient, theme, cfg.WebOptions())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, listen)
		},
	}
	serveCmd.Flags().StringP(flagListen, "l", "", fmt.Sprintf("Address to listen on (env: %s)", constants.EnvListenAddr))
	return serveCmd
}
