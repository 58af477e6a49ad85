package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/dashboard"
)

// GetManifestCmd returns the manifest command
func GetManifestCmd() *cobra.Command {
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Manage manifest discovery",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run manifest discovery again for a provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			providerUUID, err := requiredString(cmd, flagProvider)
			if err != nil {
				return err
			}

			toasts := startToasts(cmd)
			defer toasts.Close()

			d, err := loadDashboard(cmd, toasts, providerUUID)
			if err != nil {
				return err
			}
			defer d.Close()

			resp, err := d.RefreshDiscovery(cmd.Context())
			if err != nil {
				return fmt.Errorf("error refreshing manifest: %w", err)
			}
			return printJSON(cmd, struct {
				Summary string      `json:"summary"`
				Result  interface{} `json:"result"`
			}{
				Summary: dashboard.RefreshSummary(resp),
				Result:  resp,
			})
		},
	}
	refreshCmd.Flags().StringP(flagProvider, "p", "", "Provider UUID")

	manifestCmd.AddCommand(refreshCmd)
	return manifestCmd
}
