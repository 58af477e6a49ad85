package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/pkg/types"
)

// providerOutput represents the filtered output for a provider
type providerOutput struct {
	ProviderUUID string `json:"provider_uuid"`
	Name         string `json:"name"`
	DeqarID      string `json:"deqar_id,omitempty"`
	EterID       string `json:"eter_id,omitempty"`
}

// providerListOutput represents the filtered output for a search
type providerListOutput struct {
	Providers  []providerOutput `json:"providers"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
}

// GetProvidersCmd returns the providers command
func GetProvidersCmd() *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Search and inspect providers",
	}

	searchCmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search providers by name",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchProviders,
	}
	searchCmd.Flags().IntP(flagPage, "p", types.DefaultPage, "Page number for pagination")
	searchCmd.Flags().Int(flagPageSize, cfg.UI.PageSize, "Number of providers per page")

	getCmd := &cobra.Command{
		Use:   "get <provider-uuid>",
		Short: "Show the dashboard of a provider",
		Args:  cobra.ExactArgs(1),
		RunE:  runGetProvider,
	}
	getCmd.Flags().Bool(flagAllSources, false, "Also list the files of every data source")

	providersCmd.AddCommand(searchCmd, getCmd)
	return providersCmd
}

func runSearchProviders(cmd *cobra.Command, args []string) error {
	page, err := cmd.Flags().GetInt(flagPage)
	if err != nil {
		return fmt.Errorf("error getting page flag: %w", err)
	}
	pageSize, err := cmd.Flags().GetInt(flagPageSize)
	if err != nil {
		return fmt.Errorf("error getting page-size flag: %w", err)
	}

	term := strings.TrimSpace(strings.Join(args, " "))
	resp, err := apiClient.SearchProviders(cmd.Context(), types.SearchProvidersParams{
		SearchProvider: term,
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		return fmt.Errorf("error searching providers: %w", err)
	}

	output := providerListOutput{
		Providers:  make([]providerOutput, 0, len(resp.Response)),
		Total:      resp.Total,
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
	}
	for _, p := range resp.Response {
		output.Providers = append(output.Providers, providerOutput{
			ProviderUUID: p.ProviderUUID,
			Name:         p.ProviderName,
			DeqarID:      p.DeqarID,
			EterID:       p.EterID.String(),
		})
	}
	return printJSON(cmd, output)
}

func runGetProvider(cmd *cobra.Command, args []string) error {
	allSources, err := cmd.Flags().GetBool(flagAllSources)
	if err != nil {
		return fmt.Errorf("error getting all-sources flag: %w", err)
	}

	toasts := startToasts(cmd)
	defer toasts.Close()

	d, err := loadDashboard(cmd, toasts, args[0])
	if err != nil {
		return err
	}
	defer d.Close()

	if allSources {
		if err := d.LoadAllSources(cmd.Context()); err != nil {
			return err
		}
	}
	view, err := d.View()
	if err != nil {
		return err
	}
	return printJSON(cmd, view)
}

// loadDashboard opens the dashboard of a provider
func loadDashboard(cmd *cobra.Command, toasts *toastSession, providerUUID string) (*dashboard.Dashboard, error) {
	d := dashboard.New(apiClient, toasts.Toasts, cfg.DashboardOptions())
	if err := d.Load(cmd.Context(), providerUUID); err != nil {
		d.Close()
		return nil, fmt.Errorf("error loading provider: %s", dashboard.Describe(err))
	}
	return d, nil
}
