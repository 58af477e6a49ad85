package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/pkg/types"
)

// GetSourcesCmd returns the sources command
func GetSourcesCmd() *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect and harvest the data sources of a provider",
	}

	datesCmd := &cobra.Command{
		Use:   "dates",
		Short: "List the harvest dates of a data source",
		RunE:  runListDates,
	}
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "List the harvested files of a data source",
		RunE:  runListFiles,
	}
	filesCmd.Flags().StringP(flagDate, "d", "", "Harvest date (defaults to the latest)")

	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue a new harvest of a data source",
		RunE:  runQueueSource,
	}

	for _, c := range []*cobra.Command{datesCmd, filesCmd, queueCmd} {
		c.Flags().StringP(flagProvider, "p", "", "Provider UUID")
		c.Flags().String(flagSource, "", "Data source UUID")
	}
	for _, c := range []*cobra.Command{datesCmd, filesCmd} {
		c.Flags().String(flagVersion, "", "Source version UUID (defaults to the provider's latest)")
	}

	sourcesCmd.AddCommand(datesCmd, filesCmd, queueCmd)
	return sourcesCmd
}

// sourceRef resolves the provider, version and source of a listing command.
// The provider is fetched for the source path and, without --version, its latest version.
func sourceRef(cmd *cobra.Command) (types.SourceRef, string, error) {
	providerUUID, err := requiredString(cmd, flagProvider)
	if err != nil {
		return types.SourceRef{}, "", err
	}
	sourceUUID, err := requiredString(cmd, flagSource)
	if err != nil {
		return types.SourceRef{}, "", err
	}
	versionUUID, err := cmd.Flags().GetString(flagVersion)
	if err != nil {
		return types.SourceRef{}, "", fmt.Errorf("error getting version flag: %w", err)
	}

	ref := types.SourceRef{
		ProviderUUID:      providerUUID,
		SourceVersionUUID: versionUUID,
		SourceUUID:        sourceUUID,
	}

	resp, err := apiClient.GetProvider(cmd.Context(), providerUUID)
	if err != nil {
		return ref, "", fmt.Errorf("error getting provider: %w", err)
	}
	if ref.SourceVersionUUID == "" {
		ref.SourceVersionUUID = resp.SourceVersionUUID()
	}
	if ref.SourceVersionUUID == "" {
		return ref, "", fmt.Errorf("provider %s has no source version yet", providerUUID)
	}
	for _, src := range resp.Sources {
		if src.SourceUUID == sourceUUID {
			return ref, src.SourcePath, nil
		}
	}
	return ref, "", fmt.Errorf("provider %s has no data source %s", providerUUID, sourceUUID)
}

func runListDates(cmd *cobra.Command, _ []string) error {
	ref, _, err := sourceRef(cmd)
	if err != nil {
		return err
	}
	dates, err := apiClient.ListDatalakeDates(cmd.Context(), types.DatalakeDatesParams{SourceRef: ref})
	if err != nil {
		return fmt.Errorf("error listing dates: %w", err)
	}
	return printJSON(cmd, dates)
}

func runListFiles(cmd *cobra.Command, _ []string) error {
	ref, sourcePath, err := sourceRef(cmd)
	if err != nil {
		return err
	}
	date, err := cmd.Flags().GetString(flagDate)
	if err != nil {
		return fmt.Errorf("error getting date flag: %w", err)
	}
	if date == "" {
		dates, err := apiClient.ListDatalakeDates(cmd.Context(), types.DatalakeDatesParams{SourceRef: ref})
		if err != nil {
			return fmt.Errorf("error listing dates: %w", err)
		}
		date = dates.Latest()
	}

	files, err := apiClient.ListDatalakeFiles(cmd.Context(), types.DatalakeFilesParams{
		SourceRef:  ref,
		SourcePath: sourcePath,
		Date:       date,
	})
	if err != nil {
		return fmt.Errorf("error listing files: %w", err)
	}
	return printJSON(cmd, files)
}

func runQueueSource(cmd *cobra.Command, _ []string) error {
	providerUUID, err := requiredString(cmd, flagProvider)
	if err != nil {
		return err
	}
	sourceUUID, err := requiredString(cmd, flagSource)
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

	resp, err := d.QueueDataFetch(cmd.Context(), sourceUUID)
	if err != nil {
		return fmt.Errorf("error queueing data fetch: %w", err)
	}
	return printJSON(cmd, resp)
}
