package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/dashboard"
)

// downloadOutput represents the result of a download
type downloadOutput struct {
	File        string `json:"file"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
}

// GetFilesCmd returns the files command
func GetFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Preview and download harvested files",
	}

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the content of a harvested file",
		RunE:  runPreviewFile,
	}
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Save a harvested file",
		RunE:  runDownloadFile,
	}
	downloadCmd.Flags().StringP(flagOutput, "o", "", "Output file (defaults to the file name in the current directory)")

	for _, c := range []*cobra.Command{previewCmd, downloadCmd} {
		c.Flags().String(flagPath, "", "Full datalake path of the file")
		c.Flags().StringP(flagName, "n", "", "File name (defaults to the last path segment)")
	}

	filesCmd.AddCommand(previewCmd, downloadCmd)
	return filesCmd
}

// fileArgs returns the display name and full path of the file flags.
// The path is not required here: a missing path is reported by the file action.
func fileArgs(cmd *cobra.Command) (string, string, error) {
	fullPath, err := cmd.Flags().GetString(flagPath)
	if err != nil {
		return "", "", fmt.Errorf("error getting path flag: %w", err)
	}
	name, err := cmd.Flags().GetString(flagName)
	if err != nil {
		return "", "", fmt.Errorf("error getting name flag: %w", err)
	}
	if name == "" && fullPath != "" {
		name = path.Base(fullPath)
	}
	return name, fullPath, nil
}

func runPreviewFile(cmd *cobra.Command, _ []string) error {
	name, fullPath, err := fileArgs(cmd)
	if err != nil {
		return err
	}

	toasts := startToasts(cmd)
	defer toasts.Close()

	d := dashboard.New(apiClient, toasts.Toasts, cfg.DashboardOptions())
	defer d.Close()

	preview, err := d.Preview(cmd.Context(), name, fullPath)
	if err != nil {
		return fmt.Errorf("error previewing file: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), preview.Content)
	return nil
}

func runDownloadFile(cmd *cobra.Command, _ []string) error {
	name, fullPath, err := fileArgs(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString(flagOutput)
	if err != nil {
		return fmt.Errorf("error getting output flag: %w", err)
	}

	toasts := startToasts(cmd)
	defer toasts.Close()

	d := dashboard.New(apiClient, toasts.Toasts, cfg.DashboardOptions())
	defer d.Close()

	file, err := d.Download(cmd.Context(), name, fullPath)
	if err != nil {
		return fmt.Errorf("error downloading file: %w", err)
	}

	if output == "" {
		output = filepath.Base(file.Filename)
	}
	if err := os.WriteFile(output, file.Data, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", output, err)
	}
	return printJSON(cmd, downloadOutput{
		File:        output,
		ContentType: file.ContentType,
		Size:        len(file.Data),
	})
}
