package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/types"
)

// FilePreview is the text content of a datalake file
type FilePreview struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	// JSON is set when Content was valid JSON and has been indented
	JSON bool `json:"json"`
}

// Preview fetches a file for display. A missing path fails with ErrMissingFilePath.
func (d *Dashboard) Preview(ctx context.Context, filename, fullPath string) (FilePreview, error) {
	if fullPath == "" {
		d.toasts.Show(notify.Toast{
			Type:    notify.TypeError,
			Title:   "Preview failed",
			Message: ErrMissingFilePath.Error(),
		})
		return FilePreview{}, ErrMissingFilePath
	}

	toastID := d.toasts.Show(notify.Toast{
		Type:      notify.TypeLoading,
		Title:     "Loading data",
		Message:   fmt.Sprintf("Fetching %s...", filename),
		IsLoading: true,
	})

	file, err := d.client.DownloadDatalakeFile(ctx, types.DownloadParams{FilePath: fullPath, Preview: true})
	if err != nil {
		d.toasts.Update(toastID, notify.Fail("Failed to load", client.Describe(err, "Could not fetch file content")))
		return FilePreview{}, err
	}

	preview := FilePreview{
		Filename:    filename,
		ContentType: file.ContentType,
		Content:     string(file.Data),
	}
	if pretty, ok := indentJSON(file.Data); ok {
		preview.Content = pretty
		preview.JSON = true
	}

	d.settle(toastID, "Data loaded", "File content retrieved successfully")
	return preview, nil
}

// Download fetches a file's raw bytes. Nothing is returned unless the whole
// body was received.
func (d *Dashboard) Download(ctx context.Context, filename, fullPath string) (types.DownloadedFile, error) {
	if fullPath == "" {
		d.toasts.Show(notify.Toast{
			Type:    notify.TypeError,
			Title:   "Download failed",
			Message: ErrMissingFilePath.Error(),
		})
		return types.DownloadedFile{}, ErrMissingFilePath
	}

	toastID := d.toasts.Show(notify.Toast{
		Type:      notify.TypeLoading,
		Title:     "Downloading",
		Message:   fmt.Sprintf("Preparing %s...", filename),
		IsLoading: true,
	})

	file, err := d.client.DownloadDatalakeFile(ctx, types.DownloadParams{FilePath: fullPath})
	if err != nil {
		d.toasts.Update(toastID, notify.Fail("Download failed", client.Describe(err, "Could not download file")))
		return types.DownloadedFile{}, err
	}
	if filename != "" {
		file.Filename = filename
	}

	d.settle(toastID, "Download complete", fmt.Sprintf("%s has been downloaded successfully", file.Filename))
	return file, nil
}

// settle turns a loading toast into a success toast
func (d *Dashboard) settle(toastID, title, message string) {
	typ, isLoading := notify.TypeSuccess, false
	d.toasts.Update(toastID, notify.Update{
		Type:      &typ,
		Title:     &title,
		Message:   &message,
		IsLoading: &isLoading,
	})
}

func indentJSON(data []byte) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return "", false
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return "", false
	}
	return strings.TrimRight(out.String(), "\n"), true
}
