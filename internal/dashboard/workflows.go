package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/types"
)

// Toast texts of the workflows
const (
	refreshTitle      = "Refreshing..."
	refreshMessage    = "Looking for the manifest file..."
	refreshDoneTitle  = "Refresh complete"
	refreshFailTitle  = "Refresh failed"
	refreshFallback   = "Failed to refresh manifest"
	manifestNotFound  = "Manifest not found"
	newVersionSuffix  = " - New source version created!"
	queueTitle        = "Queueing data fetch..."
	queueMessage      = "Requesting data source refresh..."
	queueDoneTitle    = "Request queued"
	queueDoneMessage  = "Data source has been queued for fetching. Results will appear shortly."
	queueFailTitle    = "Queue failed"
	queueFallback     = "Failed to queue data source fetch"
)

// RefreshSummary is the completion message of a refresh discovery
func RefreshSummary(resp types.PullManifestResponse) string {
	if !resp.ManifestFound {
		return manifestNotFound
	}
	url := ""
	if resp.ManifestURL != nil {
		url = *resp.ManifestURL
	}
	msg := "Manifest found at " + url
	if resp.NewSourceVersionCreated {
		msg += newVersionSuffix
	}
	return msg
}

// RefreshDiscovery re-runs manifest discovery for the loaded provider and
// reloads its details. It returns once the toast has settled.
func (d *Dashboard) RefreshDiscovery(ctx context.Context) (types.PullManifestResponse, error) {
	providerUUID := d.ProviderUUID()
	if providerUUID == "" {
		return types.PullManifestResponse{}, ErrNoProvider
	}
	if err := d.refresh.Acquire(); err != nil {
		return types.PullManifestResponse{}, err
	}

	toastID := d.toasts.Show(notify.Loading(refreshTitle, refreshMessage))
	sim := d.toasts.SimulateProgress(toastID)

	resp, err := d.client.PullManifest(ctx, providerUUID)
	d.refresh.Release()
	if err != nil {
		sim.Stop()
		d.fail(toastID, refreshFailTitle, err, refreshFallback)
		return types.PullManifestResponse{}, err
	}
	sim.Finish()

	current, err := d.reloadIfCurrent(ctx, providerUUID)
	if err != nil {
		d.fail(toastID, refreshFailTitle, err, refreshFallback)
		return resp, err
	}
	if !current {
		logger.DebugWithFields("dashboard moved to another provider during refresh", map[string]interface{}{
			"provider_uuid": providerUUID,
		})
	}

	d.grace(ctx)
	d.toasts.Update(toastID, notify.Complete(refreshDoneTitle, RefreshSummary(resp)))

	logger.InfoWithFields("manifest refreshed", map[string]interface{}{
		"provider_uuid":  providerUUID,
		"manifest_found": resp.ManifestFound,
		"new_version":    resp.NewSourceVersionCreated,
	})
	return resp, nil
}

// QueueDataFetch asks the aggregator to harvest one source again. The
// source's cached listing is dropped so the next expand shows new files.
func (d *Dashboard) QueueDataFetch(ctx context.Context, sourceUUID string) (types.QueueProviderDataResponse, error) {
	src, err := d.Source(sourceUUID)
	if err != nil {
		return types.QueueProviderDataResponse{}, err
	}
	data, _ := d.Data()
	versionUUID := data.SourceVersionUUID()
	if versionUUID == "" {
		return types.QueueProviderDataResponse{}, ErrNoSourceVersion
	}

	trigger := d.QueueTrigger(sourceUUID)
	if err := trigger.Acquire(); err != nil {
		return types.QueueProviderDataResponse{}, err
	}

	toastID := d.toasts.Show(notify.Loading(queueTitle, queueMessage))
	sim := d.toasts.SimulateProgress(toastID)

	resp, err := d.client.QueueProviderData(ctx, types.QueueProviderDataParams{
		SourceRef: types.SourceRef{
			ProviderUUID:      data.Provider.ProviderUUID,
			SourceVersionUUID: versionUUID,
			SourceUUID:        src.SourceUUID,
		},
		SourcePath: src.SourcePath,
	})
	trigger.Release()
	if err != nil {
		sim.Stop()
		d.fail(toastID, queueFailTitle, err, queueFallback)
		return types.QueueProviderDataResponse{}, fmt.Errorf("failed to queue source %s: %w", sourceUUID, err)
	}
	sim.Finish()

	d.Expander().Invalidate(sourceUUID)

	d.grace(ctx)
	d.toasts.Update(toastID, notify.Complete(queueDoneTitle, queueDoneMessage))

	logger.InfoWithFields("data fetch queued", map[string]interface{}{
		"provider_uuid": data.Provider.ProviderUUID,
		"source_uuid":   sourceUUID,
		"queue":         resp.Queue,
	})
	return resp, nil
}

// fail turns the workflow toast into an error toast
func (d *Dashboard) fail(toastID, title string, err error, fallback string) {
	logger.WarnWithFields(title, map[string]interface{}{
		"provider_uuid": d.ProviderUUID(),
		"error":         err.Error(),
	})
	d.toasts.Update(toastID, notify.Fail(title, client.Describe(err, fallback)))
}

// grace waits before settling a toast so a full progress bar is visible.
// A cancelled context cuts the wait short.
func (d *Dashboard) grace(ctx context.Context) {
	if d.opts.Grace <= 0 {
		return
	}
	timer := time.NewTimer(d.opts.Grace)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
