package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/api/v1/client/mock"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
)

const (
	providerUUID = "2b6a6c1e-8f1a-4f7e-9d64-0f6c8c7c1a11"
	versionUUID  = "5d0b7c2a-3a4e-4f0e-8d1b-9f4f1d3e2a22"
	sourceUUID   = "9a1f4e3c-6b2d-4c5e-8a7f-1e2d3c4b5a33"

	testCooldown = 150 * time.Millisecond
	testGrace    = 20 * time.Millisecond
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func providerResponse() types.GetProviderResponse {
	created, _ := models.ParseTimestamp("2025-09-01T08:00:00")
	pulled, _ := models.ParseTimestamp("2025-09-20T14:05:00")
	return types.GetProviderResponse{
		Provider: models.ProviderDetails{
			ProviderUUID: providerUUID,
			ProviderName: "University of Oxford",
			DeqarID:      "DEQARINST0001",
			EterID:       "1234",
			Metadata: models.ProviderMetadata{
				WebsiteLink: "https://www.ox.ac.uk/",
				City:        []string{"Oxford"},
				Country:     []string{"United Kingdom"},
				Names:       []models.ProviderName{{NameOfficial: "The University of Oxford"}},
				Identifiers: []models.ProviderIdentifier{
					{Resource: "ETER", Identifier: "UK0001"},
					{Resource: "SCHAC", Identifier: "ox.ac.uk"},
					{Resource: "empty"},
				},
			},
			ManifestJSON: []models.ManifestMethod{
				{Domain: strPtr("www.ox.ac.uk"), Type: models.MethodDNSTXT, Check: boolPtr(false)},
				{Domain: strPtr("www.ox.ac.uk"), Type: models.MethodWellKnown, Check: boolPtr(true), Path: strPtr("https://www.ox.ac.uk/.well-known/qualitylink.json")},
				{Domain: strPtr("ox.ac.uk"), Type: models.MethodDNSTXT},
			},
			CreatedAt:        created,
			LastManifestPull: pulled,
		},
		SourceVersion: &models.SourceVersion{SourceVersionUUID: versionUUID, VersionID: 3},
		Sources: []models.Source{
			{SourceUUID: sourceUUID, SourcePath: "https://www.ox.ac.uk/data/courses.json", SourceType: "ooapi", CreatedAt: created},
		},
	}
}

func newTestClient() *mock.MockClient {
	return &mock.MockClient{
		GetProviderFn: func(context.Context, string) (types.GetProviderResponse, error) {
			return providerResponse(), nil
		},
		ListDatalakeDatesFn: func(context.Context, types.DatalakeDatesParams) (types.DatalakeDatesResponse, error) {
			return types.DatalakeDatesResponse{Dates: []string{"2025-09-20"}}, nil
		},
		ListDatalakeFilesFn: func(context.Context, types.DatalakeFilesParams) (types.DatalakeFilesResponse, error) {
			return types.DatalakeFilesResponse{Files: []models.DatalakeFile{
				{Filename: "a.json", FullPath: "p/a.json"},
				{Filename: "b.json", FullPath: "p/b.json"},
			}}, nil
		},
	}
}

func newTestDashboard(t *testing.T, m *mock.MockClient) (*Dashboard, *notify.Manager) {
	t.Helper()
	toasts := notify.NewManager(notify.Options{Duration: time.Hour, ProgressInterval: 2 * time.Millisecond})
	d := New(m, toasts, Options{Cooldown: testCooldown, Grace: testGrace})
	t.Cleanup(func() {
		d.Close()
		toasts.Close()
	})
	return d, toasts
}

func loaded(t *testing.T, m *mock.MockClient) (*Dashboard, *notify.Manager) {
	t.Helper()
	d, toasts := newTestDashboard(t, m)
	require.NoError(t, d.Load(context.Background(), providerUUID))
	return d, toasts
}

func onlyToast(t *testing.T, toasts *notify.Manager) notify.Toast {
	t.Helper()
	list := toasts.List()
	require.Len(t, list, 1)
	return list[0]
}

func TestDashboard_Load(t *testing.T) {
	m := newTestClient()
	d, _ := newTestDashboard(t, m)

	assert.ErrorIs(t, d.Load(context.Background(), ""), ErrNoProvider)
	assert.Equal(t, "No provider ID provided", ErrNoProvider.Error())

	require.NoError(t, d.Load(context.Background(), providerUUID))
	data, ok := d.Data()
	require.True(t, ok)
	assert.Equal(t, "University of Oxford", data.Provider.ProviderName)
	assert.Equal(t, []string{providerUUID}, m.GetProviderCalls)
}

func TestDashboard_LoadError(t *testing.T) {
	m := newTestClient()
	m.GetProviderFn = func(context.Context, string) (types.GetProviderResponse, error) {
		return types.GetProviderResponse{}, errors.New("aggregator returned 404: Provider not found")
	}
	d, _ := newTestDashboard(t, m)

	err := d.Load(context.Background(), providerUUID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Provider not found")
	_, ok := d.Data()
	assert.False(t, ok)

	_, err = d.View()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestDashboard_View(t *testing.T) {
	d, _ := loaded(t, newTestClient())

	v, err := d.View()
	require.NoError(t, err)
	assert.Equal(t, "University of Oxford", v.Name)
	assert.Equal(t, "The University of Oxford", v.OfficialName)
	assert.Equal(t, "1234", v.EterID)
	assert.Equal(t, "www.ox.ac.uk", v.WebsiteHost)
	assert.Equal(t, "Oxford, United Kingdom", v.Location)
	assert.Equal(t, []string{"ETER: UK0001", "SCHAC: ox.ac.uk"}, v.Identifiers)
	assert.Equal(t, "20 Sep 2025, 14:05", v.LastUpdated)
	assert.True(t, v.ManifestFound)
	assert.True(t, v.CanRefresh)
	assert.Equal(t, 3, v.VersionID)

	require.Len(t, v.Domains, 3)
	assert.Equal(t, DomainRow{Domain: "www.ox.ac.uk", Method: "DNS TXT", Status: models.StatusNotFound, Message: "Manifest not found"}, v.Domains[0])
	assert.Equal(t, models.StatusFound, v.Domains[1].Status)
	assert.Equal(t, ".well-known", v.Domains[1].Method)
	assert.Equal(t, "https://www.ox.ac.uk/.well-known/qualitylink.json", v.Domains[1].ManifestPath)
	assert.Equal(t, "Not searched yet", v.Domains[2].Message)

	require.Len(t, v.Sources, 1)
	row := v.Sources[0]
	assert.Equal(t, "courses.json", row.Name)
	assert.Equal(t, "OOAPI", row.Type)
	assert.Equal(t, "1 Sep 2025", row.Created)
	assert.False(t, row.Loaded)
	assert.Equal(t, "courses.json", row.LatestFile)
	assert.True(t, row.CanQueue)
}

func TestDashboard_ViewAfterExpand(t *testing.T) {
	m := newTestClient()
	d, _ := loaded(t, m)

	require.NoError(t, d.ExpandSource(context.Background(), sourceUUID))
	v, err := d.View()
	require.NoError(t, err)

	row := v.Sources[0]
	assert.True(t, row.Expanded)
	assert.True(t, row.Loaded)
	require.Len(t, row.Files, 2)
	assert.False(t, row.Files[0].Pushed)
	assert.True(t, row.Files[1].Pushed)
	require.NotNil(t, row.Latest)
	assert.Equal(t, "b.json", row.LatestFile)

	assert.ErrorIs(t, d.ExpandSource(context.Background(), "nope"), ErrUnknownSource)
}

func TestDashboard_ReloadKeepsCacheForSameVersion(t *testing.T) {
	m := newTestClient()
	d, _ := loaded(t, m)
	require.NoError(t, d.ExpandSource(context.Background(), sourceUUID))

	require.NoError(t, d.Load(context.Background(), providerUUID))
	_, ok := d.Expander().Entry(sourceUUID)
	assert.True(t, ok)

	m.GetProviderFn = func(context.Context, string) (types.GetProviderResponse, error) {
		resp := providerResponse()
		resp.SourceVersion.SourceVersionUUID = "11111111-2222-4333-8444-555555555555"
		return resp, nil
	}
	require.NoError(t, d.Load(context.Background(), providerUUID))
	_, ok = d.Expander().Entry(sourceUUID)
	assert.False(t, ok, "a new source version starts with an empty cache")
}

func TestRefreshDiscovery_ManifestNotFound(t *testing.T) {
	m := newTestClient()
	var mu sync.Mutex
	var settled time.Time
	m.PullManifestFn = func(context.Context, string) (types.PullManifestResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		settled = time.Now()
		return types.PullManifestResponse{ManifestFound: false}, nil
	}
	d, toasts := loaded(t, m)

	resp, err := d.RefreshDiscovery(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.ManifestFound)

	toast := onlyToast(t, toasts)
	assert.True(t, toast.IsComplete)
	assert.False(t, toast.IsLoading)
	assert.Equal(t, "Refresh complete", toast.Title)
	assert.Equal(t, "Manifest not found", toast.Message)
	assert.Equal(t, 100.0, toast.Progress)

	// provider details were reloaded
	assert.Len(t, m.GetProviderCalls, 2)

	// disabled during the cooldown, enabled right after it
	assert.False(t, d.RefreshTrigger().Enabled())
	_, err = d.RefreshDiscovery(context.Background())
	assert.ErrorIs(t, err, ErrTriggerDisabled)

	require.Eventually(t, d.RefreshTrigger().Enabled, time.Second, time.Millisecond)
	mu.Lock()
	elapsed := time.Since(settled)
	mu.Unlock()
	assert.GreaterOrEqual(t, elapsed, testCooldown)
	assert.Less(t, elapsed, testCooldown+100*time.Millisecond)
}

func TestRefreshDiscovery_ManifestFound(t *testing.T) {
	m := newTestClient()
	m.PullManifestFn = func(context.Context, string) (types.PullManifestResponse, error) {
		return types.PullManifestResponse{
			ManifestFound:           true,
			ManifestURL:             strPtr("https://www.ox.ac.uk/.well-known/qualitylink.json"),
			NewSourceVersionCreated: true,
		}, nil
	}
	d, toasts := loaded(t, m)

	_, err := d.RefreshDiscovery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Manifest found at https://www.ox.ac.uk/.well-known/qualitylink.json - New source version created!", onlyToast(t, toasts).Message)
}

func TestRefreshDiscovery_Locked(t *testing.T) {
	m := newTestClient()
	m.PullManifestFn = func(context.Context, string) (types.PullManifestResponse, error) {
		return types.PullManifestResponse{}, &client.HTTPError{StatusCode: client.StatusTooManyRequestsLock, Body: `{"detail":"busy"}`}
	}
	d, toasts := loaded(t, m)

	_, err := d.RefreshDiscovery(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsLocked(err))

	toast := onlyToast(t, toasts)
	assert.Equal(t, notify.TypeError, toast.Type)
	assert.Equal(t, "Refresh failed", toast.Title)
	assert.Equal(t, client.MessageLocked, toast.Message)

	// the cooldown also applies after a failure
	assert.False(t, d.RefreshTrigger().Enabled())
	assert.Eventually(t, d.RefreshTrigger().Enabled, time.Second, time.Millisecond)
}

func TestRefreshDiscovery_ProviderChangedInFlight(t *testing.T) {
	const otherUUID = "7e3c2a1b-4d5f-4a6b-9c8d-2e1f0a9b8c44"
	m := newTestClient()
	m.GetProviderFn = func(_ context.Context, id string) (types.GetProviderResponse, error) {
		resp := providerResponse()
		if id == otherUUID {
			resp.Provider.ProviderUUID = otherUUID
			resp.Provider.ProviderName = "Oxford Brookes University"
		}
		return resp, nil
	}
	var d *Dashboard
	var toasts *notify.Manager
	m.PullManifestFn = func(ctx context.Context, _ string) (types.PullManifestResponse, error) {
		// the page switches provider while the pull is running
		if err := d.Load(ctx, otherUUID); err != nil {
			return types.PullManifestResponse{}, err
		}
		return types.PullManifestResponse{ManifestFound: false}, nil
	}
	d, toasts = loaded(t, m)

	_, err := d.RefreshDiscovery(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{providerUUID}, m.PullManifestCalls)
	assert.Equal(t, otherUUID, d.ProviderUUID())
	data, ok := d.Data()
	require.True(t, ok)
	assert.Equal(t, "Oxford Brookes University", data.Provider.ProviderName)
	assert.Equal(t, []string{providerUUID, otherUUID, providerUUID}, m.GetProviderCalls)

	toast := onlyToast(t, toasts)
	assert.Equal(t, "Refresh complete", toast.Title)
	assert.True(t, toast.IsComplete)
}

func TestNew_ZeroOptionsUseDefaults(t *testing.T) {
	toasts := notify.NewManager(notify.Options{})
	d := New(newTestClient(), toasts, Options{})
	t.Cleanup(func() {
		d.Close()
		toasts.Close()
	})

	assert.Equal(t, DefaultCooldown, d.opts.Cooldown)
	assert.Equal(t, DefaultGrace, d.opts.Grace)
	assert.Equal(t, DefaultCooldown, d.RefreshTrigger().cooldown)
	assert.Equal(t, DefaultCooldown, d.QueueTrigger(sourceUUID).cooldown)
}

func TestRefreshDiscovery_NoProvider(t *testing.T) {
	d, _ := newTestDashboard(t, newTestClient())
	_, err := d.RefreshDiscovery(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestRefreshDiscovery_ProgressIsSimulatedWhileInFlight(t *testing.T) {
	m := newTestClient()
	release := make(chan struct{})
	m.PullManifestFn = func(context.Context, string) (types.PullManifestResponse, error) {
		<-release
		return types.PullManifestResponse{}, nil
	}
	d, toasts := loaded(t, m)

	done := make(chan struct{})
	go func() {
		_, _ = d.RefreshDiscovery(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		list := toasts.List()
		return len(list) == 1 && list[0].Progress > 0
	}, time.Second, 2*time.Millisecond)

	toast := toasts.List()[0]
	assert.True(t, toast.SimulatedProgress)
	assert.True(t, toast.Pending())
	assert.LessOrEqual(t, toast.Progress, notify.DefaultProgressCap)
	assert.Equal(t, "Refreshing...", toast.Title)

	close(release)
	<-done
}

func TestQueueDataFetch(t *testing.T) {
	m := newTestClient()
	m.QueueProviderDataFn = func(context.Context, types.QueueProviderDataParams) (types.QueueProviderDataResponse, error) {
		return types.QueueProviderDataResponse{Status: "success", Queue: "provider_data"}, nil
	}
	d, toasts := loaded(t, m)
	require.NoError(t, d.ExpandSource(context.Background(), sourceUUID))

	_, err := d.QueueDataFetch(context.Background(), sourceUUID)
	require.NoError(t, err)

	require.Len(t, m.QueueProviderDataCalls, 1)
	call := m.QueueProviderDataCalls[0]
	assert.Equal(t, providerUUID, call.ProviderUUID)
	assert.Equal(t, versionUUID, call.SourceVersionUUID)
	assert.Equal(t, sourceUUID, call.SourceUUID)
	assert.Equal(t, "https://www.ox.ac.uk/data/courses.json", call.SourcePath)

	toast := onlyToast(t, toasts)
	assert.True(t, toast.IsComplete)
	assert.Equal(t, "Request queued", toast.Title)
	assert.Equal(t, "Data source has been queued for fetching. Results will appear shortly.", toast.Message)

	// the listing is fetched again on the next expand
	_, ok := d.Expander().Entry(sourceUUID)
	assert.False(t, ok)
	require.NoError(t, d.ExpandSource(context.Background(), sourceUUID))
	assert.Len(t, m.FilesCallsFor(sourceUUID), 2)

	// per-source cooldown
	assert.False(t, d.QueueTrigger(sourceUUID).Enabled())
	assert.True(t, d.QueueTrigger("other").Enabled())
	_, err = d.QueueDataFetch(context.Background(), sourceUUID)
	assert.ErrorIs(t, err, ErrTriggerDisabled)
}

func TestQueueDataFetch_Outdated(t *testing.T) {
	m := newTestClient()
	m.QueueProviderDataFn = func(context.Context, types.QueueProviderDataParams) (types.QueueProviderDataResponse, error) {
		return types.QueueProviderDataResponse{}, &client.HTTPError{StatusCode: client.StatusOutdatedVersion}
	}
	d, toasts := loaded(t, m)

	_, err := d.QueueDataFetch(context.Background(), sourceUUID)
	require.Error(t, err)
	assert.True(t, client.IsOutdated(err))

	toast := onlyToast(t, toasts)
	assert.Equal(t, notify.TypeError, toast.Type)
	assert.Equal(t, "Queue failed", toast.Title)
	assert.Equal(t, client.MessageOutdated, toast.Message)
}

func TestQueueDataFetch_NoSourceVersion(t *testing.T) {
	m := newTestClient()
	m.GetProviderFn = func(context.Context, string) (types.GetProviderResponse, error) {
		resp := providerResponse()
		resp.SourceVersion = nil
		return resp, nil
	}
	d, _ := loaded(t, m)

	_, err := d.QueueDataFetch(context.Background(), sourceUUID)
	assert.ErrorIs(t, err, ErrNoSourceVersion)
	assert.Empty(t, m.QueueProviderDataCalls)

	v, err := d.View()
	require.NoError(t, err)
	assert.False(t, v.Sources[0].CanQueue)
}

func TestTrigger(t *testing.T) {
	tr := NewTrigger(30 * time.Millisecond)
	require.NoError(t, tr.Acquire())
	assert.ErrorIs(t, tr.Acquire(), ErrTriggerDisabled)
	assert.True(t, tr.EnabledAt().IsZero())

	tr.Release()
	assert.False(t, tr.Enabled())
	assert.False(t, tr.EnabledAt().IsZero())
	assert.Eventually(t, tr.Enabled, time.Second, time.Millisecond)
	assert.True(t, tr.EnabledAt().IsZero())

	instant := NewTrigger(0)
	require.NoError(t, instant.Acquire())
	instant.Release()
	assert.True(t, instant.Enabled())

	stopped := NewTrigger(10 * time.Millisecond)
	require.NoError(t, stopped.Acquire())
	stopped.Release()
	stopped.Stop()
	assert.Never(t, stopped.Enabled, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, client.MessageLocked, Describe(&client.HTTPError{StatusCode: 423}))
	assert.Equal(t, "File path not available for this file", Describe(ErrMissingFilePath))
	assert.Empty(t, Describe(nil))
}
