package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/api/v1/routes"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/test/mocks"
)

func newDashboard(s *Suite) (*dashboard.Dashboard, *notify.Manager) {
	toasts := notify.NewManager(notify.Options{Duration: time.Hour, ProgressInterval: 2 * time.Millisecond})
	d := dashboard.New(s.APIClient, toasts, dashboard.Options{Cooldown: 200 * time.Millisecond, Grace: 5 * time.Millisecond})
	s.T().Cleanup(func() {
		d.Close()
		toasts.Close()
	})
	return d, toasts
}

func lastToast(t *testing.T, toasts *notify.Manager) notify.Toast {
	t.Helper()
	list := toasts.List()
	require.NotEmpty(t, list)
	return list[len(list)-1]
}

func TestDashboard_LoadAndView(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, _ := newDashboard(suite)

	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))
	view, err := d.View()
	require.NoError(t, err)

	assert.Equal(t, "University of Oxford", view.Name)
	assert.Equal(t, "The Chancellor, Masters and Scholars of the University of Oxford", view.OfficialName)
	assert.Equal(t, "www.ox.ac.uk", view.WebsiteHost)
	assert.Equal(t, "Oxford, United Kingdom", view.Location)
	assert.Equal(t, []string{"SCHAC: ox.ac.uk"}, view.Identifiers)
	assert.True(t, view.ManifestFound)
	assert.True(t, view.CanRefresh)

	require.Len(t, view.Domains, 2)
	assert.Equal(t, models.StatusFound, view.Domains[0].Status)
	assert.Equal(t, "https://ox.ac.uk/.well-known/quality-link-manifest", view.Domains[0].ManifestPath)
	assert.Equal(t, "Not searched yet", view.Domains[1].Message)

	require.Len(t, view.Sources, 2)
	assert.Equal(t, "courses.json", view.Sources[0].Name)
	assert.Equal(t, "Staff", view.Sources[1].Name)
	assert.False(t, view.Sources[0].Loaded, "listings are fetched on expand")
	assert.Zero(t, suite.Aggregator.Calls(routes.GetRoute(routes.ListDatalakeDates)))
}

func TestDashboard_ProviderWithoutManifest(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, _ := newDashboard(suite)

	require.NoError(t, d.Load(suite.Context(), mocks.BrookesUUID))
	view, err := d.View()
	require.NoError(t, err)
	assert.False(t, view.ManifestFound)
	assert.Empty(t, view.VersionUUID)
	assert.Empty(t, view.Sources)
	for _, row := range view.Domains {
		assert.Equal(t, "Manifest not found", row.Message)
	}
}

func TestDashboard_ExpandCachesListing(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, _ := newDashboard(suite)
	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))

	require.NoError(t, d.ExpandSource(suite.Context(), mocks.CoursesSourceUUID))
	d.Expander().Collapse(mocks.CoursesSourceUUID)
	require.NoError(t, d.ExpandSource(suite.Context(), mocks.CoursesSourceUUID))
	assert.Equal(t, 1, suite.Aggregator.Calls(routes.GetRoute(routes.ListDatalakeDates)), "second expand is served from cache")

	view, err := d.View()
	require.NoError(t, err)
	row := view.Sources[0]
	assert.True(t, row.Expanded)
	assert.Equal(t, "2025-09-20", row.SelectedDate)
	assert.Equal(t, []string{"2025-09-20", "2025-09-19"}, row.Dates)
	require.NotNil(t, row.Latest)
	assert.Equal(t, "courses-0920b.json", row.Latest.Filename)

	require.NoError(t, d.SelectDate(suite.Context(), mocks.CoursesSourceUUID, "2025-09-19"))
	view, err = d.View()
	require.NoError(t, err)
	assert.Equal(t, "courses-0919.json", view.Sources[0].LatestFile)
}

func TestDashboard_RefreshCreatesVersion(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, toasts := newDashboard(suite)
	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))
	require.NoError(t, d.ExpandSource(suite.Context(), mocks.CoursesSourceUUID))

	p := mocks.OxfordProvider()
	p.Discovery.NewVersion = true
	suite.Aggregator.AddProvider(p)

	resp, err := d.RefreshDiscovery(suite.Context())
	require.NoError(t, err)
	assert.True(t, resp.NewSourceVersionCreated)

	toast := lastToast(t, toasts)
	assert.Equal(t, "Refresh complete", toast.Title)
	assert.Equal(t, "Manifest found at https://ox.ac.uk/.well-known/quality-link-manifest - New source version created!", toast.Message)
	assert.False(t, toast.Pending())

	view, err := d.View()
	require.NoError(t, err)
	assert.Equal(t, 2, view.VersionID)
	assert.NotEqual(t, mocks.OxfordVersionUUID, view.VersionUUID)
	assert.False(t, view.Sources[0].Loaded, "listings of the old version are dropped")
	assert.False(t, view.CanRefresh, "refresh cools down")

	_, err = d.RefreshDiscovery(suite.Context())
	assert.ErrorIs(t, err, dashboard.ErrTriggerDisabled)
	assert.Eventually(t, d.RefreshTrigger().Enabled, time.Second, 10*time.Millisecond)
}

func TestDashboard_RefreshLocked(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, toasts := newDashboard(suite)
	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))
	suite.Aggregator.Lock(mocks.OxfordUUID)

	_, err := d.RefreshDiscovery(suite.Context())
	assert.True(t, client.IsLocked(err))

	toast := lastToast(t, toasts)
	assert.Equal(t, notify.TypeError, toast.Type)
	assert.Equal(t, "Refresh failed", toast.Title)
	assert.Equal(t, client.MessageLocked, toast.Message)
}

func TestDashboard_QueueDataFetch(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, toasts := newDashboard(suite)
	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))
	require.NoError(t, d.ExpandSource(suite.Context(), mocks.CoursesSourceUUID))

	resp, err := d.QueueDataFetch(suite.Context(), mocks.CoursesSourceUUID)
	require.NoError(t, err)
	assert.Equal(t, "harvest", resp.Queue)
	assert.Equal(t, "Request queued", lastToast(t, toasts).Title)

	_, cached := d.Expander().Entry(mocks.CoursesSourceUUID)
	assert.False(t, cached, "the queued source is fetched again on next expand")

	assert.False(t, d.QueueTrigger(mocks.CoursesSourceUUID).Enabled())
	assert.True(t, d.QueueTrigger(mocks.StaffSourceUUID).Enabled(), "triggers are per source")

	_, err = d.QueueDataFetch(suite.Context(), mocks.StaffSourceUUID)
	require.NoError(t, err)
}

func TestDashboard_QueueOutdatedVersion(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, toasts := newDashboard(suite)
	require.NoError(t, d.Load(suite.Context(), mocks.OxfordUUID))
	suite.Aggregator.NewVersion(mocks.OxfordUUID)

	_, err := d.QueueDataFetch(suite.Context(), mocks.CoursesSourceUUID)
	assert.True(t, client.IsOutdated(err))
	toast := lastToast(t, toasts)
	assert.Equal(t, "Queue failed", toast.Title)
	assert.Equal(t, client.MessageOutdated, toast.Message)

	require.NoError(t, d.Load(suite.Context(), d.ProviderUUID()))
	assert.Eventually(t, d.QueueTrigger(mocks.CoursesSourceUUID).Enabled, time.Second, 10*time.Millisecond)
	_, err = d.QueueDataFetch(suite.Context(), mocks.CoursesSourceUUID)
	require.NoError(t, err)
}

func TestDashboard_Files(t *testing.T) {
	suite := NewSuite(t)
	defer suite.Cleanup()
	d, toasts := newDashboard(suite)

	preview, err := d.Preview(suite.Context(), "courses-0920b.json", "ox/courses/2025-09-20/courses-0920b.json")
	require.NoError(t, err)
	assert.True(t, preview.JSON)
	assert.Contains(t, preview.Content, "\"courses\": [")

	file, err := d.Download(suite.Context(), "courses-0919.json", "ox/courses/2025-09-19/courses-0919.json")
	require.NoError(t, err)
	assert.Equal(t, `{"courses":[]}`, string(file.Data))
	assert.Equal(t, "Download complete", lastToast(t, toasts).Title)

	_, err = d.Download(suite.Context(), "gone.json", "ox/gone.json")
	require.Error(t, err)
	assert.Equal(t, "Download failed", lastToast(t, toasts).Title)
}
