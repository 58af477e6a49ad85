package api_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/api/v1/routes"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
	"github.com/qualitylink/qldash/test"
	"github.com/qualitylink/qldash/test/mocks"
)

var oxfordCourses = types.SourceRef{
	ProviderUUID:      mocks.OxfordUUID,
	SourceVersionUUID: mocks.OxfordVersionUUID,
	SourceUUID:        mocks.CoursesSourceUUID,
}

// This file exercises the real API client against the in-memory aggregator.

func TestClientHealthCheck(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	health, err := suite.APIClient.HealthCheck(suite.Context())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health["status"])
}

func TestClientProviderLookup(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	t.Run("search matches case-insensitively", func(t *testing.T) {
		resp, err := suite.APIClient.SearchProviders(suite.Context(), types.SearchProvidersParams{SearchProvider: "OXFORD"})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, types.DefaultPageSize, resp.PageSize)
		require.Len(t, resp.Response, 2)
		assert.Equal(t, "UK0001", resp.Response[0].EterID.String())
	})

	t.Run("search paginates", func(t *testing.T) {
		resp, err := suite.APIClient.SearchProviders(suite.Context(), types.SearchProvidersParams{SearchProvider: "oxford", Page: 2, PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.TotalPages)
		require.Len(t, resp.Response, 1)
		assert.Equal(t, mocks.BrookesUUID, resp.Response[0].ProviderUUID)
	})

	t.Run("get provider", func(t *testing.T) {
		resp, err := suite.APIClient.GetProvider(suite.Context(), mocks.OxfordUUID)
		require.NoError(t, err)
		assert.Equal(t, "University of Oxford", resp.Provider.ProviderName)
		assert.Equal(t, mocks.OxfordVersionUUID, resp.SourceVersionUUID())
		require.Len(t, resp.Sources, 2)
		require.Len(t, resp.Provider.ManifestJSON, 2)
		assert.Equal(t, models.StatusFound, resp.Provider.ManifestJSON[0].Status())
		assert.Equal(t, models.StatusNotSearched, resp.Provider.ManifestJSON[1].Status())
		assert.Equal(t, "20 Sep 2025, 14:05", resp.Provider.LastUpdated().DisplayDateTime())
	})

	t.Run("provider without a source version", func(t *testing.T) {
		resp, err := suite.APIClient.GetProvider(suite.Context(), mocks.BrookesUUID)
		require.NoError(t, err)
		assert.Nil(t, resp.SourceVersion)
		assert.Empty(t, resp.Sources)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := suite.APIClient.GetProvider(suite.Context(), "00000000-0000-4000-8000-000000000000")
		var httpErr *client.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, 404, httpErr.StatusCode)
		assert.Equal(t, "Provider not found", httpErr.Detail)
	})

	t.Run("malformed id never reaches the server", func(t *testing.T) {
		before := suite.Aggregator.Calls(routes.GetRoute(routes.GetProvider))
		_, err := suite.APIClient.GetProvider(suite.Context(), "not-a-uuid")
		require.Error(t, err)
		assert.Equal(t, before, suite.Aggregator.Calls(routes.GetRoute(routes.GetProvider)))
	})
}

func TestClientDatalake(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	t.Run("dates are newest first", func(t *testing.T) {
		dates, err := suite.APIClient.ListDatalakeDates(suite.Context(), types.DatalakeDatesParams{SourceRef: oxfordCourses})
		require.NoError(t, err)
		assert.Equal(t, []string{"2025-09-20", "2025-09-19"}, dates.Dates)
		assert.Equal(t, "2025-09-20", dates.Latest())
	})

	t.Run("files default to the latest date", func(t *testing.T) {
		files, err := suite.APIClient.ListDatalakeFiles(suite.Context(), types.DatalakeFilesParams{
			SourceRef:  oxfordCourses,
			SourcePath: mocks.CoursesSourcePath,
		})
		require.NoError(t, err)
		assert.Equal(t, "2025-09-20", files.Params.Date)
		assert.Equal(t, "latest", files.Params.DateSource)
		require.Len(t, files.Files, 2)
		assert.Equal(t, "courses-0920a.json", files.Files[0].Filename)
		require.NotNil(t, files.LastFilePushed)
		assert.Equal(t, "courses-0920b.json", *files.LastFilePushed)
	})

	t.Run("files of one date", func(t *testing.T) {
		files, err := suite.APIClient.ListDatalakeFiles(suite.Context(), types.DatalakeFilesParams{
			SourceRef:  oxfordCourses,
			SourcePath: mocks.CoursesSourcePath,
			Date:       "2025-09-19",
		})
		require.NoError(t, err)
		require.Len(t, files.Files, 1)
		assert.Equal(t, "courses-0919.json", files.Files[0].Filename)
	})

	t.Run("source without harvests", func(t *testing.T) {
		ref := oxfordCourses
		ref.SourceUUID = mocks.StaffSourceUUID
		dates, err := suite.APIClient.ListDatalakeDates(suite.Context(), types.DatalakeDatesParams{SourceRef: ref})
		require.NoError(t, err)
		assert.Empty(t, dates.Dates)
		assert.Equal(t, "", dates.Latest())
	})

	t.Run("download uses the server's file name", func(t *testing.T) {
		file, err := suite.APIClient.DownloadDatalakeFile(suite.Context(), types.DownloadParams{
			FilePath: "ox/courses/2025-09-20/courses-0920b.json",
		})
		require.NoError(t, err)
		assert.Equal(t, "courses-0920b.json", file.Filename)
		assert.Contains(t, file.ContentType, "application/json")
		assert.Equal(t, `{"courses":[1,2]}`, string(file.Data))
	})

	t.Run("preview", func(t *testing.T) {
		file, err := suite.APIClient.DownloadDatalakeFile(suite.Context(), types.DownloadParams{
			FilePath: "ox/courses/2025-09-19/courses-0919.json",
			Preview:  true,
		})
		require.NoError(t, err)
		assert.Equal(t, "courses-0919.json", file.Filename, "falls back to the path")
		assert.Equal(t, `{"courses":[]}`, string(file.Data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := suite.APIClient.DownloadDatalakeFile(suite.Context(), types.DownloadParams{FilePath: "nope.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "File not found")
	})
}

func TestClientActions(t *testing.T) {
	suite := test.NewSuite(t)
	defer suite.Cleanup()

	queue := types.QueueProviderDataParams{SourceRef: oxfordCourses, SourcePath: mocks.CoursesSourcePath}

	t.Run("pull manifest", func(t *testing.T) {
		resp, err := suite.APIClient.PullManifest(suite.Context(), mocks.OxfordUUID)
		require.NoError(t, err)
		assert.True(t, resp.ManifestFound)
		require.NotNil(t, resp.ManifestURL)
		assert.Equal(t, "https://ox.ac.uk/.well-known/quality-link-manifest", *resp.ManifestURL)
		assert.Equal(t, "ox.ac.uk", resp.Domain)
		assert.False(t, resp.NewSourceVersionCreated)
	})

	t.Run("queue", func(t *testing.T) {
		resp, err := suite.APIClient.QueueProviderData(suite.Context(), queue)
		require.NoError(t, err)
		assert.Equal(t, "queued", resp.Status)
		assert.Equal(t, "harvest", resp.Queue)
	})

	t.Run("locked provider", func(t *testing.T) {
		suite.Aggregator.Lock(mocks.OxfordUUID)
		defer suite.Aggregator.Unlock(mocks.OxfordUUID)

		_, err := suite.APIClient.PullManifest(suite.Context(), mocks.OxfordUUID)
		assert.True(t, client.IsLocked(err))
		assert.Equal(t, client.MessageLocked, client.Describe(err, ""))

		_, err = suite.APIClient.QueueProviderData(suite.Context(), queue)
		assert.True(t, client.IsLocked(err))
	})

	t.Run("outdated source version", func(t *testing.T) {
		suite.Aggregator.NewVersion(mocks.OxfordUUID)

		_, err := suite.APIClient.QueueProviderData(suite.Context(), queue)
		assert.True(t, client.IsOutdated(err))
		assert.Equal(t, client.MessageOutdated, client.Describe(err, ""))
	})

	t.Run("transport failure", func(t *testing.T) {
		suite.Server.Close()

		_, err := suite.APIClient.GetProvider(suite.Context(), mocks.OxfordUUID)
		var transportErr *client.TransportError
		assert.True(t, errors.As(err, &transportErr))
	})
}
