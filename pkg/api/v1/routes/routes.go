// Package routes defines the aggregator API routes and URL structure
package routes

import (
	"fmt"
	"net/url"
	"strings"
)

/*

Routes are kept in the order the dashboard uses them:

1. Health
2. Provider lookup (search, detail)
3. Datalake listing (dates, files)
4. Actions (pull manifest, queue data)
5. File transfer

Names match the aggregator operation they call (i.e. GetProvider, PullManifest).

*/

// DefaultBaseURL is the default base URL of the aggregator API
const DefaultBaseURL = "https://i08ggsggwokooc84coo4c08o.serverfarm.knowledgeinnovation.eu"

// Route names for lookup
const (
	// Health check
	HealthCheck = "HealthCheck"

	// Provider routes
	GetAllProviders = "GetAllProviders"
	GetProvider     = "GetProvider"

	// Datalake routes
	ListDatalakeDates = "ListDatalakeDates"
	ListDatalakeFiles = "ListDatalakeFiles"

	// Action routes
	PullManifest      = "PullManifest"
	QueueProviderData = "QueueProviderData"

	// File routes
	DownloadDatalakeFile = "DownloadDatalakeFile"
)

// routeTable maps route names to their paths on the aggregator
var routeTable = map[string]string{
	HealthCheck:          "/health/database",
	GetAllProviders:      "/get_all_providers",
	GetProvider:          "/get_provider",
	ListDatalakeDates:    "/list_datalake_dates",
	ListDatalakeFiles:    "/list_datalake_files",
	PullManifest:         "/pull_manifest",
	QueueProviderData:    "/queue_provider_data",
	DownloadDatalakeFile: "/download_datalake_file",
}

// GetRoute returns the path for the given route name
func GetRoute(name string) string {
	return routeTable[name]
}

// Names returns every known route name
func Names() []string {
	names := make([]string, 0, len(routeTable))
	for name := range routeTable {
		names = append(names, name)
	}
	return names
}

// BuildURL builds a URL for the given route name and query parameters
func BuildURL(routeName string, queryParams url.Values) string {
	route := GetRoute(routeName)
	if route == "" {
		return ""
	}

	// Add query parameters if any
	if len(queryParams) > 0 {
		route = fmt.Sprintf("%s?%s", route, queryParams.Encode())
	}

	return route
}

// JoinBase joins a base URL and an endpoint without doubling or dropping slashes
func JoinBase(baseURL, endpoint string) string {
	if endpoint == "" {
		return strings.TrimSuffix(baseURL, "/")
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return strings.TrimSuffix(baseURL, "/") + endpoint
}

// Health check route helper

// HealthCheckURL returns the URL for the database health endpoint
func HealthCheckURL() string {
	return BuildURL(HealthCheck, nil)
}

// Provider route helpers

// GetAllProvidersURL returns the URL for searching providers
func GetAllProvidersURL(queryParams url.Values) string {
	return BuildURL(GetAllProviders, queryParams)
}

// GetProviderURL returns the URL for getting a provider by UUID
func GetProviderURL(providerUUID string) string {
	return BuildURL(GetProvider, url.Values{"provider_uuid": {providerUUID}})
}

// Datalake route helpers

// ListDatalakeDatesURL returns the URL for listing the harvest dates of a source
func ListDatalakeDatesURL(queryParams url.Values) string {
	return BuildURL(ListDatalakeDates, queryParams)
}

// ListDatalakeFilesURL returns the URL for listing the harvested files of a source
func ListDatalakeFilesURL(queryParams url.Values) string {
	return BuildURL(ListDatalakeFiles, queryParams)
}

// Action route helpers

// PullManifestURL returns the URL for re-running manifest discovery
func PullManifestURL(providerUUID string) string {
	return BuildURL(PullManifest, url.Values{"provider_uuid": {providerUUID}})
}

// QueueProviderDataURL returns the URL for queueing a data source harvest
func QueueProviderDataURL(queryParams url.Values) string {
	return BuildURL(QueueProviderData, queryParams)
}

// File route helpers

// DownloadDatalakeFileURL returns the URL for fetching a datalake file
func DownloadDatalakeFileURL(queryParams url.Values) string {
	return BuildURL(DownloadDatalakeFile, queryParams)
}
