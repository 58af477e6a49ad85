// Package mock provides a test double for the aggregator API client
package mock

import (
	"context"
	"sync"

	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/types"
)

// MockClient implements the Client interface for testing.
// It is safe for concurrent use: components under test call it from timers and goroutines.
type MockClient struct {
	// Function fields that can be set to mock behavior
	HealthCheckFn          func(ctx context.Context) (map[string]interface{}, error)
	SearchProvidersFn      func(ctx context.Context, params types.SearchProvidersParams) (types.SearchProvidersResponse, error)
	GetProviderFn          func(ctx context.Context, providerUUID string) (types.GetProviderResponse, error)
	ListDatalakeDatesFn    func(ctx context.Context, params types.DatalakeDatesParams) (types.DatalakeDatesResponse, error)
	ListDatalakeFilesFn    func(ctx context.Context, params types.DatalakeFilesParams) (types.DatalakeFilesResponse, error)
	DownloadDatalakeFileFn func(ctx context.Context, params types.DownloadParams) (types.DownloadedFile, error)
	PullManifestFn         func(ctx context.Context, providerUUID string) (types.PullManifestResponse, error)
	QueueProviderDataFn    func(ctx context.Context, params types.QueueProviderDataParams) (types.QueueProviderDataResponse, error)

	mu sync.Mutex

	// Call tracking for verification
	HealthCheckCalls          int
	SearchProvidersCalls      []types.SearchProvidersParams
	GetProviderCalls          []string
	ListDatalakeDatesCalls    []types.DatalakeDatesParams
	ListDatalakeFilesCalls    []types.DatalakeFilesParams
	DownloadDatalakeFileCalls []types.DownloadParams
	PullManifestCalls         []string
	QueueProviderDataCalls    []types.QueueProviderDataParams
}

var _ client.Client = &MockClient{}

// HealthCheck implements the Client interface
func (m *MockClient) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	m.mu.Lock()
	m.HealthCheckCalls++
	fn := m.HealthCheckFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return map[string]interface{}{"status": "ok"}, nil
}

// SearchProviders implements the Client interface
func (m *MockClient) SearchProviders(ctx context.Context, params types.SearchProvidersParams) (types.SearchProvidersResponse, error) {
	m.mu.Lock()
	m.SearchProvidersCalls = append(m.SearchProvidersCalls, params)
	fn := m.SearchProvidersFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return types.SearchProvidersResponse{}, nil
}

// GetProvider implements the Client interface
func (m *MockClient) GetProvider(ctx context.Context, providerUUID string) (types.GetProviderResponse, error) {
	m.mu.Lock()
	m.GetProviderCalls = append(m.GetProviderCalls, providerUUID)
	fn := m.GetProviderFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, providerUUID)
	}
	return types.GetProviderResponse{}, nil
}

// ListDatalakeDates implements the Client interface
func (m *MockClient) ListDatalakeDates(ctx context.Context, params types.DatalakeDatesParams) (types.DatalakeDatesResponse, error) {
	m.mu.Lock()
	m.ListDatalakeDatesCalls = append(m.ListDatalakeDatesCalls, params)
	fn := m.ListDatalakeDatesFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return types.DatalakeDatesResponse{}, nil
}

// ListDatalakeFiles implements the Client interface
func (m *MockClient) ListDatalakeFiles(ctx context.Context, params types.DatalakeFilesParams) (types.DatalakeFilesResponse, error) {
	m.mu.Lock()
	m.ListDatalakeFilesCalls = append(m.ListDatalakeFilesCalls, params)
	fn := m.ListDatalakeFilesFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return types.DatalakeFilesResponse{}, nil
}

// DownloadDatalakeFile implements the Client interface
func (m *MockClient) DownloadDatalakeFile(ctx context.Context, params types.DownloadParams) (types.DownloadedFile, error) {
	m.mu.Lock()
	m.DownloadDatalakeFileCalls = append(m.DownloadDatalakeFileCalls, params)
	fn := m.DownloadDatalakeFileFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return types.DownloadedFile{}, nil
}

// PullManifest implements the Client interface
func (m *MockClient) PullManifest(ctx context.Context, providerUUID string) (types.PullManifestResponse, error) {
	m.mu.Lock()
	m.PullManifestCalls = append(m.PullManifestCalls, providerUUID)
	fn := m.PullManifestFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, providerUUID)
	}
	return types.PullManifestResponse{}, nil
}

// QueueProviderData implements the Client interface
func (m *MockClient) QueueProviderData(ctx context.Context, params types.QueueProviderDataParams) (types.QueueProviderDataResponse, error) {
	m.mu.Lock()
	m.QueueProviderDataCalls = append(m.QueueProviderDataCalls, params)
	fn := m.QueueProviderDataFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return types.QueueProviderDataResponse{}, nil
}

// Counts returns a snapshot of how often each listing/search method was called
func (m *MockClient) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Counts{
		SearchProviders:   len(m.SearchProvidersCalls),
		GetProvider:       len(m.GetProviderCalls),
		ListDatalakeDates: len(m.ListDatalakeDatesCalls),
		ListDatalakeFiles: len(m.ListDatalakeFilesCalls),
		Download:          len(m.DownloadDatalakeFileCalls),
		PullManifest:      len(m.PullManifestCalls),
		QueueProviderData: len(m.QueueProviderDataCalls),
	}
}

// Counts is a race-free snapshot of call counts
type Counts struct {
	SearchProviders   int
	GetProvider       int
	ListDatalakeDates int
	ListDatalakeFiles int
	Download          int
	PullManifest      int
	QueueProviderData int
}

// LastSearch returns the parameters of the most recent SearchProviders call
func (m *MockClient) LastSearch() (types.SearchProvidersParams, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SearchProvidersCalls) == 0 {
		return types.SearchProvidersParams{}, false
	}
	return m.SearchProvidersCalls[len(m.SearchProvidersCalls)-1], true
}

// FilesCallsFor returns the ListDatalakeFiles calls made for one source
func (m *MockClient) FilesCallsFor(sourceUUID string) []types.DatalakeFilesParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.DatalakeFilesParams
	for _, c := range m.ListDatalakeFilesCalls {
		if c.SourceUUID == sourceUUID {
			out = append(out, c)
		}
	}
	return out
}

// DatesCallsFor returns the ListDatalakeDates calls made for one source
func (m *MockClient) DatesCallsFor(sourceUUID string) []types.DatalakeDatesParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.DatalakeDatesParams
	for _, c := range m.ListDatalakeDatesCalls {
		if c.SourceUUID == sourceUUID {
			out = append(out, c)
		}
	}
	return out
}
