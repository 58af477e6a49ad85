// Package client provides the API client for interacting with the QualityLink aggregator API
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/qualitylink/qldash/pkg/api/v1/routes"
	"github.com/qualitylink/qldash/pkg/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for API client
type Client interface {
	// Health Check
	HealthCheck(ctx context.Context) (map[string]interface{}, error)

	// Provider Endpoints
	SearchProviders(ctx context.Context, params types.SearchProvidersParams) (types.SearchProvidersResponse, error)
	GetProvider(ctx context.Context, providerUUID string) (types.GetProviderResponse, error)

	// Datalake Endpoints
	ListDatalakeDates(ctx context.Context, params types.DatalakeDatesParams) (types.DatalakeDatesResponse, error)
	ListDatalakeFiles(ctx context.Context, params types.DatalakeFilesParams) (types.DatalakeFilesResponse, error)
	DownloadDatalakeFile(ctx context.Context, params types.DownloadParams) (types.DownloadedFile, error)

	// Action Endpoints
	PullManifest(ctx context.Context, providerUUID string) (types.PullManifestResponse, error)
	QueueProviderData(ctx context.Context, params types.QueueProviderDataParams) (types.QueueProviderDataResponse, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration

	// Headers are sent with every request, on top of the JSON defaults
	Headers map[string]string
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
	headers map[string]string
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	// Validate the base URL
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL: scheme must be http or https, got %q", u.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: timeout,
		headers: headers,
	}, nil
}

// rawResponse is what a finished request hands back to the caller
type rawResponse struct {
	statusCode         int
	body               []byte
	contentType        string
	contentDisposition string
	err                error
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	// Resolve the endpoint URL
	fullURL := routes.JoinBase(c.baseURL, endpoint)

	// Create a new agent based on the HTTP method
	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	// Set common headers
	for k, v := range c.headers {
		agent.Set(k, v)
	}

	// Add body if provided
	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// send executes the request. The agent cannot be aborted once started, so a
// cancelled context only stops the caller from waiting for the result.
func (c *APIClient) send(ctx context.Context, method, endpoint string, agent *fiber.Agent) rawResponse {
	if err := ctx.Err(); err != nil {
		return rawResponse{err: err}
	}

	done := make(chan rawResponse, 1)
	go func() {
		resp := fiber.AcquireResponse()
		defer fiber.ReleaseResponse(resp)
		agent.SetResponse(resp)

		statusCode, body, errs := agent.Bytes()
		if len(errs) > 0 {
			done <- rawResponse{err: &TransportError{Method: method, Endpoint: endpoint, Err: errs[0]}}
			return
		}
		done <- rawResponse{
			statusCode:         statusCode,
			body:               body,
			contentType:        string(resp.Header.ContentType()),
			contentDisposition: string(resp.Header.Peek(fiber.HeaderContentDisposition)),
		}
	}()

	select {
	case <-ctx.Done():
		return rawResponse{err: ctx.Err()}
	case r := <-done:
		return r
	}
}

// doRequest sends the HTTP request and returns the raw successful response
func (c *APIClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (rawResponse, error) {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return rawResponse{}, err
	}

	resp := c.send(ctx, method, endpoint, agent)
	if resp.err != nil {
		return rawResponse{}, resp.err
	}

	// Check for non-success status codes
	if resp.statusCode < 200 || resp.statusCode >= 300 {
		return rawResponse{}, newHTTPError(resp.statusCode, resp.body)
	}

	return resp, nil
}

// executeRequest sends the request and decodes the JSON body into response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	resp, err := c.doRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	// Decode the response body if a target is provided
	if response != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, response); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// withQuery appends query parameters to an endpoint that may already carry some
func withQuery(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return endpoint
	}
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return endpoint + sep + query.Encode()
}

// Get issues a GET request and decodes the JSON response into T
func Get[T any](ctx context.Context, c *APIClient, endpoint string, query url.Values) (T, error) {
	var out T
	if err := c.executeRequest(ctx, http.MethodGet, withQuery(endpoint, query), nil, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Post issues a POST request with an optional JSON body and decodes the JSON response into T
func Post[T any](ctx context.Context, c *APIClient, endpoint string, body interface{}) (T, error) {
	var out T
	if err := c.executeRequest(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// validateUUID rejects identifiers the aggregator would refuse anyway
func validateUUID(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return nil
}

func validateSourceRef(ref types.SourceRef) error {
	if err := validateUUID("provider_uuid", ref.ProviderUUID); err != nil {
		return err
	}
	if err := validateUUID("source_version_uuid", ref.SourceVersionUUID); err != nil {
		return err
	}
	return validateUUID("source_uuid", ref.SourceUUID)
}

// Health check implementation

// HealthCheck checks the health of the API and its database
func (c *APIClient) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	response, err := Get[map[string]interface{}](ctx, c, routes.HealthCheckURL(), nil)
	if err != nil {
		return map[string]interface{}{}, err
	}
	return response, nil
}

// Provider methods implementation

// SearchProviders lists providers whose name matches the search term
func (c *APIClient) SearchProviders(ctx context.Context, params types.SearchProvidersParams) (types.SearchProvidersResponse, error) {
	q, err := params.Query()
	if err != nil {
		return types.SearchProvidersResponse{}, err
	}
	return Get[types.SearchProvidersResponse](ctx, c, routes.GetAllProvidersURL(q), nil)
}

// GetProvider retrieves a provider with its latest source version and sources
func (c *APIClient) GetProvider(ctx context.Context, providerUUID string) (types.GetProviderResponse, error) {
	if err := validateUUID("provider_uuid", providerUUID); err != nil {
		return types.GetProviderResponse{}, err
	}
	return Get[types.GetProviderResponse](ctx, c, routes.GetProviderURL(providerUUID), nil)
}

// Datalake methods implementation

// ListDatalakeDates lists the dates a source was harvested on
func (c *APIClient) ListDatalakeDates(ctx context.Context, params types.DatalakeDatesParams) (types.DatalakeDatesResponse, error) {
	if err := validateSourceRef(params.SourceRef); err != nil {
		return types.DatalakeDatesResponse{}, err
	}
	return Get[types.DatalakeDatesResponse](ctx, c, routes.ListDatalakeDatesURL(params.Query()), nil)
}

// ListDatalakeFiles lists the files harvested for a source on one date
func (c *APIClient) ListDatalakeFiles(ctx context.Context, params types.DatalakeFilesParams) (types.DatalakeFilesResponse, error) {
	if err := validateSourceRef(params.SourceRef); err != nil {
		return types.DatalakeFilesResponse{}, err
	}
	return Get[types.DatalakeFilesResponse](ctx, c, routes.ListDatalakeFilesURL(params.Query()), nil)
}

// DownloadDatalakeFile fetches the raw content of a datalake file
func (c *APIClient) DownloadDatalakeFile(ctx context.Context, params types.DownloadParams) (types.DownloadedFile, error) {
	if params.FilePath == "" {
		return types.DownloadedFile{}, fmt.Errorf("file_path is required")
	}

	resp, err := c.doRequest(ctx, http.MethodGet, routes.DownloadDatalakeFileURL(params.Query()), nil)
	if err != nil {
		return types.DownloadedFile{}, err
	}

	return types.DownloadedFile{
		Filename:    downloadFilename(resp.contentDisposition, params.FilePath),
		ContentType: resp.contentType,
		Data:        resp.body,
	}, nil
}

// downloadFilename prefers the server's Content-Disposition filename over the path's base name
func downloadFilename(disposition, filePath string) string {
	if disposition != "" {
		if _, p, err := mime.ParseMediaType(disposition); err == nil && p["filename"] != "" {
			return path.Base(p["filename"])
		}
	}
	return path.Base(filePath)
}

// Action methods implementation

// PullManifest re-runs manifest discovery for a provider
func (c *APIClient) PullManifest(ctx context.Context, providerUUID string) (types.PullManifestResponse, error) {
	if err := validateUUID("provider_uuid", providerUUID); err != nil {
		return types.PullManifestResponse{}, err
	}
	return Post[types.PullManifestResponse](ctx, c, routes.PullManifestURL(providerUUID), nil)
}

// QueueProviderData asks the aggregator to harvest one data source again
func (c *APIClient) QueueProviderData(ctx context.Context, params types.QueueProviderDataParams) (types.QueueProviderDataResponse, error) {
	if err := validateSourceRef(params.SourceRef); err != nil {
		return types.QueueProviderDataResponse{}, err
	}
	if params.SourcePath == "" {
		return types.QueueProviderDataResponse{}, fmt.Errorf("source_path is required")
	}
	return Post[types.QueueProviderDataResponse](ctx, c, routes.QueueProviderDataURL(params.Query()), nil)
}
