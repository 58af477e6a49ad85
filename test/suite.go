package test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/qualitylink/qldash/internal/db/repos"
	"github.com/qualitylink/qldash/internal/services"
	"github.com/qualitylink/qldash/internal/web"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/test/mocks"
)

// Suite encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - An in-memory aggregator behind a real HTTP server
//   - Real API client
//   - File-based preference store
//   - Dashboard web server and a browser to drive it
type Suite struct {
	t *testing.T // The testing.T instance for this suite

	// Aggregator components
	Aggregator    *mocks.Aggregator
	AggregatorApp *fiber.App
	Server        *httptest.Server

	// Client components
	APIClient client.Client

	// Database components
	DB             *gorm.DB
	PreferenceRepo *repos.PreferenceRepository
	Theme          *services.Theme

	// Dashboard components
	Web       *web.Server
	WebServer *httptest.Server
	Browser   *http.Client

	webOptions web.Options

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// SetS sets the suite instance for this suite
func (s *Suite) SetS(_ suite.TestingSuite) {
	// This method is required by suite.TestingSuite but we don't need to do anything here
}

// SetT sets the testing.T instance for this suite
func (s *Suite) SetT(t *testing.T) {
	s.t = t
}

// T returns the testing.T instance for this suite
func (s *Suite) T() *testing.T {
	return s.t
}

// NewSuite creates a new test suite with the given options.
// The suite must be cleaned up after use by calling Cleanup.
func NewSuite(t *testing.T, opts ...Option) *Suite {
	t.Helper()

	// Create suite with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	s := &Suite{
		t:          t,
		ctx:        ctx,
		cancelFunc: cancel,
		webOptions: DefaultWebOptions(),
	}
	s.cleanup = func() {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
	}
	for _, opt := range opts {
		opt(s)
	}

	SetupTestDB(s, nil)
	SetupAggregator(s)
	SetupWeb(s)
	return s
}

// Cleanup tears down the test suite, releasing all resources.
// This should be deferred immediately after creating the suite.
func (s *Suite) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Context returns the suite's context, which is automatically
// canceled when the suite is cleaned up.
func (s *Suite) Context() context.Context {
	return s.ctx
}

// Require returns a require.Assertions instance for this suite.
// This is a convenience method to avoid passing t around.
func (s *Suite) Require() *require.Assertions {
	return require.New(s.t)
}

// Retry retries a function until it succeeds or the number of retries is reached.
func (s *Suite) Retry(fn func() error, retries int, interval time.Duration) (err error) {
	for i := 0; i < retries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(interval)
	}
	return
}

// Visit sends a browser request to the dashboard. A non-nil form is sent url-encoded.
func (s *Suite) Visit(method, path string, form url.Values, accept string) *http.Response {
	s.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.WebServer.URL+path, body)
	s.Require().NoError(err)
	if form != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	}
	if accept != "" {
		req.Header.Set(fiber.HeaderAccept, accept)
	}
	resp, err := s.Browser.Do(req)
	s.Require().NoError(err)
	s.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// VisitJSON sends a browser request asking for JSON and decodes the answer into out
func (s *Suite) VisitJSON(method, path string, form url.Values, out interface{}) int {
	s.t.Helper()
	resp := s.Visit(method, path, form, fiber.MIMEApplicationJSON)
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// ReadBody returns the body of a dashboard response
func (s *Suite) ReadBody(resp *http.Response) string {
	s.t.Helper()
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return string(data)
}
