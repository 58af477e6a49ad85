package test

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/qualitylink/qldash/internal/web"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/test/mocks"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// SetupAggregator starts the in-memory aggregator with the fixture providers
// and points a real API client at it
func SetupAggregator(suite *Suite) {
	suite.Aggregator = mocks.NewAggregator()
	mocks.Populate(suite.Aggregator)
	suite.AggregatorApp = suite.Aggregator.App()

	// Create test server using adaptor to convert Fiber app to http.Handler
	suite.Server = httptest.NewServer(adaptor.FiberApp(suite.AggregatorApp))

	apiClient, err := client.NewClient(&client.Options{
		BaseURL: suite.Server.URL,
		Timeout: testClientTimeout,
	})
	suite.Require().NoError(err, "Failed to create API client")
	suite.APIClient = apiClient

	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		if suite.Server != nil {
			suite.Server.Close()
		}
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}

// SetupWeb serves the dashboard over HTTP in front of the API client, with a
// cookie-keeping browser
func SetupWeb(suite *Suite) {
	srv, err := web.New(suite.APIClient, suite.Theme, suite.webOptions)
	suite.Require().NoError(err, "Failed to create dashboard server")
	suite.Web = srv
	suite.WebServer = httptest.NewServer(adaptor.FiberApp(srv.App()))

	jar, err := cookiejar.New(nil)
	suite.Require().NoError(err)
	suite.Browser = &http.Client{Jar: jar, Timeout: testClientTimeout}

	originalCleanup := suite.cleanup
	suite.cleanup = func() {
		suite.WebServer.Close()
		srv.Sessions().Close()
		if originalCleanup != nil {
			originalCleanup()
		}
	}
}
