// Package test provides integration testing infrastructure for qldash.
//
// A Suite runs the whole stack in process: an in-memory aggregator
// (mocks.Aggregator) behind a real HTTP server, the real API client pointed at
// it, a file-based preference store and the dashboard web server, itself
// served over HTTP.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    // Use suite.APIClient to talk to the aggregator
//	    // Use suite.Aggregator to shape what it answers
//	    // Use suite.Browser to drive the dashboard
//	}
package test
