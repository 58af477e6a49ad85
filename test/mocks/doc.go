// Package mocks provides stand-ins for the services qldash talks to.
//
// Aggregator is an in-memory QualityLink aggregator served by a fiber app. It
// speaks the same routes and JSON envelopes as the real API, so the real
// client, dashboard and web server can be exercised end to end.
//
// Example usage:
//
//	agg := mocks.NewAggregator()
//	agg.AddProvider(mocks.OxfordProvider())
//	agg.Lock(mocks.OxfordUUID) // the next pull answers 423
package mocks
