package test

import (
	"context"
	"time"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/internal/search"
	"github.com/qualitylink/qldash/internal/web"
)

// DefaultTestTimeout is the default timeout for test suites.
const DefaultTestTimeout = 30 * time.Second

// Option represents a configuration option for the test suite.
type Option func(*Suite)

// WithTimeout returns an option that sets the suite timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Suite) {
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.ctx, s.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithCleanupFunc returns an option that adds a cleanup function to be
// called when the suite is cleaned up.
func WithCleanupFunc(cleanup func()) Option {
	return func(s *Suite) {
		oldCleanup := s.cleanup
		s.cleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}

// WithWebOptions replaces the timings of the dashboard web server
func WithWebOptions(opts web.Options) Option {
	return func(s *Suite) {
		s.webOptions = opts
	}
}

// DefaultWebOptions are short timings that keep workflows fast under test
func DefaultWebOptions() web.Options {
	return web.Options{
		Search:    search.Options{Debounce: 5 * time.Millisecond},
		Notify:    notify.Options{Duration: time.Hour, ProgressInterval: 2 * time.Millisecond},
		Dashboard: dashboard.Options{Cooldown: time.Second, Grace: 5 * time.Millisecond},
	}
}
