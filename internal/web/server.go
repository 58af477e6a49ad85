// Package web serves the harvest dashboard to browsers
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/internal/search"
	"github.com/qualitylink/qldash/internal/services"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
)

// Session lifetime defaults
const (
	DefaultSessionIdle   = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Options configures the web dashboard
type Options struct {
	Search    search.Options
	Notify    notify.Options
	Dashboard dashboard.Options

	// SessionIdle is how long a session survives without requests
	SessionIdle time.Duration
	// SweepInterval is how often idle sessions are reaped
	SweepInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.SessionIdle <= 0 {
		o.SessionIdle = DefaultSessionIdle
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
}

// Server is the web dashboard
type Server struct {
	app      *fiber.App
	client   client.Client
	theme    *services.Theme
	opts     Options
	sessions *Sessions
	pages    *pages
}

// New builds the fiber app of the dashboard
func New(c client.Client, theme *services.Theme, opts Options) (*Server, error) {
	opts.setDefaults()

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		client:   c,
		theme:    theme,
		opts:     opts,
		sessions: NewSessions(c, opts),
		pages:    pages,
	}
	// Route params and form values outlive the request in session state
	s.app = fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(Logger())
	s.registerRoutes()
	return s, nil
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Sessions returns the session registry
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Run serves on addr until ctx is done, reaping idle sessions meanwhile
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go services.LaunchJanitor(ctx, wg, s.sessions, s.opts.SweepInterval, s.opts.SessionIdle)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Dashboard listening on %s", addr)
		errCh <- s.app.Listen(addr)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		err = s.app.ShutdownWithContext(shutdownCtx)
		stop()
	}

	cancel()
	wg.Wait()
	s.sessions.Close()
	return err
}

// errorHandler answers errors as JSON with the user-facing message
func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	return c.Status(code).JSON(fiber.Map{
		"error": dashboard.Describe(err),
	})
}

// statusFor maps an error to the HTTP status the dashboard answers with
func statusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	switch {
	case errors.Is(err, dashboard.ErrTriggerDisabled):
		return fiber.StatusTooManyRequests
	case errors.Is(err, dashboard.ErrUnknownSource):
		return fiber.StatusNotFound
	case errors.Is(err, dashboard.ErrNotLoaded), errors.Is(err, dashboard.ErrNoSourceVersion):
		return fiber.StatusConflict
	case errors.Is(err, dashboard.ErrMissingFilePath),
		errors.Is(err, dashboard.ErrNoProvider),
		errors.Is(err, services.ErrInvalidTheme):
		return fiber.StatusBadRequest
	case client.IsLocked(err):
		return fiber.StatusLocked
	case client.IsOutdated(err):
		return fiber.StatusUpgradeRequired
	case client.IsNotFound(err):
		return fiber.StatusNotFound
	}
	if _, ok := client.StatusCode(err); ok || client.IsTransport(err) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func badRequest(format string, args ...interface{}) error {
	return fiber.NewError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}
