package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/internal/search"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
)

// SessionCookie is the cookie that carries the browser session id
const SessionCookie = "qldash_session"

// Session is the dashboard state of one browser. Each session owns its own
// toast registry, search box and provider dashboard.
type Session struct {
	ID        string
	Toasts    *notify.Manager
	Search    *search.Searcher
	Dashboard *dashboard.Dashboard

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, c client.Client, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	toasts := notify.NewManager(opts.Notify)
	return &Session{
		ID:        id,
		Toasts:    toasts,
		Search:    search.New(ctx, c, opts.Search, nil),
		Dashboard: dashboard.New(c, toasts, opts.Dashboard),
		ctx:       ctx,
		cancel:    cancel,
		lastSeen:  time.Now(),
	}
}

// Go runs fn in the background for as long as the session lives
func (s *Session) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Context is cancelled when the session is closed
func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen is the time of the session's latest request
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels background work and waits for it to return
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
	s.Search.Close()
	s.Dashboard.Close()
	s.Toasts.Close()
}

// Sessions is the registry of live browser sessions
type Sessions struct {
	client client.Client
	opts   Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions creates an empty registry
func NewSessions(c client.Client, opts Options) *Sessions {
	return &Sessions{
		client:   c,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Lookup returns the session of the request, starting one (and setting its
// cookie) when the request carries no known session id.
func (st *Sessions) Lookup(c *fiber.Ctx) *Session {
	now := time.Now()
	id := c.Cookies(SessionCookie)

	st.mu.Lock()
	sess, ok := st.sessions[id]
	if !ok {
		id = uuid.NewString()
		sess = newSession(id, st.client, st.opts)
		st.sessions[id] = sess
	}
	st.mu.Unlock()

	if !ok {
		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		logger.DebugWithFields("session started", map[string]interface{}{"session": id})
	}
	sess.touch(now)
	return sess
}

// Get returns a session by id
func (st *Sessions) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions
func (st *Sessions) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep closes every session idle since before cutoff
func (st *Sessions) Sweep(cutoff time.Time) int {
	st.mu.Lock()
	var idle []*Session
	for id, sess := range st.sessions {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range idle {
		sess.Close()
	}
	return len(idle)
}

// Close closes every session
func (st *Sessions) Close() {
	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, sess := range st.sessions {
		all = append(all, sess)
	}
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, sess := range all {
		sess.Close()
	}
}
