// Package search implements the debounced institution autocomplete
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/models"
	"github.com/qualitylink/qldash/pkg/types"
)

const (
	// DefaultDebounce is the quiet period before a search is sent
	DefaultDebounce = 300 * time.Millisecond
	// DefaultMinChars is the shortest trimmed input that is searched for
	DefaultMinChars = 2
	// DefaultPageSize is the number of suggestions requested
	DefaultPageSize = 20
)

// Options configures a Searcher
type Options struct {
	Debounce time.Duration
	MinChars int
	PageSize int
}

func (o *Options) setDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.MinChars <= 0 {
		o.MinChars = DefaultMinChars
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
}

// State is what a renderer needs to draw the search box
type State struct {
	Input    string            `json:"input"`
	Results  []models.Provider `json:"results"`
	Open     bool              `json:"open"`
	Loading  bool              `json:"loading"`
	Selected *models.Provider  `json:"selected,omitempty"`
	Error    string            `json:"error,omitempty"`
	// Total is the number of matches on the server, beyond the first page
	Total int `json:"total"`
}

// ShortInput reports whether the input is below the search threshold
func (s State) ShortInput(minChars int) bool {
	return len(strings.TrimSpace(s.Input)) < minChars
}

// Searcher turns keystrokes into at most one search request per quiet period.
// Every request takes a sequence number; a response is applied only if no
// newer request was issued (or the input invalidated) in the meantime.
type Searcher struct {
	client   client.Client
	opts     Options
	onChange func(State)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	timer  *time.Timer
	seq    uint64
	closed bool
}

// New creates a Searcher. onChange, if set, receives every new state; it is
// called without internal locks held, possibly from a timer goroutine.
func New(ctx context.Context, c client.Client, opts Options, onChange func(State)) *Searcher {
	opts.setDefaults()
	ctx, cancel := context.WithCancel(ctx)
	return &Searcher{
		client:   c,
		opts:     opts,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Options returns the effective options
func (s *Searcher) Options() Options {
	return s.opts
}

// State returns a copy of the current state
func (s *Searcher) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Searcher) snapshotLocked() State {
	st := s.state
	st.Results = append([]models.Provider(nil), s.state.Results...)
	if s.state.Selected != nil {
		sel := *s.state.Selected
		st.Selected = &sel
	}
	return st
}

// Input records a keystroke
func (s *Searcher) Input(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Input = text
	s.stopTimerLocked()

	// editing away from the selected name drops the selection
	if s.state.Selected != nil && text != s.state.Selected.ProviderName {
		s.state.Selected = nil
	}

	switch {
	case len(strings.TrimSpace(text)) < s.opts.MinChars:
		s.seq++
		s.state.Results = nil
		s.state.Open = false
		s.state.Loading = false
		s.state.Total = 0
	case s.state.Selected != nil:
		// input still shows the selected name: nothing to search for
	default:
		term := strings.TrimSpace(text)
		s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(term) })
	}
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// Select stores the chosen provider and fills the input with its name
func (s *Searcher) Select(p models.Provider) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.seq++
	selected := p
	s.state.Selected = &selected
	s.state.Input = p.ProviderName
	s.state.Open = false
	s.state.Loading = false
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// SelectByID selects one of the current results by provider uuid
func (s *Searcher) SelectByID(providerUUID string) bool {
	s.mu.Lock()
	var found *models.Provider
	for i := range s.state.Results {
		if s.state.Results[i].ProviderUUID == providerUUID {
			p := s.state.Results[i]
			found = &p
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return false
	}
	s.Select(*found)
	return true
}

// Focus reopens the result list if there is something to show
func (s *Searcher) Focus() {
	s.setOpen(true)
}

// Dismiss closes the result list without touching the input
func (s *Searcher) Dismiss() {
	s.setOpen(false)
}

func (s *Searcher) setOpen(open bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if open && len(s.state.Results) == 0 {
		s.mu.Unlock()
		return
	}
	s.state.Open = open
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

// Selected returns the uuid of the selected provider
func (s *Searcher) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Selected == nil {
		return "", false
	}
	return s.state.Selected.ProviderUUID, true
}

// Close cancels pending work; responses still in flight are ignored
func (s *Searcher) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	s.cancel()
}

func (s *Searcher) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire issues the search for term once the debounce timer expires
func (s *Searcher) fire(term string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.timer = nil
	s.state.Loading = true
	s.state.Error = ""
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)

	resp, err := s.client.SearchProviders(s.ctx, types.SearchProvidersParams{
		SearchProvider: term,
		Page:           types.DefaultPage,
		PageSize:       s.opts.PageSize,
	})

	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		logger.Debugf("discarding stale search response #%d for %q", seq, term)
		return
	}
	s.state.Loading = false
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Search failed"
		}
		s.state.Error = msg
		s.state.Results = nil
		s.state.Open = false
		s.state.Total = 0
	} else {
		s.state.Results = resp.Response
		s.state.Total = resp.Total
		s.state.Open = true
	}
	st = s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
}

func (s *Searcher) notify(st State) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
