package notify

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qualitylink/qldash/internal/events"
	"github.com/qualitylink/qldash/internal/logger"
)

const (
	// DefaultProgressInterval is how often simulated progress advances
	DefaultProgressInterval = 200 * time.Millisecond
	// DefaultProgressStep is the largest simulated increment per tick
	DefaultProgressStep = 15.0
	// DefaultProgressCap is where simulated progress stops until the call settles
	DefaultProgressCap = 90.0
)

// Options configures a Manager
type Options struct {
	// Duration is the auto-dismiss delay used when a toast sets none
	Duration time.Duration
	// ProgressInterval is the tick of progress simulations
	ProgressInterval time.Duration
	// ProgressStep is the largest increment per tick
	ProgressStep float64
	// ProgressCap bounds simulated progress
	ProgressCap float64
	// Bus receives a snapshot of every change; optional
	Bus *events.Bus
	// Rand returns a number in [0,1); defaults to math/rand
	Rand func() float64
}

func (o *Options) setDefaults() {
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.ProgressStep <= 0 {
		o.ProgressStep = DefaultProgressStep
	}
	if o.ProgressCap <= 0 {
		o.ProgressCap = DefaultProgressCap
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
}

type entry struct {
	toast Toast
	timer *time.Timer
	sim   *Simulation
}

// Manager is the registry of active toasts. The zero value is not usable;
// create one with NewManager and release it with Close.
type Manager struct {
	opts Options

	mu      sync.Mutex
	order   []string
	entries map[string]*entry
	closed  bool
}

// NewManager creates a toast registry
func NewManager(opts Options) *Manager {
	opts.setDefaults()
	return &Manager{
		opts:    opts,
		entries: make(map[string]*entry),
	}
}

// Show adds a toast and returns its id. Unless the toast is pending, its
// auto-dismiss timer starts now. Show on a closed manager returns "".
func (m *Manager) Show(t Toast) string {
	t.ID = uuid.NewString()
	if t.Type == "" {
		t.Type = TypeInfo
	}
	t.CreatedAt = time.Now()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ""
	}
	e := &entry{toast: t}
	m.entries[t.ID] = e
	m.order = append(m.order, t.ID)
	if !t.Pending() {
		m.armLocked(e)
	}
	snapshot := e.toast
	m.mu.Unlock()

	m.publish(events.EventToastShown, snapshot)
	return t.ID
}

// Update merges u into the toast with the given id. When the update moves
// the toast out of the pending state the auto-dismiss timer starts at that
// moment. It reports whether the toast exists.
func (m *Manager) Update(id string, u Update) bool {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok || m.closed {
		m.mu.Unlock()
		return false
	}
	wasPending := e.toast.Pending()
	u.apply(&e.toast)

	switch {
	case wasPending && !e.toast.Pending():
		m.armLocked(e)
	case !wasPending && e.toast.Pending():
		m.disarmLocked(e)
	}
	snapshot := e.toast
	m.mu.Unlock()

	m.publish(events.EventToastUpdated, snapshot)
	return true
}

// Hide removes a toast immediately, whatever its state
func (m *Manager) Hide(id string) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.removeLocked(id, e)
	snapshot := e.toast
	m.mu.Unlock()

	m.publish(events.EventToastHidden, snapshot)
}

// Get returns a copy of the toast with the given id
func (m *Manager) Get(id string) (Toast, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Toast{}, false
	}
	return e.toast, true
}

// List returns copies of the active toasts in display order
func (m *Manager) List() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id].toast)
	}
	return out
}

// Close stops every timer and simulation and drops all toasts.
// The manager ignores further calls afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sims := make([]*Simulation, 0)
	for id, e := range m.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.sim != nil {
			sims = append(sims, e.sim)
		}
		delete(m.entries, id)
	}
	m.order = nil
	m.mu.Unlock()

	for _, s := range sims {
		s.Stop()
	}
	logger.Debug("Toast manager closed")
}

// armLocked starts the auto-dismiss timer for e
func (m *Manager) armLocked(e *entry) {
	m.disarmLocked(e)
	d := e.toast.Duration
	if d <= 0 {
		d = m.opts.Duration
	}
	id := e.toast.ID
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		m.mu.Lock()
		current, ok := m.entries[id]
		stale := !ok || current.timer != timer
		m.mu.Unlock()
		if !stale {
			m.Hide(id)
		}
	})
	e.timer = timer
}

func (m *Manager) disarmLocked(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (m *Manager) removeLocked(id string, e *entry) {
	m.disarmLocked(e)
	if e.sim != nil {
		go e.sim.Stop()
	}
	delete(m.entries, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) publish(t events.EventType, toast Toast) {
	if m.opts.Bus == nil {
		return
	}
	m.opts.Bus.Publish(events.Event{Type: t, Subject: toast.ID, Payload: toast})
}
