package notify

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/qualitylink/qldash/internal/events"
)

// Simulation advances a toast's progress on a timer while the real
// operation is outstanding. It does not reflect server-side progress.
type Simulation struct {
	m    *Manager
	id   string
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// SimulateProgress starts ramping the progress of toast id towards the cap.
// A previous simulation of the same toast is stopped.
func (m *Manager) SimulateProgress(id string) *Simulation {
	s := &Simulation{
		m:    m,
		id:   id,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok || m.closed {
		m.mu.Unlock()
		close(s.done)
		return s
	}
	previous := e.sim
	e.sim = s
	e.toast.ShowProgress = true
	e.toast.SimulatedProgress = true
	snapshot := e.toast
	m.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	m.publish(events.EventToastUpdated, snapshot)

	go s.run(m.opts.ProgressInterval)
	return s
}

func (s *Simulation) run(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if !s.m.advance(s) {
				return
			}
		}
	}
}

// advance adds one pseudo-random step; it reports false once the toast is gone
func (m *Manager) advance(s *Simulation) bool {
	m.mu.Lock()
	e, ok := m.entries[s.id]
	if !ok || e.sim != s {
		m.mu.Unlock()
		return false
	}
	if e.toast.Progress >= m.opts.ProgressCap {
		m.mu.Unlock()
		return true
	}
	progress := e.toast.Progress + m.opts.Rand()*m.opts.ProgressStep
	if progress > m.opts.ProgressCap {
		progress = m.opts.ProgressCap
	}
	e.toast.Progress = progress
	snapshot := e.toast
	m.mu.Unlock()

	m.publish(events.EventToastUpdated, snapshot)
	return true
}

// Stop halts the simulation and leaves the progress where it is
func (s *Simulation) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done

	s.m.mu.Lock()
	if e, ok := s.m.entries[s.id]; ok && e.sim == s {
		e.sim = nil
	}
	s.m.mu.Unlock()
}

// Finish halts the simulation and sets the progress to 100
func (s *Simulation) Finish() {
	s.Stop()
	s.m.Update(s.id, Update{
		Progress:          lo.ToPtr(100.0),
		SimulatedProgress: lo.ToPtr(false),
	})
}
