package dashboard

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a trigger stays disabled after its call settles
const DefaultCooldown = 20 * time.Second

// Trigger is the enabled state of a control that starts a long-running
// action. It is disabled from Acquire until the cooldown after Release.
type Trigger struct {
	cooldown time.Duration

	mu        sync.Mutex
	busy      bool
	enabledAt time.Time
	timer     *time.Timer
}

// NewTrigger creates an enabled trigger
func NewTrigger(cooldown time.Duration) *Trigger {
	return &Trigger{cooldown: cooldown}
}

// Acquire disables the trigger, failing with ErrTriggerDisabled if it already is
func (t *Trigger) Acquire() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return ErrTriggerDisabled
	}
	t.busy = true
	t.enabledAt = time.Time{}
	return nil
}

// Release starts the cooldown; the trigger is enabled again once it elapses
func (t *Trigger) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.cooldown <= 0 {
		t.busy = false
		return
	}

	t.enabledAt = time.Now().Add(t.cooldown)
	var timer *time.Timer
	timer = time.AfterFunc(t.cooldown, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.timer != timer {
			return
		}
		t.busy = false
		t.timer = nil
		t.enabledAt = time.Time{}
	})
	t.timer = timer
}

// Enabled reports whether Acquire would succeed
func (t *Trigger) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.busy
}

// EnabledAt returns when a cooling-down trigger re-enables; zero otherwise
func (t *Trigger) EnabledAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabledAt
}

// Stop cancels a pending cooldown and leaves the trigger disabled
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
