// Package notify keeps the active notifications (toasts) of one application
// or web session, with auto-dismiss timers and simulated progress.
package notify

import (
	"time"
)

// Type is the visual kind of a toast
type Type string

const (
	// TypeSuccess marks a finished operation
	TypeSuccess Type = "success"
	// TypeError marks a failed operation
	TypeError Type = "error"
	// TypeWarning marks something the user should look at
	TypeWarning Type = "warning"
	// TypeInfo is a neutral message
	TypeInfo Type = "info"
	// TypeLoading marks an operation still in flight
	TypeLoading Type = "loading"
)

// Valid reports whether t is a known toast type
func (t Type) Valid() bool {
	switch t {
	case TypeSuccess, TypeError, TypeWarning, TypeInfo, TypeLoading:
		return true
	}
	return false
}

// DefaultDuration is how long a settled toast stays visible
const DefaultDuration = 5000 * time.Millisecond

// Change is one before/after value shown in a toast
type Change struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	OldValue float64 `json:"old_value"`
	NewValue float64 `json:"new_value"`
}

// Toast is a transient notification
type Toast struct {
	ID       string        `json:"id"`
	Type     Type          `json:"type"`
	Title    string        `json:"title"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Progress float64       `json:"progress"`
	// ShowProgress asks renderers to draw a progress bar
	ShowProgress bool `json:"show_progress"`
	// SimulatedProgress is set while Progress is driven by a timer rather
	// than by the server. Renderers must not present it as real progress.
	SimulatedProgress bool      `json:"simulated_progress"`
	IsLoading         bool      `json:"is_loading"`
	IsComplete        bool      `json:"is_complete"`
	Changes           []Change  `json:"changes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Pending reports whether the toast is held without auto-dismiss.
// A loading toast stops being pending once it is marked complete.
func (t Toast) Pending() bool {
	return (t.Type == TypeLoading && !t.IsComplete) || t.IsLoading
}

// Update is a partial change to a toast; nil fields are left as they are
type Update struct {
	Type              *Type
	Title             *string
	Message           *string
	Duration          *time.Duration
	Progress          *float64
	ShowProgress      *bool
	SimulatedProgress *bool
	IsLoading         *bool
	IsComplete        *bool
	Changes           []Change
}

// apply merges u into t
func (u Update) apply(t *Toast) {
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Message != nil {
		t.Message = *u.Message
	}
	if u.Duration != nil {
		t.Duration = *u.Duration
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.ShowProgress != nil {
		t.ShowProgress = *u.ShowProgress
	}
	if u.SimulatedProgress != nil {
		t.SimulatedProgress = *u.SimulatedProgress
	}
	if u.IsLoading != nil {
		t.IsLoading = *u.IsLoading
	}
	if u.IsComplete != nil {
		t.IsComplete = *u.IsComplete
	}
	if u.Changes != nil {
		t.Changes = u.Changes
	}
}

// Loading builds a loading toast with a progress bar starting at zero
func Loading(title, message string) Toast {
	return Toast{
		Type:         TypeLoading,
		Title:        title,
		Message:      message,
		IsLoading:    true,
		ShowProgress: true,
	}
}

// Complete settles a loading toast as finished with the given summary
func Complete(title, message string) Update {
	isLoading, isComplete := false, true
	return Update{
		Title:      &title,
		Message:    &message,
		IsLoading:  &isLoading,
		IsComplete: &isComplete,
	}
}

// Fail turns a toast into an error toast
func Fail(title, message string) Update {
	typ, isLoading := TypeError, false
	return Update{
		Type:      &typ,
		Title:     &title,
		Message:   &message,
		IsLoading: &isLoading,
	}
}
