// Package events provides event handling functionality
package events

import (
	"context"
	"sync"

	"github.com/qualitylink/qldash/internal/logger"
)

// EventType represents the type of dashboard event
type EventType string

const (
	// EventToastShown is emitted when a notification is added
	EventToastShown EventType = "toast_shown"
	// EventToastUpdated is emitted when a notification changes
	EventToastUpdated EventType = "toast_updated"
	// EventToastHidden is emitted when a notification is removed
	EventToastHidden EventType = "toast_hidden"
	// EventChannelSize is the buffer size for the event channel
	EventChannelSize = 100
)

// Event represents a dashboard event
type Event struct {
	Type    EventType   // The type of event
	Subject string      // The id of the thing the event is about
	Payload interface{} // A snapshot of that thing

	flushed chan struct{}
}

// Handler is a function that handles an event
type Handler func(context.Context, Event) error

// Bus delivers events to subscribers in publish order.
// Each owner (application, web session) has its own bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wildcard []Handler
	ch       chan Event
	done     chan struct{}
	once     sync.Once
}

// NewBus creates a bus with the default buffer size
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		ch:       make(chan Event, EventChannelSize),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	logger.Debugf("Registered handler for event type: %s", eventType)
}

// SubscribeAll registers a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

func (b *Bus) handlersFor(eventType EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, 0, len(b.handlers[eventType])+len(b.wildcard))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.wildcard...)
}

// Publish queues an event. Events nobody subscribed to are dropped,
// as are events published after Close.
func (b *Bus) Publish(event Event) {
	if len(b.handlersFor(event.Type)) == 0 {
		return
	}
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.ch <- event:
		logger.Debugf("Published event: %s (%s)", event.Type, event.Subject)
	case <-b.done:
	}
}

// Start starts the event processing loop
func (b *Bus) Start(ctx context.Context) {
	go b.processEvents(ctx)
}

// Flush blocks until every event published before the call has been handled.
// It returns early with an error if ctx is done, or nil if the bus is closed.
func (b *Bus) Flush(ctx context.Context) error {
	barrier := Event{flushed: make(chan struct{})}
	select {
	case b.ch <- barrier:
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier.flushed:
		return nil
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the processing loop and drops further events
func (b *Bus) Close() {
	b.once.Do(func() { close(b.done) })
}

// processEvents runs handlers one event at a time so subscribers observe
// a notification's show before its updates.
func (b *Bus) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stopping event processing loop")
			return
		case <-b.done:
			return
		case event := <-b.ch:
			if event.flushed != nil {
				close(event.flushed)
				continue
			}
			for _, handler := range b.handlersFor(event.Type) {
				if err := handler(ctx, event); err != nil {
					logger.Errorf("Failed to handle event %s: %v", event.Type, err)
				}
			}
		}
	}
}
