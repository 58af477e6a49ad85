package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestBus(t *testing.T) {
	t.Run("Subscribe and Publish", func(t *testing.T) {
		bus := NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		rec := &recorder{}
		bus.Subscribe(EventToastShown, rec.handle)

		bus.Publish(Event{Type: EventToastShown, Subject: "toast-1", Payload: "hello"})
		bus.Publish(Event{Type: EventToastHidden, Subject: "toast-1"})

		assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
		got := rec.snapshot()[0]
		assert.Equal(t, "toast-1", got.Subject)
		assert.Equal(t, "hello", got.Payload)
	})

	t.Run("Order is preserved", func(t *testing.T) {
		bus := NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		rec := &recorder{}
		bus.SubscribeAll(rec.handle)

		bus.Publish(Event{Type: EventToastShown, Subject: "a"})
		bus.Publish(Event{Type: EventToastUpdated, Subject: "a"})
		bus.Publish(Event{Type: EventToastHidden, Subject: "a"})

		assert.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
		got := rec.snapshot()
		assert.Equal(t, []EventType{EventToastShown, EventToastUpdated, EventToastHidden},
			[]EventType{got[0].Type, got[1].Type, got[2].Type})
	})

	t.Run("Handler errors do not stop delivery", func(t *testing.T) {
		bus := NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		rec := &recorder{}
		bus.Subscribe(EventToastShown, func(context.Context, Event) error { return errors.New("boom") })
		bus.Subscribe(EventToastShown, rec.handle)

		bus.Publish(Event{Type: EventToastShown})
		assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Flush waits for earlier events", func(t *testing.T) {
		bus := NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		bus.Start(ctx)

		rec := &recorder{}
		bus.SubscribeAll(func(ctx context.Context, e Event) error {
			time.Sleep(time.Millisecond)
			return rec.handle(ctx, e)
		})
		for i := 0; i < 10; i++ {
			bus.Publish(Event{Type: EventToastUpdated})
		}

		require.NoError(t, bus.Flush(context.Background()))
		assert.Len(t, rec.snapshot(), 10)

		bus.Close()
		assert.NoError(t, bus.Flush(context.Background()), "flushing a closed bus returns immediately")
	})

	t.Run("Publish after Close is dropped", func(t *testing.T) {
		bus := NewBus()
		rec := &recorder{}
		bus.SubscribeAll(rec.handle)
		bus.Close()
		bus.Close()

		done := make(chan struct{})
		go func() {
			for i := 0; i < EventChannelSize*2; i++ {
				bus.Publish(Event{Type: EventToastShown})
			}
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a closed bus")
		}
	})
}
