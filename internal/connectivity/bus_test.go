package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBus_Publish(t *testing.T) {
	t.Run("Success_StateTransitions", func(t *testing.T) {
		bus := NewBus(State{}, discardLogger())
		assert.False(t, bus.Reachable())

		assert.True(t, bus.Publish(Event{Type: EventOnline}))
		assert.True(t, bus.IsOnline())
		assert.False(t, bus.Reachable())

		assert.True(t, bus.Publish(Event{Type: EventSignedIn}))
		assert.True(t, bus.IsAuthenticated())
		assert.True(t, bus.Reachable())

		assert.True(t, bus.Publish(Event{Type: EventOffline}))
		assert.False(t, bus.Reachable())

		assert.True(t, bus.Publish(Event{Type: EventSignedOut}))
		assert.Equal(t, State{}, bus.State())
	})

	t.Run("Success_RepeatedEventIsNotATransition", func(t *testing.T) {
		bus := NewBus(State{Online: true}, discardLogger())
		ch, cancel := bus.Subscribe(4)
		defer cancel()

		assert.False(t, bus.Publish(Event{Type: EventOnline}))
		select {
		case ev := <-ch:
			t.Fatalf("unexpected event %v", ev)
		default:
		}
	})

	t.Run("Success_SubscribersReceiveEventsInOrder", func(t *testing.T) {
		bus := NewBus(State{}, discardLogger())
		ch, cancel := bus.Subscribe(4)
		defer cancel()

		bus.Publish(Event{Type: EventOnline})
		bus.Publish(Event{Type: EventSignedIn})

		first := <-ch
		second := <-ch
		assert.Equal(t, EventOnline, first.Type)
		assert.Equal(t, EventSignedIn, second.Type)
		assert.False(t, first.At.IsZero())
	})

	t.Run("Success_LaggingSubscriberDoesNotBlock", func(t *testing.T) {
		bus := NewBus(State{}, discardLogger())
		_, cancel := bus.Subscribe(1)
		defer cancel()

		done := make(chan struct{})
		go func() {
			bus.Publish(Event{Type: EventOnline})
			bus.Publish(Event{Type: EventOffline})
			bus.Publish(Event{Type: EventOnline})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a full subscriber")
		}
		assert.True(t, bus.IsOnline())
	})

	t.Run("Success_CancelClosesChannel", func(t *testing.T) {
		bus := NewBus(State{}, discardLogger())
		ch, cancel := bus.Subscribe(1)
		cancel()
		cancel()

		_, ok := <-ch
		assert.False(t, ok)
		assert.True(t, bus.Publish(Event{Type: EventOnline}))
	})
}

type fakePinger struct {
	err   atomic.Value
	calls atomic.Int32
}

func (f *fakePinger) PingContext(ctx context.Context) error {
	f.calls.Add(1)
	if v := f.err.Load(); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

func TestMonitor_Check(t *testing.T) {
	t.Run("Success_PublishesOnline", func(t *testing.T) {
		bus := NewBus(State{}, discardLogger())
		pinger := &fakePinger{}
		monitor := NewMonitor(pinger, bus, time.Minute, time.Second, discardLogger())

		assert.True(t, monitor.Check(context.Background()))
		assert.True(t, bus.IsOnline())
	})

	t.Run("Error_PublishesOffline", func(t *testing.T) {
		bus := NewBus(State{Online: true}, discardLogger())
		pinger := &fakePinger{}
		pinger.err.Store(errors.New("connection refused"))
		monitor := NewMonitor(pinger, bus, time.Minute, time.Second, discardLogger())

		assert.False(t, monitor.Check(context.Background()))
		assert.False(t, bus.IsOnline())
	})
}

func TestMonitor_Start(t *testing.T) {
	bus := NewBus(State{}, discardLogger())
	pinger := &fakePinger{}
	monitor := NewMonitor(pinger, bus, 10*time.Millisecond, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- monitor.Start(ctx) }()

	require.Eventually(t, func() bool { return pinger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, bus.IsOnline())
}
