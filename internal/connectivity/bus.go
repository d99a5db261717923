// Package connectivity tracks whether the remote store is reachable and whether the
// operator session is authenticated, and publishes transitions as typed events.
package connectivity

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a connectivity or authentication transition.
type EventType string

const (
	EventOnline    EventType = "online"
	EventOffline   EventType = "offline"
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is a single transition published on the bus.
type Event struct {
	Type EventType
	At   time.Time
}

// State is the combined connectivity view after applying all published events.
type State struct {
	Online        bool
	Authenticated bool
}

// Reachable reports whether the remote store can be used (online and signed in).
func (s State) Reachable() bool {
	return s.Online && s.Authenticated
}

// Bus owns the connectivity state and fans events out to subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the event but can
// always read the current value through State.
type Bus struct {
	mu          sync.RWMutex
	state       State
	subscribers map[int]chan Event
	nextID      int
	logger      *slog.Logger
}

// NewBus creates a bus starting from the given state.
func NewBus(initial State, logger *slog.Logger) *Bus {
	return &Bus{
		state:       initial,
		subscribers: make(map[int]chan Event),
		logger:      logger,
	}
}

// Publish applies the event to the state and delivers it to subscribers.
// Returns true if the event changed the state.
func (b *Bus) Publish(event Event) bool {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.state
	switch event.Type {
	case EventOnline:
		b.state.Online = true
	case EventOffline:
		b.state.Online = false
	case EventSignedIn:
		b.state.Authenticated = true
	case EventSignedOut:
		b.state.Authenticated = false
	}
	if prev == b.state {
		return false
	}

	if b.logger != nil {
		b.logger.Info("connectivity changed",
			slog.String("event", string(event.Type)),
			slog.Bool("online", b.state.Online),
			slog.Bool("authenticated", b.state.Authenticated),
		)
	}

	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			if b.logger != nil {
				b.logger.Warn("connectivity subscriber is lagging, event dropped",
					slog.String("event", string(event.Type)))
			}
		}
	}

	return true
}

// Subscribe registers a listener with the given buffer size. The returned cancel
// function unregisters it and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, cancel
}

// State returns the current combined state.
func (b *Bus) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// IsOnline reports whether the remote store answered the last ping.
func (b *Bus) IsOnline() bool {
	return b.State().Online
}

// IsAuthenticated reports whether an operator session is open.
func (b *Bus) IsAuthenticated() bool {
	return b.State().Authenticated
}

// Reachable reports whether the remote store can be used right now.
func (b *Bus) Reachable() bool {
	return b.State().Reachable()
}
