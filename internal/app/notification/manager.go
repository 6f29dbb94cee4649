// Package notification fans playback events out to listeners.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/app/playback"
)

const defaultSendTimeout = 500 * time.Millisecond

// Notification is a sequenced playback event.
type Notification struct {
	SequenceNo uint64
	Time       time.Time
	Event      playback.Event
}

// Listener receives notifications.
type Listener interface {
	Notify(ctx context.Context, n Notification) error
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f ListenerFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Manager manages listener subscriptions and broadcasting.
type Manager struct {
	mu          sync.RWMutex
	listeners   map[string]Listener
	sendTimeout time.Duration

	sequenceNoMu sync.Mutex
	sequenceNo   uint64
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		listeners:   make(map[string]Listener),
		sendTimeout: defaultSendTimeout,
	}
}

// Subscribe adds a listener and returns its subscription ID.
func (m *Manager) Subscribe(l Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.listeners[id] = l
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, subscriptionID)
}

// Broadcast sends the event to all listeners in parallel. A listener that
// does not return within the send timeout is abandoned for this event.
// Returns the sequenced notification.
func (m *Manager) Broadcast(e playback.Event) Notification {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	n := Notification{SequenceNo: m.sequenceNo, Time: time.Now(), Event: e}
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	subs := make(map[string]Listener, len(m.listeners))
	for id, l := range m.listeners {
		subs[id] = l
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for id, l := range subs {
		wg.Add(1)
		go func(id string, l Listener) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- l.Notify(ctx, n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: listener %s failed: %v", id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: listener %s timed out on %s", id, e.Type)
			}
		}(id, l)
	}

	wg.Wait()
	return n
}

// Run broadcasts every event from events until the channel is closed or
// ctx is done.
func (m *Manager) Run(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.Broadcast(e)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = make(map[string]Listener)
}
