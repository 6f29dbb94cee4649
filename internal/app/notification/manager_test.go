package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/doubanfm/internal/app/playback"
)

type recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recorder) Notify(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recorder) types() []playback.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]playback.EventType, 0, len(r.got))
	for _, n := range r.got {
		out = append(out, n.Event.Type)
	}
	return out
}

func TestSubscribeUnsubscribe(t *testing.T) {
	m := NewManager()
	id := m.Subscribe(&recorder{})

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Subscribe(&recorder{})
	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestBroadcast_SequencesAndDelivers(t *testing.T) {
	m := NewManager()
	a, b := &recorder{}, &recorder{}
	m.Subscribe(a)
	m.Subscribe(b)
	m.Subscribe(ListenerFunc(func(ctx context.Context, n Notification) error {
		return errors.New("broken listener")
	}))

	n1 := m.Broadcast(playback.Event{Type: playback.EventSongStarted})
	n2 := m.Broadcast(playback.Event{Type: playback.EventSongLiked})

	assert.Equal(t, uint64(1), n1.SequenceNo)
	assert.Equal(t, uint64(2), n2.SequenceNo)
	assert.Equal(t, []playback.EventType{playback.EventSongStarted, playback.EventSongLiked}, a.types())
	assert.Equal(t, a.types(), b.types())
}

func TestBroadcast_SlowListenerTimesOut(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 20 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	m.Subscribe(ListenerFunc(func(ctx context.Context, n Notification) error {
		<-release
		return nil
	}))
	fast := &recorder{}
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(playback.Event{Type: playback.EventSongEnded})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []playback.EventType{playback.EventSongEnded}, fast.types())
}

func TestRun_StopsOnClosedChannel(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	m.Subscribe(r)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventChannelChanged}
	events <- playback.Event{Type: playback.EventQueueRefilled}
	close(events)

	m.Run(context.Background(), events)
	assert.Equal(t, []playback.EventType{playback.EventChannelChanged, playback.EventQueueRefilled}, r.types())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, make(chan playback.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
