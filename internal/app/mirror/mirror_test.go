package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/doubanfm/internal/app/notification"
	"github.com/osa030/doubanfm/internal/app/playback"
	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/spotify"
)

type fakeSpotify struct {
	mu       sync.Mutex
	tracks   map[string]*spotify.Track // keyed by title
	existing map[string]bool
	added    []string
	loads    int
	addErr   error
}

func (f *fakeSpotify) SearchTrack(ctx context.Context, title, artist string) (*spotify.Track, error) {
	return f.tracks[title], nil
}

func (f *fakeSpotify) PlaylistTrackIDs(ctx context.Context, playlistURL string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	ids := make(map[string]bool)
	for k, v := range f.existing {
		ids[k] = v
	}
	return ids, nil
}

func (f *fakeSpotify) AddTracksToPlaylist(ctx context.Context, playlistURL string, trackIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, trackIDs...)
	return nil
}

func liked(title string) notification.Notification {
	return notification.Notification{Event: playback.Event{
		Type: playback.EventSongLiked,
		Song: &song.Song{SID: title, Title: title, Artist: "artist"},
	}}
}

func TestMirror_AddsNewTracksOnce(t *testing.T) {
	client := &fakeSpotify{
		tracks: map[string]*spotify.Track{
			"a": {ID: "ta"},
			"b": {ID: "tb"},
		},
		existing: map[string]bool{"tb": true},
	}
	m := New(client, "spotify:playlist:p")

	for _, title := range []string{"a", "b", "a", "missing"} {
		out := m.mirror(context.Background(), *liked(title).Event.Song)
		require.NoError(t, out.Err)
	}

	assert.Equal(t, []string{"ta"}, client.added)
	assert.Equal(t, 1, client.loads)
}

func TestMirror_AddFailure(t *testing.T) {
	client := &fakeSpotify{
		tracks: map[string]*spotify.Track{"a": {ID: "ta"}},
		addErr: errors.New("forbidden"),
	}
	m := New(client, "p")

	out := m.mirror(context.Background(), song.Song{Title: "a"})
	assert.Error(t, out.Err)
	assert.False(t, out.Added)
}

func TestMirror_NotifyIgnoresOtherEvents(t *testing.T) {
	m := New(&fakeSpotify{}, "p")

	require.NoError(t, m.Notify(context.Background(), notification.Notification{
		Event: playback.Event{Type: playback.EventSongStarted, Song: &song.Song{}},
	}))
	assert.Len(t, m.jobs, 0)

	require.NoError(t, m.Notify(context.Background(), liked("a")))
	assert.Len(t, m.jobs, 1)
}

func TestMirror_NotifyQueueFull(t *testing.T) {
	m := New(&fakeSpotify{}, "p")
	for i := 0; i < defaultBuffer; i++ {
		require.NoError(t, m.Notify(context.Background(), liked("a")))
	}
	assert.ErrorIs(t, m.Notify(context.Background(), liked("a")), ErrQueueFull)
}

func TestMirror_Run(t *testing.T) {
	client := &fakeSpotify{tracks: map[string]*spotify.Track{"a": {ID: "ta"}}}
	m := New(client, "p")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	require.NoError(t, m.Notify(ctx, liked("a")))
	assert.Eventually(t, func() bool {
		outcomes := m.Outcomes()
		return len(outcomes) == 1 && outcomes[0].Added
	}, time.Second, 10*time.Millisecond)
}
