// Package mirror copies liked songs into a Spotify playlist.
package mirror

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/app/notification"
	"github.com/osa030/doubanfm/internal/app/playback"
	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/spotify"
)

const defaultBuffer = 32

// ErrQueueFull is returned when a liked song cannot be queued.
var ErrQueueFull = errors.New("mirror queue is full")

// SpotifyClient defines the Spotify operations needed by the mirror.
type SpotifyClient interface {
	SearchTrack(ctx context.Context, title, artist string) (*spotify.Track, error)
	PlaylistTrackIDs(ctx context.Context, playlistURL string) (map[string]bool, error)
	AddTracksToPlaylist(ctx context.Context, playlistURL string, trackIDs []string) error
}

// Outcome reports what happened to one liked song.
type Outcome struct {
	Song  song.Song
	Track *spotify.Track // nil when no match was found
	Added bool
	Err   error
}

// Mirror adds liked songs to a playlist on a worker goroutine.
type Mirror struct {
	client      SpotifyClient
	playlistURL string
	jobs        chan song.Song

	mu       sync.Mutex
	known    map[string]bool // Track IDs already in the playlist
	outcomes []Outcome
}

// New creates a new Mirror.
func New(client SpotifyClient, playlistURL string) *Mirror {
	return &Mirror{
		client:      client,
		playlistURL: playlistURL,
		jobs:        make(chan song.Song, defaultBuffer),
	}
}

// Notify queues the song of a song_liked notification. Other
// notifications are ignored.
func (m *Mirror) Notify(ctx context.Context, n notification.Notification) error {
	if n.Event.Type != playback.EventSongLiked || n.Event.Song == nil {
		return nil
	}

	select {
	case m.jobs <- *n.Event.Song:
		return nil
	default:
		return errors.Wrapf(ErrQueueFull, "dropping sid=%s", n.Event.Song.SID)
	}
}

// Run processes queued songs until ctx is done.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-m.jobs:
			out := m.mirror(ctx, s)
			if out.Err != nil {
				zlog.Warn().Msgf("mirror: %s - %s: %v", s.Artist, s.Title, out.Err)
			}
			m.mu.Lock()
			m.outcomes = append(m.outcomes, out)
			m.mu.Unlock()
		}
	}
}

// Outcomes returns the results of every processed song.
func (m *Mirror) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}

func (m *Mirror) mirror(ctx context.Context, s song.Song) Outcome {
	out := Outcome{Song: s}

	if err := m.loadKnown(ctx); err != nil {
		out.Err = err
		return out
	}

	track, err := m.client.SearchTrack(ctx, s.Title, s.Artist)
	if err != nil {
		out.Err = err
		return out
	}
	if track == nil {
		zlog.Info().Msgf("mirror: no spotify match for %s - %s", s.Artist, s.Title)
		return out
	}
	out.Track = track

	m.mu.Lock()
	exists := m.known[track.ID]
	m.mu.Unlock()
	if exists {
		zlog.Debug().Msgf("mirror: %s already in playlist", track.ID)
		return out
	}

	if err := m.client.AddTracksToPlaylist(ctx, m.playlistURL, []string{track.ID}); err != nil {
		out.Err = err
		return out
	}

	m.mu.Lock()
	m.known[track.ID] = true
	m.mu.Unlock()

	out.Added = true
	zlog.Info().Msgf("mirror: added %s - %s as %s", s.Artist, s.Title, track.URL)
	return out
}

// loadKnown reads the playlist contents once.
func (m *Mirror) loadKnown(ctx context.Context) error {
	m.mu.Lock()
	loaded := m.known != nil
	m.mu.Unlock()
	if loaded {
		return nil
	}

	ids, err := m.client.PlaylistTrackIDs(ctx, m.playlistURL)
	if err != nil {
		return errors.Wrap(err, "failed to read mirror playlist")
	}

	m.mu.Lock()
	m.known = ids
	m.mu.Unlock()
	return nil
}
