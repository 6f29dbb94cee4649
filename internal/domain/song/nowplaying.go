package song

import (
	"fmt"
	"time"
)

// Placeholders shown when nothing is playing.
const (
	PlaceholderTitle  = "未播放"
	PlaceholderArtist = "佚名"
)

// NowPlaying adapts a Song for a player view. It adds playback position
// and duration and reads everything else through from the song.
// A nil song is allowed and yields placeholder values.
type NowPlaying struct {
	song     *Song
	Position time.Duration
	Duration time.Duration
}

// NewNowPlaying wraps s. The duration defaults to the song length.
func NewNowPlaying(s *Song) *NowPlaying {
	np := &NowPlaying{song: s}
	if s != nil {
		np.Duration = s.Duration()
	}
	return np
}

// Song returns the wrapped song, or nil.
func (n *NowPlaying) Song() *Song {
	return n.song
}

// SID returns the song ID.
func (n *NowPlaying) SID() string {
	if n.song == nil {
		return ""
	}
	return n.song.SID
}

// Title returns the song title.
func (n *NowPlaying) Title() string {
	if n.song == nil {
		return PlaceholderTitle
	}
	return n.song.Title
}

// Artist returns the artist display name.
func (n *NowPlaying) Artist() string {
	if n.song == nil {
		return PlaceholderArtist
	}
	return n.song.Artist
}

// AlbumTitle returns the album title.
func (n *NowPlaying) AlbumTitle() string {
	if n.song == nil {
		return ""
	}
	return n.song.AlbumTitle
}

// AudioURL returns the stream URL.
func (n *NowPlaying) AudioURL() string {
	if n.song == nil {
		return ""
	}
	return n.song.URL
}

// PictureURL returns the album art URL.
func (n *NowPlaying) PictureURL() string {
	if n.song == nil {
		return ""
	}
	return n.song.Picture
}

// Progress returns "position / duration" in clock format.
func (n *NowPlaying) Progress() string {
	return Clock(n.Position) + " / " + Clock(n.Duration)
}

// Clock formats d as mm:ss, or hh:mm:ss once it reaches an hour.
// Sub-second remainders are truncated.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
