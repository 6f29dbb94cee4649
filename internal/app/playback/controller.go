package playback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/app/filter"
	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/douban"
)

// Errors
var (
	// ErrProtocolViolation is returned when the server answers a request
	// that must yield songs with an empty playlist. It is marked as an
	// assertion failure.
	ErrProtocolViolation = errors.New("server returned an empty playlist")
	ErrNoSong            = errors.New("no song playing")
	ErrInvalidAction     = errors.New("invalid action")
)

const defaultEventBuffer = 16

// Source fetches playlists and pictures for the controller.
type Source interface {
	FetchPlaylist(ctx context.Context, ch *channel.Channel, action douban.Action, report *douban.SongReport) ([]song.Song, error)
	FetchPicture(ctx context.Context, s song.Song) ([]byte, error)
}

// Config holds controller configuration.
type Config struct {
	Channel     *channel.Channel // Initial channel, nil selects the server default
	EventBuffer int              // Event channel capacity
	Filters     *filter.Chain    // Applied to every fetched batch, may be nil
}

// Controller owns the channel selection, the current song and the queue
// of songs waiting to be played. Calls are serialized by a mutex.
type Controller struct {
	mu sync.Mutex

	source  Source
	filters *filter.Chain

	channel *channel.Channel
	queue   []song.Song
	current *song.Song

	// SID of the current song once its End report succeeded
	endReported string

	eventCh chan Event
	closed  bool
}

// NewController creates a new playback controller.
func NewController(source Source, config Config) *Controller {
	buffer := config.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	c := &Controller{
		source:  source,
		filters: config.Filters,
		queue:   make([]song.Song, 0),
		eventCh: make(chan Event, buffer),
	}
	if config.Channel != nil {
		ch := *config.Channel
		c.channel = &ch
	}
	return c
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Next advances to the next song and returns it.
//
// The current song, if any, is first reported as finished unless the
// override is Skip or Ban, which discard it without that report. A song is
// reported at most once, so retrying after a failed refill does not
// repeat the report. When the
// queue is empty a playlist is then fetched with the override, or with
// Play while a song is current and New otherwise.
// Returns nil without error when nothing could be queued; the current
// song is left unchanged in that case.
func (c *Controller) Next(ctx context.Context, override douban.Action) (*song.Song, error) {
	if !validOverride(override) {
		return nil, errors.Wrapf(ErrInvalidAction, "override %q", string(override))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.current

	if previous != nil && previous.SID != "" && previous.SID != c.endReported && !discardsCurrent(override) {
		if err := c.fetchLocked(ctx, douban.ActionEnd); err != nil {
			return nil, err
		}
		c.endReported = previous.SID
		c.sendEventLocked(Event{Type: EventSongEnded, Song: previous, Action: douban.ActionEnd})
	}

	var fetched douban.Action
	if len(c.queue) == 0 {
		action := override
		if action == "" {
			if previous != nil {
				action = douban.ActionPlay
			} else {
				action = douban.ActionNew
			}
		}
		if err := c.fetchLocked(ctx, action); err != nil {
			return nil, err
		}
		fetched = action
	}

	// Skip and Ban are announced even when the queue still held songs and
	// nothing was sent. Like and Unlike only count when they reached the server.
	if previous != nil && (discardsCurrent(override) || (override != "" && fetched == override)) {
		if t, ok := actionEvent(override); ok {
			c.sendEventLocked(Event{Type: t, Song: previous, Action: override})
		}
	}

	if len(c.queue) == 0 {
		zlog.Warn().Msgf("playback: queue is empty after advance (channel %d)", c.channelIDLocked())
		return nil, nil
	}

	next := c.queue[0]
	c.queue = c.queue[1:]
	c.current = &next
	c.endReported = ""

	zlog.Debug().Msgf("playback: now playing sid=%s %s - %s (%d queued)", next.SID, next.Artist, next.Title, len(c.queue))
	c.sendEventLocked(Event{Type: EventSongStarted, Song: &next})

	out := next
	return &out, nil
}

// Skip discards the current song and advances.
func (c *Controller) Skip(ctx context.Context) (*song.Song, error) {
	return c.Next(ctx, douban.ActionSkip)
}

// Ban bans the current song and advances.
func (c *Controller) Ban(ctx context.Context) (*song.Song, error) {
	return c.Next(ctx, douban.ActionBan)
}

// Like advances with the Like action.
func (c *Controller) Like(ctx context.Context) (*song.Song, error) {
	return c.Next(ctx, douban.ActionLike)
}

// Unlike advances with the Unlike action.
func (c *Controller) Unlike(ctx context.Context) (*song.Song, error) {
	return c.Next(ctx, douban.ActionUnlike)
}

// Rate reports Like or Unlike for the current song without advancing.
// The fetched playlist replaces the queue.
func (c *Controller) Rate(ctx context.Context, action douban.Action) error {
	if action != douban.ActionLike && action != douban.ActionUnlike {
		return errors.Wrapf(ErrInvalidAction, "rate with %s", action)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return ErrNoSong
	}
	if err := c.fetchLocked(ctx, action); err != nil {
		return err
	}

	if t, ok := actionEvent(action); ok {
		c.sendEventLocked(Event{Type: t, Song: c.current, Action: action})
	}
	return nil
}

// SetChannel switches the channel. The current song and the queue are
// dropped so the next advance starts the new channel with New.
func (c *Controller) SetChannel(ch channel.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.channel = &ch
	c.current = nil
	c.endReported = ""
	c.queue = c.queue[:0]

	zlog.Info().Msgf("playback: channel changed: %d %s", ch.ID, ch.Name)
	c.sendEventLocked(Event{Type: EventChannelChanged})
}

// Channel returns the selected channel, or nil for the server default.
func (c *Controller) Channel() *channel.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return nil
	}
	ch := *c.channel
	return &ch
}

// CurrentSong returns a copy of the current song.
func (c *Controller) CurrentSong() (*song.Song, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, false
	}
	s := *c.current
	return &s, true
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stateLocked()
}

// QueueSize returns the number of songs waiting to be played.
func (c *Controller) QueueSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

// QueuedSongs returns a copy of the queue in playback order.
func (c *Controller) QueuedSongs() []song.Song {
	c.mu.Lock()
	defer c.mu.Unlock()

	songs := make([]song.Song, len(c.queue))
	copy(songs, c.queue)
	return songs
}

// FetchPicture downloads the cover picture of s.
func (c *Controller) FetchPicture(ctx context.Context, s song.Song) ([]byte, error) {
	return c.source.FetchPicture(ctx, s)
}

// Close stops event delivery and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.eventCh)
}

// fetchLocked requests a playlist with action and applies the queue policy:
// New, Skip, Ban, Like and Unlike replace the queue, Play appends to it and
// the result of an End report is discarded.
// Must be called with lock held.
func (c *Controller) fetchLocked(ctx context.Context, action douban.Action) error {
	var report *douban.SongReport
	if c.current != nil {
		report = douban.ReportFor(c.current)
	}

	songs, err := c.source.FetchPlaylist(ctx, c.channel, action, report)
	if err != nil {
		return errors.Wrapf(err, "playback: %s request failed", action)
	}

	if action == douban.ActionEnd {
		if report != nil {
			zlog.Debug().Msgf("playback: reported end of sid=%s (%d songs ignored)", report.SID, len(songs))
		}
		return nil
	}

	if len(songs) == 0 {
		return errors.WithAssertionFailure(
			errors.Wrapf(ErrProtocolViolation, "action %s on channel %d", action, c.channelIDLocked()))
	}

	if c.filters != nil {
		songs = c.filters.Apply(ctx, songs)
	}

	switch action {
	case douban.ActionPlay:
		c.queue = append(c.queue, songs...)
	default:
		c.queue = songs
	}

	zlog.Debug().Msgf("playback: queue refilled: action=%s fetched=%d queued=%d", action, len(songs), len(c.queue))
	c.sendEventLocked(Event{Type: EventQueueRefilled, Action: action})
	return nil
}

func (c *Controller) stateLocked() State {
	if c.current == nil {
		return StateIdle
	}
	return StatePlaying
}

func (c *Controller) channelIDLocked() int {
	if c.channel == nil {
		return channel.IDEditorPicks
	}
	return c.channel.ID
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}

	if e.Channel == nil && c.channel != nil {
		ch := *c.channel
		e.Channel = &ch
	}
	if e.Song != nil {
		s := *e.Song
		e.Song = &s
	}
	e.Queued = len(c.queue)
	e.State = c.stateLocked()

	select {
	case c.eventCh <- e:
	default:
		zlog.Debug().Msgf("playback: event dropped: %s", e.Type)
	}
}

// validOverride reports whether a can be passed to Next.
func validOverride(a douban.Action) bool {
	switch a {
	case "", douban.ActionNew, douban.ActionSkip, douban.ActionBan, douban.ActionLike, douban.ActionUnlike:
		return true
	default:
		return false
	}
}

// discardsCurrent reports whether the override abandons the current song
// without it counting as finished.
func discardsCurrent(override douban.Action) bool {
	return override == douban.ActionSkip || override == douban.ActionBan
}
