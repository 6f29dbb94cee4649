package playback

import (
	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/douban"
)

// EventType represents a playback event type.
type EventType int

const (
	EventSongStarted    EventType = iota // Song popped from the queue and made current
	EventSongEnded                       // Finished song reported to the server
	EventSongSkipped                     // Current song skipped, told to the server only on refill
	EventSongBanned                      // Current song banned, told to the server only on refill
	EventSongLiked                       // Current song liked
	EventSongUnliked                     // Like removed from the current song
	EventChannelChanged                  // Channel switched
	EventQueueRefilled                   // Queue replaced or extended by a fetch
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSongStarted:
		return "song_started"
	case EventSongEnded:
		return "song_ended"
	case EventSongSkipped:
		return "song_skipped"
	case EventSongBanned:
		return "song_banned"
	case EventSongLiked:
		return "song_liked"
	case EventSongUnliked:
		return "song_unliked"
	case EventChannelChanged:
		return "channel_changed"
	case EventQueueRefilled:
		return "queue_refilled"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Song    *song.Song       // Song the event refers to (nil for channel/queue events)
	Channel *channel.Channel // Channel at the time of the event
	Action  douban.Action    // Action behind the event; Skip and Ban may not have been sent
	Queued  int              // Queue length after the event
	State   State            // Current playback state
}

// actionEvent maps a reported action to the event announcing it.
func actionEvent(a douban.Action) (EventType, bool) {
	switch a {
	case douban.ActionSkip:
		return EventSongSkipped, true
	case douban.ActionBan:
		return EventSongBanned, true
	case douban.ActionLike:
		return EventSongLiked, true
	case douban.ActionUnlike:
		return EventSongUnliked, true
	case douban.ActionEnd:
		return EventSongEnded, true
	default:
		return 0, false
	}
}
