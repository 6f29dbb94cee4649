package filter

import (
	"context"

	"github.com/osa030/doubanfm/internal/domain/song"
)

// PlayableFilter drops songs that cannot be streamed.
type PlayableFilter struct{}

func (f *PlayableFilter) Name() string {
	return "playable_song_filter"
}

func (f *PlayableFilter) Description() string {
	return "Drops songs without an audio URL or not playable on the service"
}

func (f *PlayableFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *PlayableFilter) Check(ctx context.Context, s song.Song) Result {
	if !s.Playable() {
		return Reject("unplayable")
	}
	return Accept()
}

func init() {
	Register("playable_song_filter", func() Filter {
		return &PlayableFilter{}
	})
}
