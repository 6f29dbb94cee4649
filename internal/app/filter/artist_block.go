package filter

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/doubanfm/internal/domain/song"
)

// ArtistBlockConfig represents the configuration for ArtistBlockFilter.
type ArtistBlockConfig struct {
	Artists []string `yaml:"artists" mapstructure:"artists" validate:"required,min=1,dive,required"`
}

// ArtistBlockFilter drops songs by blocked artists.
// Matching is case-insensitive against the artist and every singer.
type ArtistBlockFilter struct {
	blocked map[string]bool
}

func (f *ArtistBlockFilter) Name() string {
	return "artist_block_filter"
}

func (f *ArtistBlockFilter) Description() string {
	return "Drops songs by blocked artists"
}

func (f *ArtistBlockFilter) ValidateConfig(settings map[string]any) error {
	var config ArtistBlockConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.blocked = make(map[string]bool, len(config.Artists))
	for _, a := range config.Artists {
		f.blocked[normalizeArtist(a)] = true
	}
	return nil
}

func (f *ArtistBlockFilter) Check(ctx context.Context, s song.Song) Result {
	if f.blocked[normalizeArtist(s.Artist)] {
		return Reject("artist_blocked")
	}
	for _, name := range s.SingerNames() {
		if f.blocked[normalizeArtist(name)] {
			return Reject("artist_blocked")
		}
	}
	return Accept()
}

func normalizeArtist(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func init() {
	Register("artist_block_filter", func() Filter {
		return &ArtistBlockFilter{}
	})
}
