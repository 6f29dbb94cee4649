// Package enrich describes songs with Last.fm tags and similar tracks.
package enrich

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/lastfm"
)

const (
	defaultTagCount     = 5
	defaultSimilarCount = 5
)

// TagSource defines the Last.fm operations used for descriptions.
type TagSource interface {
	TrackTags(ctx context.Context, title, artist string, limit int) ([]lastfm.Tag, error)
	ArtistTags(ctx context.Context, artist string, limit int) ([]lastfm.Tag, error)
	SimilarTracks(ctx context.Context, title, artist string, limit int) ([]lastfm.SimilarTrack, error)
}

// Details describes a song.
type Details struct {
	Tags      []string
	TagSource string // "track" or "artist"
	Similar   []lastfm.SimilarTrack
}

// Describer looks up details for songs.
type Describer struct {
	source       TagSource
	tagCount     int
	similarCount int
}

// New creates a new Describer.
func New(source TagSource) *Describer {
	return &Describer{
		source:       source,
		tagCount:     defaultTagCount,
		similarCount: defaultSimilarCount,
	}
}

// Describe returns tags and similar tracks for s. Track tags are preferred;
// artist tags are used when the track has none. Lookup failures of one
// kind do not prevent the other; an error is returned only when nothing
// could be found and every lookup failed.
func (d *Describer) Describe(ctx context.Context, s song.Song) (Details, error) {
	artist := primaryArtist(s)
	if s.Title == "" || artist == "" {
		return Details{}, errors.Newf("song %s has no title or artist", s.SID)
	}

	var (
		details Details
		errs    []error
	)

	lookups := []struct {
		name string
		tags func() ([]lastfm.Tag, error)
	}{
		{"track", func() ([]lastfm.Tag, error) { return d.source.TrackTags(ctx, s.Title, artist, d.tagCount) }},
		{"artist", func() ([]lastfm.Tag, error) { return d.source.ArtistTags(ctx, artist, d.tagCount) }},
	}
	for _, l := range lookups {
		tags, err := l.tags()
		if err != nil {
			zlog.Debug().Msgf("enrich: %s tags failed, trying next: %v", l.name, err)
			errs = append(errs, err)
			continue
		}
		if len(tags) == 0 {
			continue
		}
		details.TagSource = l.name
		for _, t := range tags {
			details.Tags = append(details.Tags, t.Name)
		}
		break
	}

	similar, err := d.source.SimilarTracks(ctx, s.Title, artist, d.similarCount)
	if err != nil {
		zlog.Debug().Msgf("enrich: similar tracks failed: %v", err)
		errs = append(errs, err)
	} else {
		details.Similar = similar
	}

	if len(details.Tags) == 0 && len(details.Similar) == 0 && len(errs) == len(lookups)+1 {
		return Details{}, errors.Wrapf(errors.Join(errs...), "failed to describe %s - %s", artist, s.Title)
	}
	return details, nil
}

// primaryArtist prefers the first credited singer over the display name,
// which may list several performers.
func primaryArtist(s song.Song) string {
	if names := s.SingerNames(); len(names) > 0 && names[0] != "" {
		return names[0]
	}
	return s.Artist
}
