package douban

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/domain/channel"
)

// FetchChannels retrieves the channel directory grouped by category.
// Returns nil without error when the server reports no catalog.
func (c *Client) FetchChannels(ctx context.Context) (map[string][]channel.Channel, error) {
	params := url.Values{}
	params.Set("specific", "all")

	var response channelsResponse
	if err := c.getJSON(ctx, "rec_channels", params, &response); err != nil {
		return nil, errors.Wrap(err, "failed to fetch channels")
	}

	if !response.Status {
		zlog.Debug().Msg("douban: channel directory unavailable")
		return nil, nil
	}

	groups := make(map[string][]channel.Channel, len(response.Data.Channels))
	for group, payloads := range response.Data.Channels {
		channels := make([]channel.Channel, 0, len(payloads))
		for _, p := range payloads {
			channels = append(channels, convertChannel(p))
		}
		groups[group] = channels
	}

	return groups, nil
}

// convertChannel converts a channel payload to the domain Channel.
func convertChannel(p channelPayload) channel.Channel {
	var related []channel.RelatedArtist
	if len(p.RelatedArtists) > 0 {
		related = make([]channel.RelatedArtist, len(p.RelatedArtists))
		for i, a := range p.RelatedArtists {
			related[i] = channel.RelatedArtist{
				ID:    string(a.ID),
				Name:  a.Name,
				Cover: a.Cover,
			}
		}
	}

	return channel.Channel{
		ID:   int(p.ID),
		Name: p.Name,
		Creator: channel.Creator{
			ID:   int(p.Creator.ID),
			Name: p.Creator.Name,
			URL:  p.Creator.URL,
		},
		Intro:          p.Intro,
		RecReason:      p.RecReason,
		Banner:         p.Banner,
		Cover:          p.Cover,
		SongToStart:    string(p.SongToStart),
		SongNum:        int(p.SongNum),
		Collected:      bool(p.Collected),
		Shareable:      bool(p.Shareable),
		ArtistID:       string(p.ArtistID),
		RelatedArtists: related,
	}
}
