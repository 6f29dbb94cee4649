package douban

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/domain/song"
)

// SongReport identifies the song a playlist request refers to.
type SongReport struct {
	SID      string // Song ID (sid)
	Position string // Playback position (pt), may be empty
	Kbps     string // Bitrate the song was played at (pb)
}

// ReportFor builds a report for s with an empty position marker.
func ReportFor(s *song.Song) *SongReport {
	return &SongReport{SID: s.SID, Kbps: s.Kbps}
}

// FetchPlaylist requests a playlist page for ch.
// A nil channel requests the default channel. Returns nil without error
// when the server answers with a nonzero result code.
func (c *Client) FetchPlaylist(ctx context.Context, ch *channel.Channel, action Action, report *SongReport) ([]song.Song, error) {
	if !action.Valid() {
		return nil, errors.Newf("invalid playlist action %q", string(action))
	}

	channelID := channel.IDEditorPicks
	if ch != nil {
		channelID = ch.ID
	}

	params := url.Values{}
	params.Set("channel", strconv.Itoa(channelID))
	for k, v := range c.session {
		params[k] = append([]string(nil), v...)
	}
	params.Set("type", string(action))
	if report != nil {
		params.Set("sid", report.SID)
		params.Set("pt", report.Position)
		params.Set("pb", report.Kbps)
	}

	var response playlistResponse
	if err := c.getJSON(ctx, "playlist", params, &response); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch playlist (channel %d, action %s)", channelID, action)
	}

	if response.R != 0 {
		zlog.Debug().Msgf("douban: no playlist: channel=%d action=%s r=%d err=%s",
			channelID, action, response.R, response.Err)
		return nil, nil
	}

	songs := make([]song.Song, 0, len(response.Songs))
	for _, p := range response.Songs {
		songs = append(songs, convertSong(p))
	}
	return songs, nil
}

// FetchPicture downloads the song's cover picture.
// Returns nil without error when the song has no picture.
func (c *Client) FetchPicture(ctx context.Context, s song.Song) ([]byte, error) {
	if strings.TrimSpace(s.Picture) == "" {
		return nil, nil
	}
	data, err := c.getRaw(ctx, s.Picture)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch picture for song %s", s.SID)
	}
	return data, nil
}

// convertSong converts a song payload to the domain Song.
func convertSong(p songPayload) song.Song {
	singers := make([]song.Singer, 0, len(p.Singers))
	for _, sp := range p.Singers {
		singers = append(singers, song.Singer{
			ID:            string(sp.ID),
			Name:          sp.Name,
			NameUsual:     sp.NameUsual,
			Region:        sp.Region,
			Genre:         sp.Genre,
			Style:         sp.Style,
			Avatar:        sp.Avatar,
			RelatedSiteID: int(sp.RelatedSiteID),
			IsSiteArtist:  bool(sp.IsSiteArtist),
		})
	}

	return song.Song{
		SID:              string(p.SID),
		SSID:             p.SSID,
		Title:            p.Title,
		Artist:           p.Artist,
		AlbumTitle:       p.AlbumTitle,
		Album:            p.Album,
		URL:              p.URL,
		Picture:          p.Picture,
		FileExt:          p.FileExt,
		Kbps:             string(p.Kbps),
		Length:           int(p.Length),
		Like:             int(p.Like),
		Status:           int(p.Status),
		IsDoubanPlayable: bool(p.IsDoubanPlayable),
		IsRoyal:          bool(p.IsRoyal),
		AlertMsg:         p.AlertMsg,
		PublicTime:       string(p.PublicTime),
		UpdateTime:       int64(p.UpdateTime),
		SHA256:           p.SHA256,
		AID:              string(p.AID),
		Subtype:          p.Subtype,
		Singers:          singers,
		Release: song.Release{
			ID:    string(p.Release.ID),
			SSID:  p.Release.SSID,
			Title: p.Release.Title,
			Cover: p.Release.Cover,
			Link:  p.Release.Link,
		},
	}
}
