package douban

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// The API is loose about scalar types: IDs and counts arrive either as
// numbers or as quoted strings, and some booleans arrive as "true".

// flexInt accepts 12, "12" and "" (zero).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.Wrapf(err, "invalid integer %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		return errors.Wrapf(err, "invalid integer %s", n)
	}
	*f = flexInt(i)
	return nil
}

// flexString accepts "128" and 128.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexBool is true only for JSON true or the string "true".
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*f = true
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = s == "true"
	default:
		*f = false
	}
	return nil
}

// channelsResponse represents the response from rec_channels.
type channelsResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Channels map[string][]channelPayload `json:"channels"`
	} `json:"data"`
}

type channelPayload struct {
	ID          flexInt    `json:"id"`
	Name        string     `json:"name"`
	Intro       string     `json:"intro"`
	RecReason   string     `json:"rec_reason"`
	Banner      string     `json:"banner"`
	Cover       string     `json:"cover"`
	SongToStart flexString `json:"song_to_start"`
	SongNum     flexInt    `json:"song_num"`
	Collected   flexBool   `json:"collected"`
	Shareable   flexBool   `json:"shareable"`
	ArtistID    flexString `json:"artist_id"`
	Creator     struct {
		ID   flexInt `json:"id"`
		Name string  `json:"name"`
		URL  string  `json:"url"`
	} `json:"creator"`
	RelatedArtists []struct {
		ID    flexString `json:"id"`
		Name  string     `json:"name"`
		Cover string     `json:"cover"`
	} `json:"related_artists"`
}

// playlistResponse represents the response from playlist.
type playlistResponse struct {
	R     int           `json:"r"`
	Err   string        `json:"err"`
	Songs []songPayload `json:"song"`
}

type singerPayload struct {
	ID            flexString `json:"id"`
	Name          string     `json:"name"`
	NameUsual     string     `json:"name_usual"`
	Region        []string   `json:"region"`
	Genre         []string   `json:"genre"`
	Style         []string   `json:"style"`
	Avatar        string     `json:"avatar"`
	RelatedSiteID flexInt    `json:"related_site_id"`
	IsSiteArtist  flexBool   `json:"is_site_artist"`
}

type songPayload struct {
	SID              flexString      `json:"sid"`
	SSID             string          `json:"ssid"`
	Title            string          `json:"title"`
	Artist           string          `json:"artist"`
	AlbumTitle       string          `json:"albumtitle"`
	Album            string          `json:"album"`
	URL              string          `json:"url"`
	Picture          string          `json:"picture"`
	FileExt          string          `json:"file_ext"`
	Kbps             flexString      `json:"kbps"`
	Length           flexInt         `json:"length"`
	Like             flexInt         `json:"like"`
	Status           flexInt         `json:"status"`
	IsDoubanPlayable flexBool        `json:"is_douban_playable"`
	IsRoyal          flexBool        `json:"is_royal"`
	AlertMsg         string          `json:"alert_msg"`
	PublicTime       flexString      `json:"public_time"`
	UpdateTime       flexInt         `json:"update_time"`
	SHA256           string          `json:"sha256"`
	AID              flexString      `json:"aid"`
	Subtype          string          `json:"subtype"`
	Singers          []singerPayload `json:"singers"`
	Release          struct {
		ID    flexString `json:"id"`
		SSID  string     `json:"ssid"`
		Title string     `json:"title"`
		Cover string     `json:"cover"`
		Link  string     `json:"link"`
	} `json:"release"`
}
