// Package lastfm provides a small client for the Last.fm web service,
// used to describe the songs the radio plays.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://ws.audioscrobbler.com/2.0/"
	maxLimit       = 100
)

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int // Tag weight, 0-100
}

// SimilarTrack represents a track Last.fm considers similar.
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64
}

// APIError is an error payload returned by Last.fm.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return "last.fm API error " + strconv.Itoa(e.Code) + ": " + e.Message
}

type tagsPayload struct {
	Tag []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	} `json:"tag"`
}

type trackTopTagsResponse struct {
	TopTags tagsPayload `json:"toptags"`
}

type similarTracksResponse struct {
	SimilarTracks struct {
		Track []struct {
			Name   string  `json:"name"`
			Match  float64 `json:"match"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"similartracks"`
}

// Client is a Last.fm API client. Results are cached per request.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	cacheMu sync.RWMutex
	cache   map[string][]byte
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      make(map[string][]byte),
	}, nil
}

// TrackTags retrieves the top tags of a track.
// Reference: https://www.last.fm/api/show/track.getTopTags
func (c *Client) TrackTags(ctx context.Context, title, artist string, limit int) ([]Tag, error) {
	if title == "" || artist == "" {
		return nil, errors.New("track title and artist are required")
	}

	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("autocorrect", "1")

	var response trackTopTagsResponse
	if err := c.call(ctx, "track.getTopTags", params, &response); err != nil {
		return nil, err
	}
	return convertTags(response.TopTags, limit), nil
}

// ArtistTags retrieves the top tags of an artist.
// Reference: https://www.last.fm/api/show/artist.getTopTags
func (c *Client) ArtistTags(ctx context.Context, artist string, limit int) ([]Tag, error) {
	if artist == "" {
		return nil, errors.New("artist is required")
	}

	params := url.Values{}
	params.Set("artist", artist)
	params.Set("autocorrect", "1")

	var response trackTopTagsResponse
	if err := c.call(ctx, "artist.getTopTags", params, &response); err != nil {
		return nil, err
	}
	return convertTags(response.TopTags, limit), nil
}

// SimilarTracks retrieves tracks similar to the given one.
// Reference: https://www.last.fm/api/show/track.getSimilar
func (c *Client) SimilarTracks(ctx context.Context, title, artist string, limit int) ([]SimilarTrack, error) {
	if title == "" || artist == "" {
		return nil, errors.New("track title and artist are required")
	}

	params := url.Values{}
	params.Set("artist", artist)
	params.Set("track", title)
	params.Set("limit", strconv.Itoa(clampLimit(limit, 10)))
	params.Set("autocorrect", "1")

	var response similarTracksResponse
	if err := c.call(ctx, "track.getSimilar", params, &response); err != nil {
		return nil, err
	}

	tracks := make([]SimilarTrack, 0, len(response.SimilarTracks.Track))
	for _, t := range response.SimilarTracks.Track {
		tracks = append(tracks, SimilarTrack{
			Name:   t.Name,
			Artist: t.Artist.Name,
			Match:  t.Match,
		})
	}
	return tracks, nil
}

// call performs a GET for method and decodes the body into out.
// Successful bodies are cached by request.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	params.Set("method", method)
	params.Set("format", "json")
	cacheKey := params.Encode()
	params.Set("api_key", c.apiKey)

	c.cacheMu.RLock()
	body, ok := c.cache[cacheKey]
	c.cacheMu.RUnlock()

	if ok {
		zlog.Debug().Msgf("lastfm: cache hit: %s", cacheKey)
	} else {
		var err error
		body, err = c.get(ctx, c.baseURL+"?"+params.Encode())
		if err != nil {
			return errors.Wrapf(err, "last.fm %s failed", method)
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return errors.Wrapf(&apiErr, "last.fm %s failed", method)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to parse last.fm %s response", method)
	}

	if !ok {
		c.cacheMu.Lock()
		c.cache[cacheKey] = body
		c.cacheMu.Unlock()
	}
	return nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	// Last.fm reports most failures as JSON with a non-200 status.
	if resp.StatusCode != http.StatusOK && !strings.Contains(string(body), `"error"`) {
		return nil, errors.Newf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

func convertTags(payload tagsPayload, limit int) []Tag {
	limit = clampLimit(limit, 10)
	tags := make([]Tag, 0, len(payload.Tag))
	for i, t := range payload.Tag {
		if i >= limit {
			break
		}
		tags = append(tags, Tag{Name: t.Name, Count: t.Count})
	}
	return tags
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
