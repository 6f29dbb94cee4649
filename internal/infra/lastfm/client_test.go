package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestTrackTags(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "track.getTopTags", q.Get("method"))
		assert.Equal(t, "陈绮贞", q.Get("artist"))
		assert.Equal(t, "旅行的意义", q.Get("track"))
		assert.Equal(t, "test_key", q.Get("api_key"))
		assert.Equal(t, "json", q.Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"toptags": {
				"tag": [
					{"name": "folk", "count": 100, "url": "https://www.last.fm/tag/folk"},
					{"name": "indie", "count": 80},
					{"name": "taiwanese", "count": 40}
				]
			}
		}`)
	})

	ctx := context.Background()
	tags, err := client.TrackTags(ctx, "旅行的意义", "陈绮贞", 2)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Name: "folk", Count: 100}, {Name: "indie", Count: 80}}, tags)

	cached, err := client.TrackTags(ctx, "旅行的意义", "陈绮贞", 2)
	require.NoError(t, err)
	assert.Equal(t, tags, cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestArtistTags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist.getTopTags", r.URL.Query().Get("method"))
		assert.Empty(t, r.URL.Query().Get("track"))
		fmt.Fprint(w, `{"toptags": {"tag": [{"name": "mandopop", "count": 100}]}}`)
	})

	tags, err := client.ArtistTags(context.Background(), "周杰伦", 0)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Name: "mandopop", Count: 100}}, tags)

	_, err = client.ArtistTags(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestSimilarTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "track.getSimilar", r.URL.Query().Get("method"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{
			"similartracks": {
				"track": [
					{"name": "Track 1", "match": 1, "artist": {"name": "Artist 1"}},
					{"name": "Track 2", "match": 0.42, "artist": {"name": "Artist 2"}}
				]
			}
		}`)
	})

	tracks, err := client.SimilarTracks(context.Background(), "song", "artist", 500)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, SimilarTrack{Name: "Track 2", Artist: "Artist 2", Match: 0.42}, tracks[1])

	_, err = client.SimilarTracks(context.Background(), "", "artist", 5)
	assert.Error(t, err)
}

func TestAPIErrorIsNotCached(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
	})

	for i := 0; i < 2; i++ {
		_, err := client.TrackTags(context.Background(), "unknown", "nobody", 5)
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 6, apiErr.Code)
		assert.Equal(t, "Track not found", apiErr.Message)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "bad gateway")
	})

	_, err := client.TrackTags(context.Background(), "a", "b", 5)
	assert.ErrorContains(t, err, "unexpected status 502")
}
