package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fmcli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOUBANFM_API_KEY", "DOUBANFM_COOKIE_FILE", "LASTFM_API_KEY",
		"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REFRESH_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://fm.douban.com/j/v2", cfg.API.Host)
	assert.Equal(t, 10000, cfg.API.TimeoutMs)
	assert.Equal(t, 128, cfg.API.Kbps)
	assert.Equal(t, "s:mainsite|y:3.0", cfg.API.Client)
	assert.Equal(t, "radio_website", cfg.API.AppName)
	assert.Equal(t, 100, cfg.API.Version)
	assert.Equal(t, ".user_data", cfg.CookieFile())
	assert.Equal(t, -10, cfg.Playback.StartChannel())
	assert.Equal(t, 16, cfg.Playback.EventBuffer)
	assert.False(t, cfg.Spotify.Enabled)
	assert.Equal(t, "JP", cfg.Spotify.Market)
	assert.Empty(t, cfg.EnabledFilters())
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
api:
  timeout_ms: 3000
  kbps: 192
  api_key: file-key
session:
  cookie_file: /tmp/fm/cookie
playback:
  default_channel: 0
filters:
  playable_song_filter:
    enabled: true
  duration_limit_filter:
    enabled: false
    settings:
      max_seconds: 600
  artist_block_filter:
    enabled: true
    settings:
      artists: ["Muse"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 192, cfg.API.Kbps)
	assert.Equal(t, "/tmp/fm/cookie", cfg.CookieFile())
	assert.Equal(t, 0, cfg.Playback.StartChannel())
	assert.True(t, cfg.IsFilterEnabled("playable_song_filter"))
	assert.False(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("unknown"))

	enabled := cfg.EnabledFilters()
	assert.Len(t, enabled, 2)
	assert.Equal(t, []any{"Muse"}, enabled["artist_block_filter"]["artists"])

	dc := cfg.DoubanConfig()
	assert.Equal(t, 3*time.Second, dc.Timeout)
	assert.Equal(t, "file-key", dc.APIKey)
	assert.Equal(t, 192, dc.Kbps)
	assert.Equal(t, 100, dc.Version)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOUBANFM_API_KEY", "env-key")
	t.Setenv("DOUBANFM_COOKIE_FILE", "/var/lib/fm/cookie")
	t.Setenv("LASTFM_API_KEY", "lastfm-key")
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "token")

	path := writeConfig(t, `
api:
  api_key: file-key
spotify:
  enabled: true
  playlist_url: https://open.spotify.com/playlist/abc
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.APIKey)
	assert.Equal(t, "/var/lib/fm/cookie", cfg.CookieFile())
	assert.Equal(t, "lastfm-key", cfg.LastFM.APIKey)
	assert.Equal(t, "id", cfg.Spotify.ClientID)
	assert.Equal(t, "secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "token", cfg.Spotify.RefreshToken)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "api: [unclosed"},
		{"bad kbps", "api:\n  kbps: 100\n"},
		{"bad host", "api:\n  host: not a url\n"},
		{"timeout too small", "api:\n  timeout_ms: 10\n"},
		{"spotify enabled without credentials", "spotify:\n  enabled: true\n"},
		{"bad market", "spotify:\n  market: JPN\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnreadablePath(t *testing.T) {
	clearEnv(t)
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
