// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/infra/douban"
	"github.com/osa030/doubanfm/internal/infra/session"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config/fmcli.yaml"

// Config represents the application configuration.
type Config struct {
	API      APIConfig               `yaml:"api"`
	Session  SessionConfig           `yaml:"session"`
	Playback PlaybackConfig          `yaml:"playback"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	LastFM   LastFMConfig            `yaml:"lastfm"`
	Spotify  SpotifyConfig           `yaml:"spotify"`
}

// APIConfig represents Douban FM API configuration.
type APIConfig struct {
	Host      string `yaml:"host" default:"https://fm.douban.com/j/v2" validate:"required,url"`
	UserAgent string `yaml:"user_agent"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=100,lte=120000"`
	Kbps      int    `yaml:"kbps" default:"128" validate:"oneof=64 128 192 320"`
	Client    string `yaml:"client" default:"s:mainsite|y:3.0"`
	AppName   string `yaml:"app_name" default:"radio_website"`
	Version   int    `yaml:"version" default:"100" validate:"gte=1"`
	APIKey    string `yaml:"api_key"`
}

// SessionConfig represents session cookie storage configuration.
type SessionConfig struct {
	CookieFile string `yaml:"cookie_file" default:".user_data"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DefaultChannel *int `yaml:"default_channel" default:"-10"` // pointer: 0 is the personal channel
	EventBuffer    int  `yaml:"event_buffer" default:"16" validate:"gte=1,lte=1024"`
}

// StartChannel returns the channel ID playback starts on.
func (p PlaybackConfig) StartChannel() int {
	if p.DefaultChannel == nil {
		return channel.IDEditorPicks
	}
	return *p.DefaultChannel
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// LastFMConfig represents Last.fm configuration. Enrichment is enabled
// when an API key is set.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// SpotifyConfig represents Spotify API configuration for the like mirror.
type SpotifyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id" validate:"required_if=Enabled true"`
	ClientSecret string `yaml:"client_secret" validate:"required_if=Enabled true"`
	RefreshToken string `yaml:"refresh_token" validate:"required_if=Enabled true"`
	PlaylistURL  string `yaml:"playlist_url" validate:"required_if=Enabled true"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take
// precedence over file values for credentials and paths.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DOUBANFM_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv("DOUBANFM_COOKIE_FILE"); v != "" {
		c.Session.CookieFile = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// DoubanConfig returns the Douban FM client configuration.
func (c *Config) DoubanConfig() douban.Config {
	return douban.Config{
		BaseURL:   c.API.Host,
		UserAgent: c.API.UserAgent,
		Timeout:   time.Duration(c.API.TimeoutMs) * time.Millisecond,
		Kbps:      c.API.Kbps,
		ClientID:  c.API.Client,
		AppName:   c.API.AppName,
		Version:   c.API.Version,
		APIKey:    c.API.APIKey,
	}
}

// CookieFile returns the session cookie path.
func (c *Config) CookieFile() string {
	if c.Session.CookieFile == "" {
		return session.DefaultPath
	}
	return c.Session.CookieFile
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// EnabledFilters returns the settings of every enabled filter by name.
func (c *Config) EnabledFilters() map[string]map[string]any {
	enabled := make(map[string]map[string]any)
	for name, f := range c.Filters {
		if f.Enabled {
			enabled[name] = f.Settings
		}
	}
	return enabled
}
