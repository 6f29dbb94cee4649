// Package douban provides a client for the Douban FM web API.
package douban

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultBaseURL   = "https://fm.douban.com/j/v2"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:93.0) Gecko/20100101 Firefox/93.0"
	defaultTimeout   = 10 * time.Second

	// maxErrorBody caps how much of a failed response is kept.
	maxErrorBody = 4096
)

// TokenStore holds the session cookie.
type TokenStore interface {
	Token() string
	Set(token string)
}

// Config represents Douban FM client configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Session parameters sent with every playlist request.
	Kbps     int
	ClientID string
	AppName  string
	Version  int
	APIKey   string
}

// Client is a Douban FM API client. All requests go through do.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	store      TokenStore
	session    url.Values
}

// New creates a new Douban FM client.
func New(cfg Config, store TokenStore) (*Client, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid base URL %q", cfg.BaseURL)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		session:    sessionParams(cfg),
	}, nil
}

func sessionParams(cfg Config) url.Values {
	params := url.Values{}
	kbps := cfg.Kbps
	if kbps <= 0 {
		kbps = 128
	}
	params.Set("kbps", strconv.Itoa(kbps))
	params.Set("client", cfg.ClientID)
	params.Set("app_name", cfg.AppName)
	params.Set("version", strconv.Itoa(cfg.Version))
	params.Set("apikey", cfg.APIKey)
	return params
}

// endpoint builds the full URL for an API path.
func (c *Client) endpoint(path string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// getJSON requests an API path and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.endpoint(path, params)

	body, err := c.do(ctx, reqURL, true)
	if err != nil {
		return err
	}

	zlog.Debug().Msgf("douban: RSP %s: %s", path, truncate(body, 512))

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: reqURL, Err: err}
	}
	return nil
}

// getRaw requests an absolute URL and returns the raw body.
// The session cookie is only attached for the API host.
func (c *Client) getRaw(ctx context.Context, rawURL string) ([]byte, error) {
	return c.do(ctx, rawURL, c.isAPIHost(rawURL))
}

func (c *Client) isAPIHost(rawURL string) bool {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Host, u.Host)
}

// do sends a GET request with the client identity and, when withSession
// is set, the session cookie. A refreshed cookie is persisted before the
// body is returned.
func (c *Client) do(ctx context.Context, reqURL string, withSession bool) ([]byte, error) {
	zlog.Debug().Msgf("douban: REQ %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	if withSession {
		if token := c.store.Token(); token != "" {
			req.Header.Set("Cookie", token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &TransportError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if cookie := resp.Header.Get("Set-Cookie"); withSession && cookie != "" {
		token, _, _ := strings.Cut(cookie, ";")
		zlog.Debug().Msg("douban: session cookie refreshed")
		c.store.Set(strings.TrimSpace(token))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: errors.Wrap(err, "failed to read response body")}
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
