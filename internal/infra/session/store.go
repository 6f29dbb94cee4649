// Package session persists the service session cookie across runs.
// The cookie is stored base64-encoded in a single local file. A missing
// or unreadable file is never fatal: the client just starts anonymous.
package session

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// DefaultPath is the cookie file used when none is configured.
const DefaultPath = ".user_data"

// Store holds the session token in memory and mirrors it to disk.
type Store struct {
	mu    sync.RWMutex
	path  string
	token string
}

// Open creates a store backed by path and loads any saved token.
func Open(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	s := &Store{path: path}
	s.token = s.load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Token returns the current token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the token and persists it. Persist failures are logged.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	if err := s.save(token); err != nil {
		zlog.Warn().Err(err).Msgf("session: failed to save cookie to %s", s.path)
	}
}

// Clear forgets the token and removes the backing file.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		zlog.Warn().Err(err).Msgf("session: failed to remove %s", s.path)
	}
}

func (s *Store) load() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			zlog.Debug().Msgf("session: no saved cookie at %s", s.path)
		} else {
			zlog.Warn().Err(err).Msgf("session: failed to read %s", s.path)
		}
		return ""
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		zlog.Warn().Err(err).Msgf("session: corrupt cookie file %s, starting anonymous", s.path)
		return ""
	}
	return string(decoded)
}

func (s *Store) save(token string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "failed to create cookie dir")
		}
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(token))
	if err := os.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return errors.Wrap(err, "failed to write cookie file")
	}
	return nil
}
