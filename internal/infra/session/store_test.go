package session

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")

	s := Open(path)
	assert.Empty(t, s.Token())

	s.Set(`bid="abc=123&x"`)
	assert.Equal(t, `bid="abc=123&x"`, s.Token())

	reopened := Open(path)
	assert.Equal(t, `bid="abc=123&x"`, reopened.Token())
}

func TestStore_FileIsBase64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")

	Open(path).Set("dbcl2=token")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("dbcl2=token")), string(data))
}

func TestStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cookie")

	Open(path).Set("bid=1")

	assert.Equal(t, "bid=1", Open(path).Token())
}

func TestStore_LoadFailsSoft(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
		},
		{
			name: "corrupt content",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "cookie")
				require.NoError(t, os.WriteFile(path, []byte("%%% not base64 %%%"), 0o600))
				return path
			},
		},
		{
			name: "path is a directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Open(tt.setup(t))
			assert.Empty(t, s.Token())
		})
	}
}

func TestStore_SaveFailureKeepsTokenInMemory(t *testing.T) {
	// The backing path is a directory, so the write fails.
	dir := t.TempDir()
	s := Open(dir)

	s.Set("bid=1")

	assert.Equal(t, "bid=1", s.Token())
}

func TestStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookie")
	s := Open(path)
	s.Set("bid=1")

	s.Clear()

	assert.Empty(t, s.Token())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, Open(path).Token())

	// Clearing twice is harmless.
	s.Clear()
}

func TestOpen_DefaultPath(t *testing.T) {
	s := Open("  ")
	assert.Equal(t, DefaultPath, s.Path())
}
