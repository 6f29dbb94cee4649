package main

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"", command{}},
		{"   ", command{}},
		{"n", command{name: "n"}},
		{" S ", command{name: "s"}},
		{"c 42", command{name: "c", arg: "42"}},
		{"p  covers/now playing.jpg", command{name: "p", arg: "covers/now playing.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.line))
		})
	}
}

func TestScanLines(t *testing.T) {
	lines := scanLines(context.Background(), strings.NewReader("n\ns\n"))

	var got []string
	for l := range lines {
		got = append(got, l)
	}
	assert.Equal(t, []string{"n", "s"}, got)
}

func TestScanLines_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	lines := scanLines(ctx, pr)

	_, err := pw.Write([]byte("n\n"))
	require.NoError(t, err)
	assert.Equal(t, "n", <-lines)

	cancel()
	_, err = pw.Write([]byte("s\n"))
	require.NoError(t, err)

	select {
	case l, ok := <-lines:
		assert.False(t, ok, "unexpected line %q", l)
	case <-time.After(time.Second):
		t.Fatal("line reader did not stop after cancel")
	}
}
