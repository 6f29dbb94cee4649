package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/douban"
)

const helpText = `Commands:
  n           next song (current one counts as finished)
  s           skip
  b           ban (never play again)
  l / u       like / unlike the current song
  c <id>      switch channel
  i           describe the current song
  q           show the queue
  p <file>    save the cover picture
  h           help
  x           exit`

// command is one parsed REPL line.
type command struct {
	name string
	arg  string
}

func parseCommand(line string) command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}
	}
	cmd := command{name: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		cmd.arg = strings.Join(fields[1:], " ")
	}
	return cmd
}

type repl struct {
	player *player
	in     io.Reader
	out    io.Writer
}

func newREPL(p *player, in io.Reader, out io.Writer) *repl {
	return &repl{player: p, in: in, out: out}
}

// Run plays the first song and then handles commands until exit, EOF or
// ctx is done.
func (r *repl) Run(ctx context.Context) error {
	r.player.Announce(r.out)
	if ch := r.player.controller.Channel(); ch != nil {
		fmt.Fprintf(r.out, "Channel: %d %s\n", ch.ID, ch.Name)
	}
	if err := r.advance(ctx, ""); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Type h for help.")

	lines := scanLines(ctx, r.in)

	for {
		fmt.Fprint(r.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		done, err := r.handle(ctx, parseCommand(line))
		if err != nil {
			if errors.HasAssertionFailure(err) {
				return err
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		if done {
			return nil
		}
	}
}

func (r *repl) handle(ctx context.Context, cmd command) (bool, error) {
	c := r.player.controller

	switch cmd.name {
	case "":
		return false, nil
	case "n":
		return false, r.advance(ctx, "")
	case "s":
		return false, r.advance(ctx, douban.ActionSkip)
	case "b":
		return false, r.advance(ctx, douban.ActionBan)
	case "l":
		return false, c.Rate(ctx, douban.ActionLike)
	case "u":
		return false, c.Rate(ctx, douban.ActionUnlike)
	case "c":
		id, err := strconv.Atoi(cmd.arg)
		if err != nil {
			return false, errors.Newf("invalid channel ID %q", cmd.arg)
		}
		if _, ok := r.player.directory.Get(id); !ok {
			return false, errors.Newf("unknown channel %d", id)
		}
		r.player.selectChannel(id)
		return false, r.advance(ctx, "")
	case "i":
		return false, r.describe(ctx)
	case "q":
		for i, s := range c.QueuedSongs() {
			fmt.Fprintf(r.out, "  %2d. %s\n", i+1, formatSong(&s))
		}
		return false, nil
	case "p":
		return false, r.savePicture(ctx, cmd.arg)
	case "h", "help", "?":
		fmt.Fprintln(r.out, helpText)
		return false, nil
	case "x", "exit", "quit":
		return true, nil
	default:
		return false, errors.Newf("unknown command %q (h for help)", cmd.name)
	}
}

func (r *repl) advance(ctx context.Context, action douban.Action) error {
	s, err := r.player.controller.Next(ctx, action)
	if err != nil {
		return errors.Wrap(err, "failed to advance")
	}
	if s == nil {
		fmt.Fprintln(r.out, "Nothing to play on this channel.")
		return nil
	}

	np := song.NewNowPlaying(s)
	fmt.Fprintf(r.out, "♪ %s\n", formatSong(s))
	fmt.Fprintf(r.out, "  %s\n", np.AudioURL())
	return nil
}

func (r *repl) describe(ctx context.Context) error {
	if r.player.describer == nil {
		return errors.New("song details need lastfm.api_key")
	}
	s, ok := r.player.controller.CurrentSong()
	if !ok {
		return errors.New("nothing is playing")
	}

	details, err := r.player.describer.Describe(ctx, *s)
	if err != nil {
		return err
	}
	if len(details.Tags) > 0 {
		fmt.Fprintf(r.out, "  tags (%s): %s\n", details.TagSource, strings.Join(details.Tags, ", "))
	}
	for _, t := range details.Similar {
		fmt.Fprintf(r.out, "  similar: %s - %s\n", t.Artist, t.Name)
	}
	return nil
}

func (r *repl) savePicture(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("usage: p <file>")
	}
	s, ok := r.player.controller.CurrentSong()
	if !ok {
		return errors.New("nothing is playing")
	}

	data, err := r.player.controller.FetchPicture(ctx, *s)
	if err != nil {
		return err
	}
	if data == nil {
		return errors.New("song has no picture")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save picture")
	}
	fmt.Fprintf(r.out, "  saved %d bytes to %s\n", len(data), path)
	return nil
}

// scanLines reads lines from in until EOF or ctx is done. The channel is
// closed when reading stops.
func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
