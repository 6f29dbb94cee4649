// Package main provides the Douban FM command line player.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/app/filter"
	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/domain/song"
	"github.com/osa030/doubanfm/internal/infra/config"
	"github.com/osa030/doubanfm/internal/infra/logger"
	"github.com/osa030/doubanfm/internal/infra/session"
)

var (
	app        = kingpin.New("fmcli", "Douban FM command line player")
	configPath = app.Flag("config", "Path to config file").Default(config.DefaultPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// 0 is a valid channel ID, so track whether --channel was given.
	playChannelSet bool
	nextChannelSet bool

	playCmd     = app.Command("play", "Play interactively (default)").Default()
	playChannel = playCmd.Flag("channel", "Channel ID to start on").Short('c').IsSetByUser(&playChannelSet).Int()

	channelsCmd   = app.Command("channels", "List channels")
	channelsGroup = channelsCmd.Arg("group", "Only list this group").String()

	nextCmd     = app.Command("next", "Print the next songs and exit")
	nextChannel = nextCmd.Flag("channel", "Channel ID").Short('c').IsSetByUser(&nextChannelSet).Int()
	nextCount   = nextCmd.Flag("count", "Number of songs").Short('n').Default("1").Int()

	logoutCmd      = app.Command("logout", "Forget the stored session cookie")
	listFiltersCmd = app.Command("list-filters", "List available song filters")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Level: "warn", File: *logfile}
	if *verbose {
		loggerConfig.Level = "debug"
	} else if *logfile != "" {
		loggerConfig.Level = "info"
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = closeLog() }()

	zlog.Debug().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == logoutCmd.FullCommand() {
		store := session.Open(cfg.CookieFile())
		store.Clear()
		fmt.Printf("Session cookie removed (%s)\n", store.Path())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, command, cfg); err != nil {
		zlog.Error().Msgf("fmcli: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes a command. Using a separate function ensures deferred
// cleanup runs even when returning with an error.
func run(ctx context.Context, command string, cfg *config.Config) error {
	player, err := newPlayer(ctx, cfg)
	if err != nil {
		return err
	}
	defer player.Close()

	if err := player.directory.Reload(ctx); err != nil {
		zlog.Warn().Msgf("channel directory unavailable: %v", err)
	}

	switch command {
	case channelsCmd.FullCommand():
		printChannels(player, *channelsGroup)
		return nil
	case nextCmd.FullCommand():
		player.selectChannel(startChannel(cfg, *nextChannel, nextChannelSet))
		return printNext(ctx, player, *nextCount)
	default:
		player.selectChannel(startChannel(cfg, *playChannel, playChannelSet))
		player.Start(ctx)
		return newREPL(player, os.Stdin, os.Stdout).Run(ctx)
	}
}

// startChannel prefers an explicit --channel flag over the configured one.
func startChannel(cfg *config.Config, id int, set bool) int {
	if set {
		return id
	}
	return cfg.Playback.StartChannel()
}

func printNext(ctx context.Context, p *player, count int) error {
	for i := 0; i < count; i++ {
		s, err := p.controller.Next(ctx, "")
		if err != nil {
			return errors.Wrap(err, "failed to advance")
		}
		if s == nil {
			fmt.Println("(no more songs)")
			return nil
		}
		fmt.Println(formatSong(s))
		fmt.Printf("  %s\n", s.URL)
	}
	return nil
}

func printChannels(p *player, group string) {
	groups := p.directory.Groups()
	if group != "" {
		groups = []string{group}
	}

	if group == "" {
		fmt.Println("[fixed]")
		fixed := channel.Fixed()
		ids := make([]int, 0, len(fixed))
		for id := range fixed {
			ids = append(ids, id)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ids)))
		for _, id := range ids {
			fmt.Printf("  %6d  %s\n", id, fixed[id].Name)
		}
	}

	for _, g := range groups {
		channels := p.directory.Channels(g)
		if channels == nil {
			fmt.Printf("Unknown group: %s\n", g)
			continue
		}
		fmt.Printf("[%s]\n", g)
		for _, ch := range channels {
			fmt.Printf("  %6d  %s\n", ch.ID, ch.Name)
		}
	}
}

func printFilters() {
	fmt.Println("Available filters:")
	fmt.Println()
	registered := filter.GetRegistered()
	for _, name := range filter.Names() {
		f := registered[name]()
		fmt.Printf("  %s\n", name)
		fmt.Printf("    %s\n", f.Description())
		fmt.Println()
	}
}

func formatSong(s *song.Song) string {
	np := song.NewNowPlaying(s)
	line := fmt.Sprintf("%s - %s", np.Artist(), np.Title())
	if album := np.AlbumTitle(); album != "" {
		line += fmt.Sprintf(" 《%s》", album)
	}
	if np.Duration > 0 {
		line += fmt.Sprintf(" [%s]", song.Clock(np.Duration))
	}
	return line
}
