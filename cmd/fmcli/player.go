package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/app/catalog"
	"github.com/osa030/doubanfm/internal/app/enrich"
	"github.com/osa030/doubanfm/internal/app/filter"
	"github.com/osa030/doubanfm/internal/app/mirror"
	"github.com/osa030/doubanfm/internal/app/notification"
	"github.com/osa030/doubanfm/internal/app/playback"
	"github.com/osa030/doubanfm/internal/domain/channel"
	"github.com/osa030/doubanfm/internal/infra/config"
	"github.com/osa030/doubanfm/internal/infra/douban"
	"github.com/osa030/doubanfm/internal/infra/lastfm"
	"github.com/osa030/doubanfm/internal/infra/session"
	"github.com/osa030/doubanfm/internal/infra/spotify"
)

// player wires the radio components for one listening session.
type player struct {
	store      *session.Store
	client     *douban.Client
	directory  *catalog.Directory
	controller *playback.Controller
	notifier   *notification.Manager
	describer  *enrich.Describer // nil without a Last.fm API key
	mirror     *mirror.Mirror    // nil unless enabled

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newPlayer(ctx context.Context, cfg *config.Config) (*player, error) {
	store := session.Open(cfg.CookieFile())

	client, err := douban.New(cfg.DoubanConfig(), store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Douban FM client")
	}

	chain, err := filter.NewChainFromSettings(cfg.EnabledFilters())
	if err != nil {
		return nil, errors.Wrap(err, "invalid filter config")
	}

	p := &player{
		store:     store,
		client:    client,
		directory: catalog.NewDirectory(client),
		controller: playback.NewController(client, playback.Config{
			EventBuffer: cfg.Playback.EventBuffer,
			Filters:     chain,
		}),
		notifier: notification.NewManager(),
	}

	if cfg.LastFM.APIKey != "" {
		lf, err := lastfm.New(lastfm.Config{
			APIKey:  cfg.LastFM.APIKey,
			Timeout: cfg.DoubanConfig().Timeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Last.fm client")
		}
		p.describer = enrich.New(lf)
	}

	if cfg.Spotify.Enabled {
		sp, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create Spotify client")
		}
		p.mirror = mirror.New(sp, cfg.Spotify.PlaylistURL)
		p.notifier.Subscribe(p.mirror)
		zlog.Info().Msgf("mirroring liked songs to %s", cfg.Spotify.PlaylistURL)
	}

	return p, nil
}

// selectChannel switches to the channel with id, falling back to the
// editor's picks when the directory does not know it.
func (p *player) selectChannel(id int) channel.Channel {
	fallback := channel.Fixed()[channel.IDEditorPicks]
	ch := p.directory.Resolve(id, fallback)
	p.controller.SetChannel(ch)
	return ch
}

// Start runs the notification fan-out and the mirror worker.
func (p *player) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.notifier.Run(ctx, p.controller.Events())
	}()

	if p.mirror != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.mirror.Run(ctx)
		}()
	}
}

// Announce prints song events to w.
func (p *player) Announce(w io.Writer) string {
	return p.notifier.Subscribe(notification.ListenerFunc(func(ctx context.Context, n notification.Notification) error {
		e := n.Event
		switch e.Type {
		case playback.EventSongLiked, playback.EventSongUnliked, playback.EventSongBanned:
			if e.Song != nil {
				_, err := fmt.Fprintf(w, "  (%s: %s)\n", e.Type, formatSong(e.Song))
				return err
			}
		case playback.EventChannelChanged:
			if e.Channel != nil {
				_, err := fmt.Fprintf(w, "  (channel: %d %s)\n", e.Channel.ID, e.Channel.Name)
				return err
			}
		}
		return nil
	}))
}

// Close stops background work and the controller.
func (p *player) Close() {
	p.controller.Close()
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.notifier.Close()
}
