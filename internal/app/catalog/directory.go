// Package catalog maintains the selectable channel directory.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/domain/channel"
)

// Source fetches the server channel directory grouped by category.
// A nil map with no error means no catalog is available.
type Source interface {
	FetchChannels(ctx context.Context) (map[string][]channel.Channel, error)
}

// Directory merges the fixed channels with the server directory.
type Directory struct {
	mu     sync.RWMutex
	source Source
	groups map[string][]channel.Channel
	byID   map[int]channel.Channel
}

// NewDirectory creates a directory holding only the fixed channels.
func NewDirectory(source Source) *Directory {
	return &Directory{
		source: source,
		groups: make(map[string][]channel.Channel),
		byID:   channel.Fixed(),
	}
}

// Reload replaces the directory with a fresh server fetch.
// Server channels override fixed channels with the same ID.
// On error the previous directory is kept.
func (d *Directory) Reload(ctx context.Context) error {
	groups, err := d.source.FetchChannels(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to reload channels")
	}

	byID := channel.Fixed()
	if groups == nil {
		zlog.Warn().Msg("catalog: channel directory unavailable, only fixed channels are selectable")
		groups = make(map[string][]channel.Channel)
	}

	total := 0
	for _, channels := range groups {
		for _, ch := range channels {
			byID[ch.ID] = ch
			total++
		}
	}

	d.mu.Lock()
	d.groups = groups
	d.byID = byID
	d.mu.Unlock()

	zlog.Info().Msgf("catalog: loaded %d channels in %d groups", total, len(groups))
	return nil
}

// Get returns the channel with the given ID.
func (d *Directory) Get(id int) (channel.Channel, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.byID[id]
	return ch, ok
}

// Resolve returns the channel with the given ID, or fallback if unknown.
func (d *Directory) Resolve(id int, fallback channel.Channel) channel.Channel {
	if ch, ok := d.Get(id); ok {
		return ch
	}
	zlog.Warn().Msgf("catalog: unknown channel %d, keeping %d", id, fallback.ID)
	return fallback
}

// Groups returns the group names in sorted order.
func (d *Directory) Groups() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.groups))
	for name := range d.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Channels returns a copy of the channels in group.
func (d *Directory) Channels(group string) []channel.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	channels, ok := d.groups[group]
	if !ok {
		return nil
	}
	result := make([]channel.Channel, len(channels))
	copy(result, channels)
	return result
}

// All returns a copy of the grouped directory.
func (d *Directory) All() map[string][]channel.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make(map[string][]channel.Channel, len(d.groups))
	for name, channels := range d.groups {
		cp := make([]channel.Channel, len(channels))
		copy(cp, channels)
		result[name] = cp
	}
	return result
}

// Count returns the number of selectable channels.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
