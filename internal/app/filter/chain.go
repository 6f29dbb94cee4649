package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/doubanfm/internal/domain/song"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromSettings builds a chain from enabled filter settings keyed
// by filter name. Filters are added in name order.
func NewChainFromSettings(enabled map[string]map[string]any) (*Chain, error) {
	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)

	chain := NewChain()
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
		f := factory()
		if err := f.ValidateConfig(enabled[name]); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
		zlog.Info().Msgf("registered song filter: %s", name)
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Check runs all filters in sequence.
// Returns immediately if any filter rejects the song.
func (c *Chain) Check(ctx context.Context, s song.Song) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, s)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the accepted songs, preserving order.
func (c *Chain) Apply(ctx context.Context, songs []song.Song) []song.Song {
	if len(c.filters) == 0 {
		return songs
	}

	kept := make([]song.Song, 0, len(songs))
	for _, s := range songs {
		result := c.Check(ctx, s)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: dropped song: sid=%s title=%s code=%s", s.SID, s.Title, result.Code)
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
