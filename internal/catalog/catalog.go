// Package catalog maps watched item names to provider item ids and ceilings.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ah-price-alerts/internal/money"
	"ah-price-alerts/internal/watchlist"
)

// ErrNotFound is returned by a Resolver when no item matches the name exactly.
var ErrNotFound = errors.New("item not found")

// Item is a resolved, watched item.
type Item struct {
	ID        int64
	Name      string
	Threshold money.Copper
}

// Resolver looks up an item by its exact (case-insensitive) name.
type Resolver interface {
	ResolveItem(ctx context.Context, name string) (id int64, displayName string, err error)
}

// Catalog is the immutable set of items watched during one run.
type Catalog struct {
	items map[int64]Item
}

// New builds a catalog from already resolved items. Later duplicates are ignored.
func New(items ...Item) *Catalog {
	c := &Catalog{items: make(map[int64]Item, len(items))}
	for _, it := range items {
		if _, dup := c.items[it.ID]; !dup {
			c.items[it.ID] = it
		}
	}
	return c
}

// Build resolves every entry, attaches its ceiling and skips names the
// resolver cannot find. It never fails: misses are logged.
func Build(ctx context.Context, entries []watchlist.Entry, resolver Resolver, defaultGold decimal.Decimal, logger zerolog.Logger) *Catalog {
	c := &Catalog{items: make(map[int64]Item, len(entries))}

	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}

		id, name, err := resolver.ResolveItem(ctx, e.Name)
		if err != nil {
			ev := logger.Warn().Str("item", e.Name)
			if !errors.Is(err, ErrNotFound) {
				ev = ev.Err(err)
			}
			ev.Msg("item not resolved")
			continue
		}
		if name == "" {
			name = e.Name
		}
		if prev, dup := c.items[id]; dup {
			logger.Warn().Int64("item_id", id).Str("item", e.Name).Str("kept", prev.Name).Msg("duplicate watchlist item ignored")
			continue
		}

		item := Item{ID: id, Name: name, Threshold: e.Threshold(defaultGold)}
		c.items[id] = item
		logger.Debug().Int64("item_id", id).Str("item", name).Str("threshold", item.Threshold.String()).Msg("item resolved")
	}

	return c
}

// Len returns the number of resolved items.
func (c *Catalog) Len() int { return len(c.items) }

// Item returns the item with the given id.
func (c *Catalog) Item(id int64) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Items returns all items ordered by name, then id.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Names maps item id to display name.
func (c *Catalog) Names() map[int64]string {
	out := make(map[int64]string, len(c.items))
	for id, it := range c.items {
		out[id] = it.Name
	}
	return out
}

// Thresholds maps item id to its ceiling.
func (c *Catalog) Thresholds() map[int64]money.Copper {
	out := make(map[int64]money.Copper, len(c.items))
	for id, it := range c.items {
		out[id] = it.Threshold
	}
	return out
}
