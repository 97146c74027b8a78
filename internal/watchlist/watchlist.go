// Package watchlist loads the items to watch together with their optional
// per-item price ceilings.
package watchlist

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"ah-price-alerts/internal/money"
)

// Entry is one watched item as written by the user.
type Entry struct {
	Name         string
	RawThreshold *string
}

// ItemConfig is the inline config form of an Entry.
type ItemConfig struct {
	Name     string `mapstructure:"name"`
	MaxPrice string `mapstructure:"max_price"`
}

// Source supplies watchlist entries.
type Source interface {
	Load(ctx context.Context) ([]Entry, error)
}

// Threshold parses the entry's raw ceiling and resolves it against the global default.
func (e Entry) Threshold(globalGold decimal.Decimal) money.Copper {
	gold, ok := money.ParseGold(e.RawThreshold)
	if !ok {
		return Resolve(nil, globalGold)
	}
	return Resolve(&gold, globalGold)
}

// Resolve returns the per-item ceiling when present, else the global default.
func Resolve(perItemGold *decimal.Decimal, globalGold decimal.Decimal) money.Copper {
	if perItemGold != nil {
		return money.GoldToCopper(*perItemGold)
	}
	return money.GoldToCopper(globalGold)
}

// StaticSource serves entries listed directly in configuration.
type StaticSource struct {
	Items []ItemConfig
}

// Load implements Source.
func (s StaticSource) Load(context.Context) ([]Entry, error) {
	entries := make([]Entry, 0, len(s.Items))
	for _, item := range s.Items {
		if e, ok := newEntry(item.Name, item.MaxPrice); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func newEntry(name, rawThreshold string) (Entry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, false
	}
	e := Entry{Name: name}
	if raw := strings.TrimSpace(rawThreshold); raw != "" {
		e.RawThreshold = &raw
	}
	return e, true
}
