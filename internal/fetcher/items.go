package fetcher

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"ah-price-alerts/internal/catalog"
)

type itemSearchResponse struct {
	Results []struct {
		Data struct {
			ID   int64           `json:"id"`
			Name localizedString `json:"name"`
		} `json:"data"`
	} `json:"results"`
}

// ResolveItem searches the static item index once per configured locale and
// returns the first item whose name in that locale equals name, ignoring case.
func (b *Blizzard) ResolveItem(ctx context.Context, name string) (int64, string, error) {
	var lastErr error

	for _, loc := range b.opts.Locales {
		query := url.Values{
			"namespace":   {b.staticNamespace()},
			"orderby":     {"id"},
			"_pageSize":   {strconv.Itoa(b.opts.SearchPageSize)},
			"name." + loc: {name},
		}

		var resp itemSearchResponse
		if err := b.getJSON(ctx, "item_search", "/data/wow/search/item", query, &resp); err != nil {
			if ctx.Err() != nil {
				return 0, "", ctx.Err()
			}
			lastErr = err
			b.logger.Debug().Err(err).Str("item", name).Str("locale", loc).Msg("item search failed")
			continue
		}

		for _, r := range resp.Results {
			display := r.Data.Name.In(loc)
			if r.Data.ID > 0 && strings.EqualFold(strings.TrimSpace(display), strings.TrimSpace(name)) {
				return r.Data.ID, display, nil
			}
		}
	}

	if lastErr != nil {
		return 0, "", lastErr
	}
	return 0, "", catalog.ErrNotFound
}

var (
	_ catalog.Resolver = (*Blizzard)(nil)
	_ AuctionSource    = (*Blizzard)(nil)
)
