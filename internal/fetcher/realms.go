package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"ah-price-alerts/internal/market"
)

type hrefLink struct {
	Href string `json:"href"`
	Key  struct {
		Href string `json:"href"`
	} `json:"key"`
}

type connectedRealmIndex struct {
	ConnectedRealms []hrefLink `json:"connected_realms"`
}

type connectedRealmDetail struct {
	ID     int64 `json:"id"`
	Realms []struct {
		Name localizedString `json:"name"`
		Slug string          `json:"slug"`
	} `json:"realms"`
}

// ListClusters returns every connected realm of the region with its realm
// names, sorted by id. A cluster whose detail lookup fails is still returned,
// without names. With IncludeCommodities the region-wide commodity market is
// appended as cluster market.CommoditiesClusterID.
func (b *Blizzard) ListClusters(ctx context.Context) ([]market.RealmCluster, error) {
	ids, err := b.connectedRealmIDs(ctx)
	if err != nil {
		return nil, err
	}

	clusters := make([]market.RealmCluster, 0, len(ids)+1)
	if b.opts.IncludeCommodities {
		clusters = append(clusters, market.RealmCluster{ID: market.CommoditiesClusterID})
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		names, err := b.realmNames(ctx, id)
		if err != nil {
			b.logger.Warn().Err(err).Int64("cluster_id", id).Msg("realm detail unavailable; using fallback label")
		}
		clusters = append(clusters, market.RealmCluster{ID: id, RealmNames: names})
	}
	return clusters, nil
}

func (b *Blizzard) connectedRealmIDs(ctx context.Context) ([]int64, error) {
	query := url.Values{"namespace": {b.dynamicNamespace()}, "locale": {"en_US"}}

	var index connectedRealmIndex
	if err := b.getJSON(ctx, "connected_realm_index", "/data/wow/connected-realm/index", query, &index); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(index.ConnectedRealms))
	seen := make(map[int64]struct{}, len(index.ConnectedRealms))
	for _, link := range index.ConnectedRealms {
		href := link.Href
		if href == "" {
			href = link.Key.Href
		}
		if href == "" {
			continue
		}
		id, err := clusterIDFromHref(href)
		if err != nil {
			b.logger.Warn().Err(err).Str("href", href).Msg("cannot parse connected realm id")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	b.logger.Debug().Int("clusters", len(ids)).Msg("connected realm index loaded")
	return ids, nil
}

// clusterIDFromHref extracts 1080 from ".../connected-realm/1080?namespace=...".
func clusterIDFromHref(href string) (int64, error) {
	u, err := url.Parse(href)
	if err != nil {
		return 0, fmt.Errorf("parse href: %w", err)
	}
	last := path.Base(strings.TrimRight(u.Path, "/"))
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("no connected realm id in %q", u.Path)
	}
	return id, nil
}

func (b *Blizzard) realmNames(ctx context.Context, clusterID int64) ([]string, error) {
	query := url.Values{"namespace": {b.dynamicNamespace()}, "locale": {"en_US"}}
	p := fmt.Sprintf("/data/wow/connected-realm/%d", clusterID)

	var detail connectedRealmDetail
	if err := b.getJSON(ctx, "connected_realm", p, query, &detail); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(detail.Realms))
	for _, r := range detail.Realms {
		name := r.Name.First("en_US", "ru_RU")
		if name == "" {
			name = r.Slug
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
