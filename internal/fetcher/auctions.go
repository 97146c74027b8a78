package fetcher

import (
	"context"
	"fmt"
	"net/url"

	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/metrics"
	"ah-price-alerts/internal/money"
)

type auctionsResponse struct {
	Auctions []auctionEntry `json:"auctions"`
}

type auctionEntry struct {
	ID   int64 `json:"id"`
	Item struct {
		ID int64 `json:"id"`
	} `json:"item"`
	Buyout    int64  `json:"buyout"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  *int64 `json:"quantity"`
	TimeLeft  string `json:"time_left"`
	Owner     string `json:"owner"`
}

// FetchClusterListings returns the listings of one connected realm, or of the
// commodity market for market.CommoditiesClusterID. Entries without an item,
// a buyout or a positive quantity are dropped here.
func (b *Blizzard) FetchClusterListings(ctx context.Context, clusterID int64) ([]market.Listing, error) {
	query := url.Values{"namespace": {b.dynamicNamespace()}, "locale": {"en_US"}}

	endpoint := "auctions"
	p := fmt.Sprintf("/data/wow/connected-realm/%d/auctions", clusterID)
	if clusterID == market.CommoditiesClusterID {
		endpoint = "commodities"
		p = "/data/wow/auctions/commodities"
	}

	var resp auctionsResponse
	if err := b.getJSON(ctx, endpoint, p, query, &resp); err != nil {
		return nil, err
	}
	metrics.ListingsSeenTotal.Add(float64(len(resp.Auctions)))

	listings := make([]market.Listing, 0, len(resp.Auctions))
	dropped := 0
	for _, a := range resp.Auctions {
		l, ok := toListing(a, clusterID)
		if !ok {
			dropped++
			continue
		}
		listings = append(listings, l)
	}

	b.logger.Debug().Int64("cluster_id", clusterID).Int("listings", len(listings)).Int("dropped", dropped).Msg("auctions fetched")
	return listings, nil
}

func toListing(a auctionEntry, clusterID int64) (market.Listing, bool) {
	qty := int64(1)
	if a.Quantity != nil {
		qty = *a.Quantity
	}
	if a.Item.ID <= 0 || qty <= 0 {
		return market.Listing{}, false
	}

	buyout := a.Buyout
	if clusterID == market.CommoditiesClusterID && buyout <= 0 && a.UnitPrice > 0 {
		buyout = a.UnitPrice * qty
	}
	if buyout <= 0 {
		return market.Listing{}, false
	}

	seller := a.Owner
	if seller == "" {
		seller = "unknown"
	}

	return market.Listing{
		ItemID:    a.Item.ID,
		Buyout:    money.Copper(buyout),
		Quantity:  qty,
		ListingID: a.ID,
		TimeLeft:  a.TimeLeft,
		Seller:    seller,
		ClusterID: clusterID,
	}, true
}
