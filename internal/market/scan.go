package market

import (
	"sort"

	"ah-price-alerts/internal/money"
)

// Scan filters one cluster's listings against the catalog and thresholds and
// keeps the cheapest offer per item. Listings for unknown items, without a
// buyout, with non-positive quantity or priced above the item's threshold are
// skipped. A listing priced exactly at the threshold qualifies.
//
// When a strictly cheaper listing appears the offer is replaced and its
// quantity restarts from that listing; equally priced listings add their
// quantity but keep the first listing as representative.
func Scan(listings []Listing, names map[int64]string, thresholds map[int64]money.Copper) []BestOffer {
	best := make(map[int64]*BestOffer)

	for _, l := range listings {
		if _, ok := names[l.ItemID]; !ok {
			continue
		}
		if l.Buyout <= 0 || l.Quantity <= 0 {
			continue
		}
		limit, ok := thresholds[l.ItemID]
		if !ok {
			continue
		}

		price := l.UnitPrice()
		if price > limit {
			continue
		}

		cur, seen := best[l.ItemID]
		switch {
		case !seen:
			best[l.ItemID] = &BestOffer{
				ItemID:    l.ItemID,
				ClusterID: l.ClusterID,
				UnitPrice: price,
				Quantity:  l.Quantity,
				ListingID: l.ListingID,
				TimeLeft:  l.TimeLeft,
			}
		case price < cur.UnitPrice:
			*cur = BestOffer{
				ItemID:    l.ItemID,
				ClusterID: l.ClusterID,
				UnitPrice: price,
				Quantity:  l.Quantity,
				ListingID: l.ListingID,
				TimeLeft:  l.TimeLeft,
			}
		case price == cur.UnitPrice:
			cur.Quantity += l.Quantity
		}
	}

	offers := make([]BestOffer, 0, len(best))
	for _, o := range best {
		offers = append(offers, *o)
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ItemID < offers[j].ItemID })
	return offers
}
