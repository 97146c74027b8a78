package market

import (
	"sort"
	"sync"
)

// ClusterResult is the outcome of scanning one cluster. A non-nil Err means
// the cluster contributes nothing.
type ClusterResult struct {
	Cluster RealmCluster
	Offers  []BestOffer
	Err     error
}

// AlertKey identifies an item in the aggregated output.
type AlertKey struct {
	ItemID int64
	Name   string
}

// LabeledOffer is a BestOffer together with its cluster's display label.
type LabeledOffer struct {
	Label string
	BestOffer
}

// AggregatedAlert is the cross-cluster summary for one item, one offer per
// cluster label, cheapest first.
type AggregatedAlert struct {
	AlertKey
	Offers []LabeledOffer
}

// Aggregator merges per-cluster offers into one record set per item. It is
// safe for concurrent use; the merge is additive and independent of the order
// in which clusters arrive.
type Aggregator struct {
	names map[int64]string

	mu     sync.Mutex
	alerts map[AlertKey]map[string]LabeledOffer
	failed int
	merged int
}

// NewAggregator builds an aggregator that names items from the catalog.
func NewAggregator(names map[int64]string) *Aggregator {
	return &Aggregator{
		names:  names,
		alerts: make(map[AlertKey]map[string]LabeledOffer),
	}
}

// Add merges one cluster's result. Failed clusters are counted and otherwise ignored.
func (a *Aggregator) Add(res ClusterResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if res.Err != nil {
		a.failed++
		return
	}
	a.merged++

	label := res.Cluster.Label()
	for _, offer := range res.Offers {
		key := AlertKey{ItemID: offer.ItemID, Name: a.names[offer.ItemID]}
		byLabel, ok := a.alerts[key]
		if !ok {
			byLabel = make(map[string]LabeledOffer)
			a.alerts[key] = byLabel
		}
		cur, exists := byLabel[label]
		if !exists || preferred(offer, cur.BestOffer) {
			byLabel[label] = LabeledOffer{Label: label, BestOffer: offer}
		}
	}
}

// preferred reports whether candidate should replace current under one label.
// Cheaper wins; an exact price tie goes to the lower cluster id, then the
// lower listing id, so that arrival order never matters.
func preferred(candidate, current BestOffer) bool {
	if candidate.UnitPrice != current.UnitPrice {
		return candidate.UnitPrice < current.UnitPrice
	}
	if candidate.ClusterID != current.ClusterID {
		return candidate.ClusterID < current.ClusterID
	}
	return candidate.ListingID < current.ListingID
}

// Failed returns the number of cluster results that carried an error.
func (a *Aggregator) Failed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Merged returns the number of successfully merged cluster results.
func (a *Aggregator) Merged() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.merged
}

// Alerts returns a snapshot ordered by item name then id, each item's offers
// ordered by ascending unit price then label.
func (a *Aggregator) Alerts() []AggregatedAlert {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]AggregatedAlert, 0, len(a.alerts))
	for key, byLabel := range a.alerts {
		offers := make([]LabeledOffer, 0, len(byLabel))
		for _, o := range byLabel {
			offers = append(offers, o)
		}
		sort.Slice(offers, func(i, j int) bool {
			if offers[i].UnitPrice != offers[j].UnitPrice {
				return offers[i].UnitPrice < offers[j].UnitPrice
			}
			return offers[i].Label < offers[j].Label
		})
		out = append(out, AggregatedAlert{AlertKey: key, Offers: offers})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out
}
