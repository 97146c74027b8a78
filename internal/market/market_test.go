package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ah-price-alerts/internal/money"
)

const fooID = 42

var (
	testNames      = map[int64]string{fooID: "Foo", 7: "Bar"}
	testThresholds = map[int64]money.Copper{fooID: 1_000_000, 7: 500}
)

func listing(item int64, buyout money.Copper, qty, id int64) Listing {
	return Listing{ItemID: item, Buyout: buyout, Quantity: qty, ListingID: id, TimeLeft: "SHORT", ClusterID: 1}
}

func TestScanThresholdBoundary(t *testing.T) {
	t.Parallel()

	atLimit := Scan([]Listing{listing(fooID, 1_000_000, 1, 1)}, testNames, testThresholds)
	require.Len(t, atLimit, 1)
	assert.Equal(t, money.Copper(1_000_000), atLimit[0].UnitPrice)

	above := Scan([]Listing{listing(fooID, 1_000_001, 1, 1)}, testNames, testThresholds)
	assert.Empty(t, above)
}

func TestScanFloorDivision(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{listing(7, 10001, 3, 1)}, testNames, map[int64]money.Copper{7: 3333})
	require.Len(t, offers, 1)
	assert.Equal(t, money.Copper(3333), offers[0].UnitPrice)
	assert.Equal(t, int64(3), offers[0].Quantity)
}

func TestScanReduction(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{
		listing(fooID, 200, 2, 1),
		listing(fooID, 300, 3, 2),
		listing(fooID, 90, 1, 3),
	}, testNames, testThresholds)

	require.Len(t, offers, 1)
	assert.Equal(t, money.Copper(90), offers[0].UnitPrice)
	assert.Equal(t, int64(1), offers[0].Quantity)
	assert.Equal(t, int64(3), offers[0].ListingID)
}

func TestScanTiesAccumulate(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{
		listing(fooID, 200, 2, 1),
		listing(fooID, 300, 3, 2),
		{ItemID: fooID, Buyout: 500, Quantity: 5, ListingID: 3, TimeLeft: "LONG", ClusterID: 1},
	}, testNames, testThresholds)

	require.Len(t, offers, 1)
	assert.Equal(t, money.Copper(100), offers[0].UnitPrice)
	assert.Equal(t, int64(10), offers[0].Quantity)
	assert.Equal(t, int64(1), offers[0].ListingID)
	assert.Equal(t, "SHORT", offers[0].TimeLeft)
}

func TestScanCheaperResetsQuantity(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{
		listing(fooID, 100, 1, 1),
		listing(fooID, 100, 1, 2),
		listing(fooID, 50, 1, 3),
		listing(fooID, 50, 1, 4),
	}, testNames, testThresholds)

	require.Len(t, offers, 1)
	assert.Equal(t, money.Copper(50), offers[0].UnitPrice)
	assert.Equal(t, int64(2), offers[0].Quantity)
	assert.Equal(t, int64(3), offers[0].ListingID)
}

func TestScanSkipsMalformedAndUnknown(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{
		listing(999, 1, 1, 1),
		listing(fooID, 0, 1, 2),
		listing(fooID, 100, 0, 3),
		listing(fooID, 100, -2, 4),
	}, testNames, testThresholds)

	assert.Empty(t, offers)
}

func TestScanMultipleItemsSorted(t *testing.T) {
	t.Parallel()

	offers := Scan([]Listing{
		listing(fooID, 10, 1, 1),
		listing(7, 10, 1, 2),
	}, testNames, testThresholds)

	require.Len(t, offers, 2)
	assert.Equal(t, int64(7), offers[0].ItemID)
	assert.Equal(t, int64(fooID), offers[1].ItemID)
}

func TestClusterLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cluster RealmCluster
		want    string
	}{
		{name: "fallback", cluster: RealmCluster{ID: 1080}, want: "CR-1080"},
		{name: "blank names fallback", cluster: RealmCluster{ID: 5, RealmNames: []string{" ", "-"}}, want: "CR-5"},
		{name: "commodities", cluster: RealmCluster{ID: CommoditiesClusterID}, want: "Commodities"},
		{name: "slug normalised", cluster: RealmCluster{ID: 1, RealmNames: []string{"tarren-mill"}}, want: "Tarren Mill"},
		{
			name:    "joined",
			cluster: RealmCluster{ID: 2, RealmNames: []string{"Twisting_Nether", "Ravencrest"}},
			want:    "Twisting Nether, Ravencrest",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cluster.Label())
		})
	}
}

func offer(item, cluster int64, price money.Copper, listingID int64) BestOffer {
	return BestOffer{ItemID: item, ClusterID: cluster, UnitPrice: price, Quantity: 1, ListingID: listingID}
}

func TestAggregatorOrderIndependent(t *testing.T) {
	t.Parallel()

	a := ClusterResult{
		Cluster: RealmCluster{ID: 1, RealmNames: []string{"Alpha"}},
		Offers:  []BestOffer{offer(fooID, 1, 300, 10), offer(7, 1, 20, 11)},
	}
	b := ClusterResult{
		Cluster: RealmCluster{ID: 2, RealmNames: []string{"Beta"}},
		Offers:  []BestOffer{offer(fooID, 2, 100, 20)},
	}
	dup := ClusterResult{
		Cluster: RealmCluster{ID: 3, RealmNames: []string{"alpha"}},
		Offers:  []BestOffer{offer(fooID, 3, 300, 30), offer(7, 3, 10, 31)},
	}

	forward := NewAggregator(testNames)
	forward.Add(a)
	forward.Add(b)
	forward.Add(dup)

	backward := NewAggregator(testNames)
	backward.Add(dup)
	backward.Add(b)
	backward.Add(a)

	assert.Equal(t, forward.Alerts(), backward.Alerts())

	alerts := forward.Alerts()
	require.Len(t, alerts, 2)

	assert.Equal(t, "Bar", alerts[0].Name)
	require.Len(t, alerts[0].Offers, 1)
	assert.Equal(t, money.Copper(10), alerts[0].Offers[0].UnitPrice)
	assert.Equal(t, int64(3), alerts[0].Offers[0].ClusterID)

	assert.Equal(t, "Foo", alerts[1].Name)
	require.Len(t, alerts[1].Offers, 2)
	assert.Equal(t, "Beta", alerts[1].Offers[0].Label)
	assert.Equal(t, "Alpha", alerts[1].Offers[1].Label)
	// tie under the shared "Alpha" label keeps cluster 1
	assert.Equal(t, int64(10), alerts[1].Offers[1].ListingID)
}

func TestAggregatorPartialFailure(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(testNames)
	agg.Add(ClusterResult{
		Cluster: RealmCluster{ID: 1, RealmNames: []string{"Alpha"}},
		Offers:  []BestOffer{offer(fooID, 1, 100, 1)},
	})
	agg.Add(ClusterResult{
		Cluster: RealmCluster{ID: 2},
		Offers:  []BestOffer{offer(fooID, 2, 1, 2)},
		Err:     errors.New("fetch failed"),
	})

	alerts := agg.Alerts()
	require.Len(t, alerts, 1)
	require.Len(t, alerts[0].Offers, 1)
	assert.Equal(t, "Alpha", alerts[0].Offers[0].Label)
	assert.Equal(t, 1, agg.Failed())
	assert.Equal(t, 1, agg.Merged())
}

func TestAggregatorEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewAggregator(testNames).Alerts())
}
