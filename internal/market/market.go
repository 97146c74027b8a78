// Package market reduces raw auction listings to the cheapest qualifying
// offer per item and merges those offers across realm clusters.
package market

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ah-price-alerts/internal/money"
)

// CommoditiesClusterID identifies the region-wide commodity market.
const CommoditiesClusterID int64 = 0

// Listing is one sell order in a cluster's market feed.
type Listing struct {
	ItemID    int64
	Buyout    money.Copper
	Quantity  int64
	ListingID int64
	TimeLeft  string
	Seller    string
	ClusterID int64
}

// UnitPrice is the buyout divided by quantity, floored.
func (l Listing) UnitPrice() money.Copper {
	return money.UnitPrice(l.Buyout, l.Quantity)
}

// BestOffer is the cheapest qualifying listing of an item within one cluster.
// Quantity sums every listing tied at UnitPrice.
type BestOffer struct {
	ItemID    int64
	ClusterID int64
	UnitPrice money.Copper
	Quantity  int64
	ListingID int64
	TimeLeft  string
}

// RealmCluster is a group of realms sharing one auction house.
type RealmCluster struct {
	ID         int64
	RealmNames []string
}

// Label renders the cluster for humans: normalised realm names joined by
// commas, or "CR-<id>" when no names are known.
func (c RealmCluster) Label() string {
	names := make([]string, 0, len(c.RealmNames))
	for _, n := range c.RealmNames {
		if norm := NormalizeRealmName(n); norm != "" {
			names = append(names, norm)
		}
	}
	if len(names) == 0 {
		if c.ID == CommoditiesClusterID {
			return "Commodities"
		}
		return fmt.Sprintf("CR-%d", c.ID)
	}
	return strings.Join(names, ", ")
}

// NormalizeRealmName turns "tarren-mill" or "Twisting_Nether" into "Tarren Mill"
// and "Twisting Nether".
func NormalizeRealmName(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.Und).String(name)
}
