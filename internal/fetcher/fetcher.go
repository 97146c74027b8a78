// Package fetcher talks to the Battle.net game data API and converts its
// loosely shaped responses into market and catalog values.
package fetcher

import (
	"context"

	"ah-price-alerts/internal/market"
)

// ClusterLister lists the realm clusters of the configured region.
type ClusterLister interface {
	ListClusters(ctx context.Context) ([]market.RealmCluster, error)
}

// ListingFetcher fetches every current listing of one cluster.
type ListingFetcher interface {
	FetchClusterListings(ctx context.Context, clusterID int64) ([]market.Listing, error)
}

// AuctionSource combines the two auction data operations.
type AuctionSource interface {
	ClusterLister
	ListingFetcher
}
