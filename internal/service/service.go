package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ah-price-alerts/internal/alerting"
	"ah-price-alerts/internal/catalog"
	"ah-price-alerts/internal/config"
	"ah-price-alerts/internal/fetcher"
	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/metrics"
	"ah-price-alerts/internal/money"
	"ah-price-alerts/internal/scheduler"
	"ah-price-alerts/internal/watchlist"
)

// Service runs the watchlist against every realm cluster of the region and
// delivers the resulting alerts.
type Service struct {
	scheduler *scheduler.Scheduler
	source    watchlist.Source
	resolver  catalog.Resolver
	auctions  fetcher.AuctionSource
	notifier  alerting.Notifier
	logger    zerolog.Logger

	defaultGold decimal.Decimal
	concurrency int
	formatter   alerting.Formatter
	pushURL     string
	pushJob     string
	region      string
}

// Summary describes one run.
type Summary struct {
	RunID          string
	Items          int
	Clusters       int
	FailedClusters int
	Alerts         int
	Chunks         int
	Delivered      int
}

// Result is the undelivered outcome of a scan.
type Result struct {
	Catalog        *catalog.Catalog
	Clusters       []market.RealmCluster
	FailedClusters int
	Alerts         []market.AggregatedAlert
}

// New constructs the service. sched may be nil when only RunOnce is used.
func New(cfg *config.Config, sched *scheduler.Scheduler, source watchlist.Source, resolver catalog.Resolver, auctions fetcher.AuctionSource, notifier alerting.Notifier, logger zerolog.Logger) (*Service, error) {
	gold, err := cfg.DefaultThreshold()
	if err != nil {
		return nil, err
	}

	concurrency := cfg.Scan.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Service{
		scheduler:   sched,
		source:      source,
		resolver:    resolver,
		auctions:    auctions,
		notifier:    notifier,
		logger:      logger.With().Str("component", "service").Logger(),
		defaultGold: gold,
		concurrency: concurrency,
		formatter:   alerting.Formatter{Region: cfg.Region, Limit: cfg.Alerting.ChunkLimit},
		pushURL:     cfg.Metrics.PushgatewayURL,
		pushJob:     cfg.Metrics.Job,
		region:      cfg.Region,
	}, nil
}

// Run repeats RunOnce on the configured schedule until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, err := s.RunOnce(ctx)
		return err
	})
}

// RunOnce scans, formats and delivers once. Data and delivery faults are
// logged and degrade the result; only cancellation is returned as an error.
func (s *Service) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	res, err := s.collect(ctx, logger)
	if err != nil {
		return summary, err
	}
	summary.Items = res.Catalog.Len()
	summary.Clusters = len(res.Clusters)
	summary.FailedClusters = res.FailedClusters
	summary.Alerts = len(res.Alerts)

	chunks := s.formatter.Format(res.Alerts, res.Catalog.Thresholds())
	summary.Chunks = len(chunks)
	summary.Delivered = s.deliver(ctx, chunks, logger)

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()
	if summary.Items > 0 {
		if err := metrics.Push(ctx, s.pushURL, s.pushJob, map[string]string{"region": s.region}); err != nil {
			logger.Warn().Err(err).Msg("metrics push failed")
		}
	}

	logger.Info().
		Int("items", summary.Items).
		Int("clusters", summary.Clusters).
		Int("failed_clusters", summary.FailedClusters).
		Int("alerts", summary.Alerts).
		Int("chunks", summary.Chunks).
		Int("delivered", summary.Delivered).
		Dur("took", time.Since(start)).
		Msg("run finished")

	return summary, ctx.Err()
}

// Collect scans every cluster without delivering anything.
func (s *Service) Collect(ctx context.Context) (*Result, error) {
	return s.collect(ctx, s.logger)
}

// Catalog loads the watchlist and resolves it.
func (s *Service) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	return s.loadCatalog(ctx, s.logger)
}

func (s *Service) loadCatalog(ctx context.Context, logger zerolog.Logger) (*catalog.Catalog, error) {
	entries, err := s.source.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error().Err(err).Msg("watchlist unavailable; nothing to scan")
		return catalog.New(), nil
	}
	if len(entries) == 0 {
		logger.Info().Msg("watchlist is empty")
		return catalog.New(), nil
	}

	cat := catalog.Build(ctx, entries, s.resolver, s.defaultGold, logger)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if missing := len(entries) - cat.Len(); missing > 0 {
		metrics.ItemsUnresolvedTotal.Add(float64(missing))
	}
	logger.Info().Int("entries", len(entries)).Int("items", cat.Len()).Msg("watchlist resolved")
	return cat, nil
}

func (s *Service) collect(ctx context.Context, logger zerolog.Logger) (*Result, error) {
	cat, err := s.loadCatalog(ctx, logger)
	if err != nil {
		return nil, err
	}
	res := &Result{Catalog: cat}
	if cat.Len() == 0 {
		return res, nil
	}

	clusters, err := s.auctions.ListClusters(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Error().Err(err).Msg("cluster list unavailable; nothing to scan")
		return res, nil
	}
	res.Clusters = clusters

	names, thresholds := cat.Names(), cat.Thresholds()
	agg := market.NewAggregator(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, cl := range clusters {
		cl := cl
		g.Go(func() error {
			agg.Add(s.scanCluster(gctx, cl, names, thresholds, logger))
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res.FailedClusters = agg.Failed()
	res.Alerts = agg.Alerts()
	return res, nil
}

func (s *Service) scanCluster(ctx context.Context, cl market.RealmCluster, names map[int64]string, thresholds map[int64]money.Copper, logger zerolog.Logger) market.ClusterResult {
	listings, err := s.auctions.FetchClusterListings(ctx, cl.ID)
	if err != nil {
		metrics.ClusterFailuresTotal.Inc()
		logger.Warn().Err(err).Int64("cluster_id", cl.ID).Str("cluster", cl.Label()).Msg("cluster skipped")
		return market.ClusterResult{Cluster: cl, Err: err}
	}

	offers := market.Scan(listings, names, thresholds)
	metrics.ClustersScannedTotal.Inc()
	metrics.OffersMatchedTotal.Add(float64(len(offers)))
	logger.Debug().Int64("cluster_id", cl.ID).Int("listings", len(listings)).Int("offers", len(offers)).Msg("cluster scanned")

	return market.ClusterResult{Cluster: cl, Offers: offers}
}

// deliver sends chunks in order. A failed chunk is logged and dropped.
func (s *Service) deliver(ctx context.Context, chunks []string, logger zerolog.Logger) int {
	delivered := 0
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		if err := s.notifier.Send(ctx, chunk); err != nil {
			metrics.ChunkFailuresTotal.Inc()
			logger.Error().Err(err).Int("chunk", i+1).Int("chunks", len(chunks)).Msg("alert chunk not delivered")
			continue
		}
		metrics.ChunksSentTotal.Inc()
		delivered++
	}
	return delivered
}
