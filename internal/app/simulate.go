package app

import (
	"context"
	"fmt"

	"ah-price-alerts/internal/alerting"
	"ah-price-alerts/internal/market"
	"ah-price-alerts/internal/money"
)

// SimulateAlert formats a synthetic match and sends it through the configured
// notifier, exercising the same rendering and delivery path as a real run.
func (a *App) SimulateAlert(ctx context.Context, opts SimulateOptions) error {
	_, err := a.simulate(ctx, opts, a.newNotifier())
	return err
}

func (a *App) simulate(ctx context.Context, opts SimulateOptions, notifier alerting.Notifier) ([]string, error) {
	if opts.Item == "" {
		return nil, fmt.Errorf("item name must be set")
	}
	gold, ok := money.ParseGoldString(opts.PriceGold)
	if !ok || !gold.IsPositive() {
		return nil, fmt.Errorf("invalid price %q", opts.PriceGold)
	}
	if opts.Quantity <= 0 {
		opts.Quantity = 1
	}
	if opts.ItemID <= 0 {
		opts.ItemID = 1
	}
	if opts.Cluster == "" {
		opts.Cluster = "Simulated"
	}

	threshold, err := a.Config.DefaultThreshold()
	if err != nil {
		return nil, err
	}

	price := money.GoldToCopper(gold)
	cluster := market.RealmCluster{ID: -1, RealmNames: []string{opts.Cluster}}
	agg := market.NewAggregator(map[int64]string{opts.ItemID: opts.Item})
	agg.Add(market.ClusterResult{
		Cluster: cluster,
		Offers: []market.BestOffer{{
			ItemID:    opts.ItemID,
			ClusterID: cluster.ID,
			UnitPrice: price,
			Quantity:  opts.Quantity,
			TimeLeft:  "SHORT",
		}},
	})

	formatter := alerting.Formatter{Region: a.Config.Region, Limit: a.Config.Alerting.ChunkLimit}
	chunks := formatter.Format(agg.Alerts(), map[int64]money.Copper{opts.ItemID: money.GoldToCopper(threshold)})

	for i, chunk := range chunks {
		if err := notifier.Send(ctx, chunk); err != nil {
			return chunks, fmt.Errorf("send simulated chunk %d: %w", i+1, err)
		}
	}
	a.Logger.Info().Str("item", opts.Item).Str("price", price.String()).Int("chunks", len(chunks)).Msg("simulated alert sent")
	return chunks, nil
}
