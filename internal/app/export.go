package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"

	"ah-price-alerts/internal/market"
)

// Export scans once without delivering and writes the matches as CSV and/or
// a PNG bar chart of the best unit price per cluster.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	svc, err := a.newService(nil, a.newNotifier())
	if err != nil {
		return err
	}

	res, err := svc.Collect(ctx)
	if err != nil {
		return err
	}

	alerts := filterAlerts(res.Alerts, opts.Item)
	if len(alerts) == 0 {
		a.Logger.Info().Str("item", opts.Item).Msg("no matches to export")
		return nil
	}
	a.Logger.Info().Int("items", len(alerts)).Int("clusters", len(res.Clusters)).Int("failed_clusters", res.FailedClusters).Msg("exporting matches")

	if opts.CSVPath != "" {
		if err := writeFile(opts.CSVPath, func(w io.Writer) error { return writeOffersCSV(w, alerts) }); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if len(alerts) > 1 {
			return fmt.Errorf("--png needs a single item; %d matched, narrow with --item", len(alerts))
		}
		if err := writeFile(opts.PNGPath, func(w io.Writer) error { return writeOffersPNG(w, alerts[0]) }); err != nil {
			return err
		}
	}

	return nil
}

func filterAlerts(alerts []market.AggregatedAlert, item string) []market.AggregatedAlert {
	if item == "" {
		return alerts
	}
	out := make([]market.AggregatedAlert, 0, 1)
	for _, a := range alerts {
		if strings.EqualFold(a.Name, item) || strconv.FormatInt(a.ItemID, 10) == item {
			out = append(out, a)
		}
	}
	return out
}

func writeOffersCSV(w io.Writer, alerts []market.AggregatedAlert) error {
	writer := csv.NewWriter(w)

	header := []string{"item_id", "item_name", "cluster_id", "cluster", "unit_price_copper", "unit_price", "quantity", "auction_id", "time_left"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, a := range alerts {
		for _, o := range a.Offers {
			record := []string{
				strconv.FormatInt(a.ItemID, 10),
				a.Name,
				strconv.FormatInt(o.ClusterID, 10),
				o.Label,
				strconv.FormatInt(int64(o.UnitPrice), 10),
				o.UnitPrice.String(),
				strconv.FormatInt(o.Quantity, 10),
				strconv.FormatInt(o.ListingID, 10),
				o.TimeLeft,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeOffersPNG(w io.Writer, alert market.AggregatedAlert) error {
	bars := make([]chart.Value, 0, len(alert.Offers))
	top := 0.0
	for _, o := range alert.Offers {
		v := o.UnitPrice.AsGold().InexactFloat64()
		if v > top {
			top = v
		}
		bars = append(bars, chart.Value{Label: o.Label, Value: v})
	}
	if top == 0 {
		top = 1
	}

	width := 160 * len(bars)
	if width < 640 {
		width = 640
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s (id %d): best unit price per cluster", alert.Name, alert.ItemID),
		Width:    width,
		Height:   480,
		BarWidth: 60,
		YAxis: chart.YAxis{
			Name:  "Gold",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.2f")
			},
		},
		Bars: bars,
	}

	return graph.Render(chart.PNG, w)
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
