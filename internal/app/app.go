package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ah-price-alerts/internal/alerting"
	"ah-price-alerts/internal/config"
	"ah-price-alerts/internal/fetcher"
	"ah-price-alerts/internal/scheduler"
	"ah-price-alerts/internal/service"
	"ah-price-alerts/internal/watchlist"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() *fetcher.Blizzard {
	bz := a.Config.Blizzard
	return fetcher.NewBlizzard(fetcher.Options{
		Region:             a.Config.Region,
		ClientID:           bz.ClientID,
		ClientSecret:       bz.ClientSecret,
		TokenURL:           bz.TokenURL,
		APIBase:            bz.APIBase,
		Locales:            bz.Locales,
		Timeout:            bz.RequestTimeout,
		RequestsPerSecond:  bz.RequestsPerSecond,
		Burst:              bz.Burst,
		IncludeCommodities: bz.IncludeCommodities,
	}, a.Logger)
}

// newNotifier falls back to printing chunks through the logger when Telegram
// delivery is not enabled.
func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) newSource() watchlist.Source {
	wl := a.Config.Watchlist
	if wl.CSVPath != "" || wl.CSVURL != "" {
		return watchlist.NewCSVSource(wl.CSVPath, wl.CSVURL, a.Config.Blizzard.RequestTimeout)
	}
	return watchlist.StaticSource{Items: wl.Items}
}

func (a *App) newService(sched *scheduler.Scheduler, notifier alerting.Notifier) (*service.Service, error) {
	bz := a.newFetcher()
	return service.New(a.Config, sched, a.newSource(), bz, bz, notifier, a.Logger)
}

// Run performs a single scan and delivery, then returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := a.newService(nil, a.newNotifier())
	if err != nil {
		return err
	}

	if _, err := svc.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Watch repeats runs on the configured schedule until interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		Cron:         a.Config.Scheduler.Cron,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   true,
	}, a.Logger)
	if err != nil {
		return err
	}

	svc, err := a.newService(sched, a.newNotifier())
	if err != nil {
		return err
	}

	a.Logger.Info().Str("interval", a.Config.Scheduler.Interval.String()).Str("cron", a.Config.Scheduler.Cron).Msg("starting watch loop")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}

// ExportOptions hold parameters for exporting one scan.
type ExportOptions struct {
	PNGPath string
	CSVPath string
	Item    string
}

// SimulateOptions describe a synthetic alert.
type SimulateOptions struct {
	Item      string
	ItemID    int64
	PriceGold string
	Quantity  int64
	Cluster   string
}
