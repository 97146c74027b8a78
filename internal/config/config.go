package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"ah-price-alerts/internal/logging"
	"ah-price-alerts/internal/money"
	"ah-price-alerts/internal/watchlist"
)

const (
	envPrefix          = "AHWATCH"
	telegramMaxMessage = 4096
	minChunkLimit      = 100
)

// ErrMissingCredentials marks a configuration without Battle.net API credentials.
var ErrMissingCredentials = errors.New("blizzard client credentials are not configured")

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Region    string          `mapstructure:"region"`
	Blizzard  BlizzardConfig  `mapstructure:"blizzard"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// BlizzardConfig covers Battle.net API access.
type BlizzardConfig struct {
	ClientID           string        `mapstructure:"client_id"`
	ClientSecret       string        `mapstructure:"client_secret"`
	TokenURL           string        `mapstructure:"token_url"`
	APIBase            string        `mapstructure:"api_base"`
	Locales            []string      `mapstructure:"locales"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Burst              int           `mapstructure:"burst"`
	IncludeCommodities bool          `mapstructure:"include_commodities"`
}

// WatchlistConfig says where watched items come from. A CSV path wins over a
// CSV URL, which wins over inline items.
type WatchlistConfig struct {
	DefaultMaxPriceGold string                 `mapstructure:"default_max_price_gold"`
	CSVPath             string                 `mapstructure:"csv_path"`
	CSVURL              string                 `mapstructure:"csv_url"`
	Items               []watchlist.ItemConfig `mapstructure:"items"`
}

// ScanConfig bounds cluster scanning.
type ScanConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// AlertingConfig defines alert rendering and routing.
type AlertingConfig struct {
	ChunkLimit int            `mapstructure:"chunk_limit"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// SchedulerConfig governs repeated runs in watch mode. Cron, when set,
// replaces Interval.
type SchedulerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	Cron          string        `mapstructure:"cron"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// MetricsConfig enables pushing run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Load builds configuration from defaults, an optional .env file, an optional
// config file and the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	enableTelegramFromCredentials(v, &cfg.Alerting.Telegram)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ahwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)

	v.SetDefault("region", "eu")

	v.SetDefault("blizzard.token_url", "https://oauth.battle.net/token")
	v.SetDefault("blizzard.api_base", "")
	v.SetDefault("blizzard.locales", []string{"ru_RU", "en_US"})
	v.SetDefault("blizzard.request_timeout", "30s")
	v.SetDefault("blizzard.requests_per_second", 10.0)
	v.SetDefault("blizzard.burst", 1)
	v.SetDefault("blizzard.include_commodities", false)

	v.SetDefault("watchlist.default_max_price_gold", "5000")
	v.SetDefault("watchlist.csv_path", "")
	v.SetDefault("watchlist.csv_url", "")

	v.SetDefault("scan.concurrency", 1)

	v.SetDefault("alerting.chunk_limit", 3500)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "ahwatch")
}

// bindLegacyEnv accepts the unprefixed variable names used by existing
// deployments alongside the AHWATCH_ ones.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"blizzard.client_id":               "BLIZZARD_CLIENT_ID",
		"blizzard.client_secret":           "BLIZZARD_CLIENT_SECRET",
		"alerting.telegram.bot_token":      "TELEGRAM_TOKEN",
		"alerting.telegram.chat_id":        "TELEGRAM_CHAT_ID",
		"watchlist.default_max_price_gold": "PRICE_THRESHOLD_G",
	}
	for key, env := range legacy {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}

// enableTelegramFromCredentials turns delivery on when both credentials are
// present and enabled was left unset, matching deployments that only export
// TELEGRAM_TOKEN and TELEGRAM_CHAT_ID.
func enableTelegramFromCredentials(v *viper.Viper, tg *TelegramConfig) {
	const key = "alerting.telegram.enabled"
	if _, ok := os.LookupEnv(envPrefix + "_ALERTING_TELEGRAM_ENABLED"); ok || v.InConfig(key) {
		return
	}
	if tg.BotToken != "" && tg.ChatID != "" {
		tg.Enabled = true
	}
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Blizzard.ClientID) == "" || strings.TrimSpace(c.Blizzard.ClientSecret) == "" {
		return ErrMissingCredentials
	}
	if strings.TrimSpace(c.Region) == "" {
		return fmt.Errorf("region must be set")
	}
	if _, err := c.DefaultThreshold(); err != nil {
		return err
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be at least 1")
	}
	if c.Alerting.ChunkLimit <= minChunkLimit || c.Alerting.ChunkLimit > telegramMaxMessage {
		return fmt.Errorf("alerting.chunk_limit must be in (%d, %d]", minChunkLimit, telegramMaxMessage)
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be set when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be set when telegram is enabled")
		}
	}
	if c.Scheduler.Cron == "" && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	return nil
}

// DefaultThreshold parses the global price ceiling in gold. It accepts the
// same shorthand as per-item ceilings ("5k", "3,5k", "3500g").
func (c *Config) DefaultThreshold() (decimal.Decimal, error) {
	gold, ok := money.ParseGoldString(c.Watchlist.DefaultMaxPriceGold)
	if !ok || !gold.IsPositive() {
		return decimal.Zero, fmt.Errorf("watchlist.default_max_price_gold must be a positive amount, got %q", c.Watchlist.DefaultMaxPriceGold)
	}
	return gold, nil
}
