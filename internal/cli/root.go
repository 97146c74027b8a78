package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ah-price-alerts/internal/app"
	"ah-price-alerts/internal/config"
	"ah-price-alerts/internal/logging"
	"ah-price-alerts/internal/version"
)

var (
	cfgFile        string
	logLevel       string
	regionOverride string
	appHandle      *app.App
)

var rootCmd = &cobra.Command{
	Use:   "ahwatch",
	Short: "Watch auction houses for items listed below a price ceiling",
	Long: `ahwatch scans every connected-realm auction house of one region for the
items on a watchlist and reports the cheapest listing per realm cluster that is
at or below the item's price ceiling.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil || cmd == versionCmd {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if regionOverride != "" {
			cfg.Region = strings.ToLower(regionOverride)
		}

		logger := logging.NewLogger(cfg.Logging)
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")
	rootCmd.PersistentFlags().StringVar(&regionOverride, "region", "", "Override region (eu, us, kr, tw)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
