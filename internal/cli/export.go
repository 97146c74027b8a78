package cli

import (
	"github.com/spf13/cobra"

	"ah-price-alerts/internal/app"
)

var (
	exportPNGPath string
	exportCSVPath string
	exportItem    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Scan once without alerting and export matches as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
			Item:    exportItem,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart (single item)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().StringVar(&exportItem, "item", "", "Limit export to one item name or id")
}
