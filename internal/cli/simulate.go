package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"ah-price-alerts/internal/app"
)

var (
	simulateItem    string
	simulateItemID  int64
	simulatePrice   string
	simulateQty     int64
	simulateCluster string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Send a synthetic match through the configured alert channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateItem == "" || simulatePrice == "" {
			return errors.New("--item and --price must be provided")
		}

		return getApp().SimulateAlert(cmd.Context(), app.SimulateOptions{
			Item:      simulateItem,
			ItemID:    simulateItemID,
			PriceGold: simulatePrice,
			Quantity:  simulateQty,
			Cluster:   simulateCluster,
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateItem, "item", "", "Item name")
	simulateCmd.Flags().Int64Var(&simulateItemID, "item-id", 1, "Item id shown in the alert")
	simulateCmd.Flags().StringVar(&simulatePrice, "price", "", "Unit price in gold, e.g. 4500 or 4,5k")
	simulateCmd.Flags().Int64Var(&simulateQty, "qty", 1, "Listed quantity")
	simulateCmd.Flags().StringVar(&simulateCluster, "cluster", "Simulated", "Cluster label")
}
