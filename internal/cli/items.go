package cli

import (
	"github.com/spf13/cobra"
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Resolve the watchlist and print item ids and price ceilings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Items(cmd.Context(), cmd.OutOrStdout())
	},
}
