package cli

import (
	"github.com/spf13/cobra"

	"github.com/Ayuga01/Quantara/internal/app"
)

var compareCoins []string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare derived metrics of two or more coins side by side",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Compare(cmd.Context(), app.CompareOptions{Coins: compareCoins})
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareCoins, "coins", []string{"bitcoin", "ethereum"}, "Coins to compare")
}
