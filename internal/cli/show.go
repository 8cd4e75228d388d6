package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ayuga01/Quantara/internal/app"
)

var (
	showCoin  string
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent recorded price samples for one coin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Coin:  showCoin,
			Limit: showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showCoin, "coin", "bitcoin", "Coin whose samples to display")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of samples to display")
}
