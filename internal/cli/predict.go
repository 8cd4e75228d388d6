package cli

import (
	"github.com/spf13/cobra"

	"github.com/Ayuga01/Quantara/internal/app"
)

var (
	predictCoin    string
	predictHorizon string
	predictSteps   int
	predictLive    bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Request a price forecast for one coin",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PredictOptions{
			Coin:        predictCoin,
			Horizon:     predictHorizon,
			StepsAhead:  predictSteps,
			UseLiveData: predictLive,
		}
		return getApp().Predict(cmd.Context(), opts)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictCoin, "coin", "bitcoin", "Coin to predict (bitcoin, ethereum, solana, cardano, binancecoin)")
	predictCmd.Flags().StringVar(&predictHorizon, "horizon", "1h", "Forecast horizon (1h or 24h)")
	predictCmd.Flags().IntVar(&predictSteps, "steps", 6, "Number of future steps to predict")
	predictCmd.Flags().BoolVar(&predictLive, "live", true, "Use live market data as the forecast base")
}
