package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Ayuga01/Quantara/internal/app"
)

var (
	simulateAmount  float64
	simulateCoin    string
	simulateHorizon string
	simulateSteps   int
	simulateLive    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Project the outcome of investing a USD amount at the current price",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateAmount <= 0 {
			return errors.New("--amount must be greater than zero")
		}

		opts := app.SimulateOptions{
			Amount: simulateAmount,
			PredictOptions: app.PredictOptions{
				Coin:        simulateCoin,
				Horizon:     simulateHorizon,
				StepsAhead:  simulateSteps,
				UseLiveData: simulateLive,
			},
		}
		return getApp().Simulate(cmd.Context(), opts)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateAmount, "amount", 0, "Investment amount in USD")
	simulateCmd.Flags().StringVar(&simulateCoin, "coin", "bitcoin", "Coin to simulate")
	simulateCmd.Flags().StringVar(&simulateHorizon, "horizon", "1h", "Forecast horizon (1h or 24h)")
	simulateCmd.Flags().IntVar(&simulateSteps, "steps", 6, "Number of future steps to project over")
	simulateCmd.Flags().BoolVar(&simulateLive, "live", true, "Use live market data as the forecast base")
}
