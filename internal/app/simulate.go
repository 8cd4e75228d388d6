package app

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Simulate projects an investment: the amount buys the coin at the last
// observed close, and its value is reported at the predicted end price
// with the ±15% best/worst-case bands.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Amount <= 0 {
		return errors.New("--amount must be greater than zero")
	}

	params, err := a.predictParams(opts.PredictOptions)
	if err != nil {
		return err
	}

	a.resolveIdentity(ctx)

	result, err := a.newPipeline().Predict(ctx, params)
	if err != nil {
		return err
	}

	entry := result.Response.LastObservedClose
	if entry <= 0 {
		return errors.New("prediction response has no usable entry price")
	}

	units := opts.Amount / entry
	formatter := a.formatter()

	fmt.Fprintf(os.Stdout, "Simulating %.2f USD into %s (%s, %d steps)\n",
		opts.Amount, params.Coin, params.Horizon, params.StepsAhead)
	fmt.Fprintf(os.Stdout, "Entry price: %s (%f units)\n", formatter.Format(entry), units)
	fmt.Fprintf(os.Stdout, "Projected value: %s (%+.2f%%)\n",
		formatter.Format(units*result.Summary.PredictedEndPrice), result.Summary.ExpectedChangePct)
	fmt.Fprintf(os.Stdout, "Best case: %s  Worst case: %s\n",
		formatter.Format(units*result.Summary.BestCasePrice),
		formatter.Format(units*result.Summary.WorstCasePrice))
	return nil
}
