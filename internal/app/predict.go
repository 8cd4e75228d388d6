package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Ayuga01/Quantara/internal/market"
	"github.com/Ayuga01/Quantara/internal/pipeline"
)

// Predict runs one prediction end to end and renders the result.
func (a *App) Predict(ctx context.Context, opts PredictOptions) error {
	params, err := a.predictParams(opts)
	if err != nil {
		return err
	}

	a.resolveIdentity(ctx)

	result, err := a.newPipeline().Predict(ctx, params)
	if err != nil {
		return err
	}

	a.renderPrediction(result)
	return nil
}

func (a *App) predictParams(opts PredictOptions) (pipeline.Params, error) {
	coin, err := market.ParseCoin(opts.Coin)
	if err != nil {
		return pipeline.Params{}, err
	}
	horizon, err := market.ParseHorizon(opts.Horizon)
	if err != nil {
		return pipeline.Params{}, err
	}
	return pipeline.Params{
		Coin:        coin,
		Horizon:     horizon,
		StepsAhead:  opts.StepsAhead,
		UseLiveData: opts.UseLiveData,
	}, nil
}

func (a *App) renderPrediction(result *pipeline.Result) {
	formatter := a.formatter()
	resp := result.Response

	fmt.Fprintf(os.Stdout, "Prediction for %s (%s), %d step(s), generated %s\n",
		resp.Coin, resp.Horizon, len(resp.FuturePredictions),
		result.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(os.Stdout, "Last observed close: %s\n", formatter.Format(resp.LastObservedClose))
	fmt.Fprintf(os.Stdout, "Predicted end price: %s (%+.2f%%)\n",
		formatter.Format(result.Summary.PredictedEndPrice), result.Summary.ExpectedChangePct)
	fmt.Fprintf(os.Stdout, "Best case: %s  Worst case: %s\n",
		formatter.Format(result.Summary.BestCasePrice), formatter.Format(result.Summary.WorstCasePrice))

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Step\tTarget (UTC)\tPredicted")
	unit := resp.Horizon.Unit()
	for i, point := range resp.FuturePredictions {
		target := result.GeneratedAt.Add(time.Duration(i+1) * unit)
		if point.Timestamp != nil {
			target = *point.Timestamp
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\n", i+1, target.UTC().Format(time.RFC3339), formatter.Format(point.PredictedPrice))
	}
	writer.Flush()

	if result.SavedRecord != nil {
		fmt.Fprintf(os.Stdout, "Saved to history as record %d\n", result.SavedRecord.ID)
	}
}
