package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Ayuga01/Quantara/internal/market"
)

// Show prints one coin's most recent recorded samples.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	coin, err := market.ParseCoin(opts.Coin)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show samples")
	}
	if closeStore != nil {
		defer closeStore()
	}

	samples, err := store.ListRecentSamples(ctx, coin, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tCoin\tSymbol\tPrice (USD)\tSource")

	for _, sample := range samples {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			sample.Bucket.UTC().Format(time.RFC3339),
			sample.Coin,
			sample.Symbol,
			formatDecimal(sample.PriceUSD, 2),
			sample.Source,
		)
	}

	writer.Flush()
	return nil
}
