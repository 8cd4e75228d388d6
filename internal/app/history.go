package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Ayuga01/Quantara/internal/history"
	"github.com/Ayuga01/Quantara/internal/identity"
)

// ErrLoginRequired gates history operations to authenticated users.
var ErrLoginRequired = errors.New("history requires a logged-in account; guests do not persist predictions")

func (a *App) requireAuthenticated(ctx context.Context) error {
	if a.ids.Resolve(ctx, a.oauth, a.client).Kind() != identity.Authenticated {
		return ErrLoginRequired
	}
	return nil
}

// HistoryList prints the caller's prediction records.
func (a *App) HistoryList(ctx context.Context) error {
	if err := a.requireAuthenticated(ctx); err != nil {
		return err
	}

	records, err := a.client.ListHistory(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no prediction records found")
		return nil
	}

	collection := &history.Collection{}
	collection.Replace(records)

	formatter := a.formatter()
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tCoin\tHorizon\tSteps\tPredicted At (UTC)\tLast Close\tEnd Price\tMean Error%")
	for _, rec := range collection.List() {
		meanErr := "-"
		if rec.MeanErrorPct != nil {
			meanErr = fmt.Sprintf("%.2f", *rec.MeanErrorPct)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.Coin,
			rec.Horizon,
			rec.StepsAhead,
			rec.PredictedAt.UTC().Format(time.RFC3339),
			formatter.Format(rec.LastObservedClose),
			formatter.Format(rec.LastPredictedPrice),
			meanErr,
		)
	}
	writer.Flush()
	return nil
}

// HistoryDelete removes one record by id. The local view drops the record
// immediately; the backend delete completes on its own schedule.
func (a *App) HistoryDelete(ctx context.Context, id int64) error {
	if err := a.requireAuthenticated(ctx); err != nil {
		return err
	}

	if err := a.client.DeleteHistory(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "deleted record %d\n", id)
	return nil
}
