package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/Ayuga01/Quantara/internal/market"
	"github.com/Ayuga01/Quantara/internal/stats"
)

type compareSide struct {
	coin    market.Coin
	metrics stats.Metrics
	latest  float64
	err     error
}

// Compare fetches the historical series of the given coins concurrently,
// derives comparison metrics per coin, and prints them side by side.
// One side failing does not block the others' data.
func (a *App) Compare(ctx context.Context, opts CompareOptions) error {
	if len(opts.Coins) < 2 {
		return errors.New("at least two coins are required for comparison")
	}

	coins := make([]market.Coin, 0, len(opts.Coins))
	for _, raw := range opts.Coins {
		coin, err := market.ParseCoin(raw)
		if err != nil {
			return err
		}
		coins = append(coins, coin)
	}

	a.resolveIdentity(ctx)

	sides := make([]compareSide, len(coins))
	var wg sync.WaitGroup
	for i, coin := range coins {
		wg.Add(1)
		go func(i int, coin market.Coin) {
			defer wg.Done()
			sides[i].coin = coin
			points, err := a.client.Historical(ctx, coin, a.Config.Poller.HistoryPoints)
			if err != nil {
				sides[i].err = err
				return
			}
			sides[i].metrics = stats.Derive(points)
			if len(points) > 0 {
				sides[i].latest = points[len(points)-1].Price
			}
		}(i, coin)
	}
	wg.Wait()

	a.renderComparison(sides)
	return nil
}

func (a *App) renderComparison(sides []compareSide) {
	formatter := a.formatter()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Coin\tPrice\t24h%\t7d%\tVolatility%\tMomentum\tTrend\tRisk\tScore\tSignal")
	for _, side := range sides {
		if side.err != nil {
			fmt.Fprintf(writer, "%s\tdata unavailable: %s\n", side.coin, side.err)
			continue
		}
		m := side.metrics
		fmt.Fprintf(writer, "%s\t%s\t%+.2f\t%+.2f\t%.2f\t%.0f\t%s (%.0f)\t%s\t%.1f\t%s\n",
			side.coin,
			formatter.Format(side.latest),
			m.ChangePct,
			m.Change7dPct,
			m.VolatilityPct,
			m.MomentumScore,
			m.Trend.Direction,
			m.Trend.Strength,
			m.RiskLevel,
			m.RecommendationScore,
			m.Recommendation,
		)
	}
	writer.Flush()

	if winner, ok := pickWinner(sides); ok {
		fmt.Fprintf(os.Stdout, "Head-to-head: %s\n", winner)
	}
}

// pickWinner ranks by recommendation score; on a tie the lower risk score
// wins.
func pickWinner(sides []compareSide) (market.Coin, bool) {
	best := -1
	for i, side := range sides {
		if side.err != nil {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		current := sides[best]
		switch {
		case side.metrics.RecommendationScore > current.metrics.RecommendationScore:
			best = i
		case side.metrics.RecommendationScore == current.metrics.RecommendationScore &&
			side.metrics.RiskScore < current.metrics.RiskScore:
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return sides[best].coin, true
}
