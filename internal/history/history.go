// Package history assembles persistable records from completed
// predictions so their accuracy can be verified once real outcomes exist.
package history

import (
	"sync"
	"time"

	"github.com/Ayuga01/Quantara/internal/market"
)

// Record is the persisted form of one completed prediction. The accuracy
// fields are filled in out-of-band by the backend's verification job once
// the target timestamps have passed.
type Record struct {
	ID                  int64            `json:"id,omitempty"`
	Coin                market.Coin      `json:"coin"`
	Horizon             market.Horizon   `json:"horizon"`
	StepsAhead          int              `json:"steps_ahead"`
	UseLiveData         bool             `json:"use_live_data"`
	LastObservedClose   float64          `json:"last_observed_close"`
	FirstPredictedPrice float64          `json:"first_predicted_price"`
	LastPredictedPrice  float64          `json:"last_predicted_price"`
	Predictions         []float64        `json:"predictions"`
	TargetTimestamps    []time.Time      `json:"target_timestamps"`
	PredictedAt         time.Time        `json:"predicted_at"`
	ActualPrices        []*float64       `json:"actual_prices,omitempty"`
	AccuracyVerifiedAt  *time.Time       `json:"accuracy_verified_at,omitempty"`
	MeanErrorPct        *float64         `json:"mean_error_pct,omitempty"`
}

// Point is one predicted step. Timestamp is nil when the backend did not
// supply per-point timestamps.
type Point struct {
	Timestamp *time.Time
	Price     float64
}

// Build assembles a record from a completed prediction. When the response
// supplied per-point timestamps they are used verbatim; otherwise target
// timestamps are synthesized starting one horizon unit after now and
// advancing one unit per point.
func Build(coin market.Coin, horizon market.Horizon, useLiveData bool, lastObservedClose float64, points []Point, now time.Time) Record {
	predictions := make([]float64, len(points))
	targets := make([]time.Time, len(points))
	unit := horizon.Unit()

	for i, p := range points {
		predictions[i] = p.Price
		if p.Timestamp != nil {
			targets[i] = *p.Timestamp
		} else {
			targets[i] = now.Add(time.Duration(i+1) * unit)
		}
	}

	rec := Record{
		Coin:              coin,
		Horizon:           horizon,
		StepsAhead:        len(points),
		UseLiveData:       useLiveData,
		LastObservedClose: lastObservedClose,
		Predictions:       predictions,
		TargetTimestamps:  targets,
		PredictedAt:       now,
	}
	if len(predictions) > 0 {
		rec.FirstPredictedPrice = predictions[0]
		rec.LastPredictedPrice = predictions[len(predictions)-1]
	}
	return rec
}

// Collection is the locally held record list backing the history view.
// Deletes are optimistic: a record disappears immediately, independent of
// when (or whether) the backend confirms.
type Collection struct {
	mu      sync.Mutex
	records []Record
}

// Replace swaps the full record list, newest first as served by the API.
func (c *Collection) Replace(records []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append([]Record(nil), records...)
}

// List returns a copy of the current records.
func (c *Collection) List() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), c.records...)
}

// Delete removes a record by id, reporting whether it was present.
func (c *Collection) Delete(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, rec := range c.records {
		if rec.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return true
		}
	}
	return false
}
