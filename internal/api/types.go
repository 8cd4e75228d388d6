package api

import (
	"time"

	"github.com/Ayuga01/Quantara/internal/market"
	"github.com/Ayuga01/Quantara/internal/series"
)

// PredictRequest is the body of POST /predict. Constructed fresh per
// submit, never mutated.
type PredictRequest struct {
	Coin           market.Coin    `json:"coin"`
	Horizon        market.Horizon `json:"horizon"`
	StartTimestamp time.Time      `json:"start_timestamp"`
	StepsAhead     int            `json:"steps_ahead"`
	UseLiveData    bool           `json:"use_live_data"`
}

// PredictedPoint is one future step of a prediction. Timestamp is optional:
// older model versions omit per-point timestamps.
type PredictedPoint struct {
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	PredictedPrice float64    `json:"predicted_price"`
}

// PredictResponse is the decoded body of a successful POST /predict.
// Immutable once received.
type PredictResponse struct {
	Coin              market.Coin      `json:"coin"`
	Horizon           market.Horizon   `json:"horizon"`
	LastObservedClose float64          `json:"last_observed_close"`
	FuturePredictions []PredictedPoint `json:"future_predictions"`
}

// CurrentPrice is one entry of GET /current-prices.
type CurrentPrice struct {
	Coin     market.Coin `json:"coin"`
	Symbol   string      `json:"symbol"`
	PriceUSD float64     `json:"price_usd"`
}

// CurrentPrices is the decoded body of GET /current-prices.
type CurrentPrices struct {
	Prices    []CurrentPrice `json:"prices"`
	Timestamp time.Time      `json:"timestamp"`
}

type historicalResponse struct {
	Prices []series.RawPoint `json:"prices"`
}

// User describes an authenticated account.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Credentials carry a password login or registration.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type profileUpdate struct {
	Name string `json:"name"`
}
