package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ayuga01/Quantara/internal/market"
)

// PriceSample is one recorded live price observation, bucketed by the
// poller interval.
type PriceSample struct {
	Coin      market.Coin
	Bucket    time.Time
	Symbol    string
	PriceUSD  decimal.Decimal
	Source    string
	CreatedAt time.Time
}

// SignalAlert captures an emitted recommendation flip for auditing.
type SignalAlert struct {
	ID         int64
	Coin       market.Coin
	OccurredAt time.Time
	PrevLabel  string
	NewLabel   string
	Score      decimal.Decimal
	PriceUSD   decimal.Decimal
	CreatedAt  time.Time
}
