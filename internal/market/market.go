package market

import (
	"fmt"
	"time"
)

// Coin identifies one of the assets served by the forecasting API.
type Coin string

const (
	Bitcoin     Coin = "bitcoin"
	Ethereum    Coin = "ethereum"
	Solana      Coin = "solana"
	Cardano     Coin = "cardano"
	Binancecoin Coin = "binancecoin"
)

// Coins lists supported assets in display order.
var Coins = []Coin{Bitcoin, Ethereum, Solana, Cardano, Binancecoin}

var symbols = map[Coin]string{
	Bitcoin:     "BTCUSDT",
	Ethereum:    "ETHUSDT",
	Solana:      "SOLUSDT",
	Cardano:     "ADAUSDT",
	Binancecoin: "BNBUSDT",
}

// ParseCoin validates a coin identifier.
func ParseCoin(s string) (Coin, error) {
	c := Coin(s)
	if _, ok := symbols[c]; !ok {
		return "", fmt.Errorf("unsupported coin %q", s)
	}
	return c, nil
}

// Symbol returns the Binance ticker used for display.
func (c Coin) Symbol() string {
	return symbols[c]
}

func (c Coin) String() string {
	return string(c)
}

// Horizon is the time granularity of each predicted step.
type Horizon string

const (
	Hourly Horizon = "1h"
	Daily  Horizon = "24h"
)

// ParseHorizon validates a horizon identifier.
func ParseHorizon(s string) (Horizon, error) {
	switch Horizon(s) {
	case Hourly:
		return Hourly, nil
	case Daily:
		return Daily, nil
	}
	return "", fmt.Errorf("unsupported horizon %q", s)
}

// Unit returns the duration of one predicted step.
func (h Horizon) Unit() time.Duration {
	if h == Daily {
		return 24 * time.Hour
	}
	return time.Hour
}

func (h Horizon) String() string {
	return string(h)
}
