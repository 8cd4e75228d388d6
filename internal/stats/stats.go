// Package stats derives comparison metrics from immutable price series.
// Every function is pure: the same series always yields identical results,
// and series shorter than a metric's minimum length degrade to the metric's
// neutral value instead of failing.
package stats

import (
	"math"

	"github.com/Ayuga01/Quantara/internal/series"
)

// Window sizes and weights are part of the cross-screen contract; changing
// any of them changes every dashboard, compare, and simulator reading.
const (
	volatilityWindow = 24
	momentumWindow   = 24
	trendWindow      = 12
	change24hPoints  = 24
	change7dPoints   = 168

	neutralScore = 50
)

// Direction classifies short-term trend.
type Direction string

const (
	Bullish Direction = "Bullish"
	Bearish Direction = "Bearish"
	Neutral Direction = "Neutral"
)

// Trend pairs a direction with a 0-100 strength reading.
type Trend struct {
	Direction Direction
	Strength  float64
}

// RiskLevel buckets volatility into coarse categories.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "VeryHigh"
)

// Metrics aggregates everything the dashboard and compare views show for
// one coin. Derived on demand, never persisted.
type Metrics struct {
	ChangePct           float64
	Change7dPct         float64
	VolatilityPct       float64
	MomentumScore       float64
	Trend               Trend
	RiskLevel           RiskLevel
	RiskScore           int
	RecommendationScore float64
	Recommendation      string
}

// ChangePct computes the percentage change between the latest point and
// the point n positions back. Requires at least n+1 points, else 0.
func ChangePct(points []series.PricePoint, n int) float64 {
	if n < 1 || len(points) < n+1 {
		return 0
	}
	base := points[len(points)-1-n].Price
	if base == 0 {
		return 0
	}
	return (points[len(points)-1].Price - base) / base * 100
}

// Volatility is the standard deviation of simple period-over-period
// returns across the most recent 24 points, expressed as a percentage.
// Requires at least 2 points, else 0.
func Volatility(points []series.PricePoint) float64 {
	window := series.Window(points, volatilityWindow)
	if len(window) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Price
		if prev == 0 {
			continue
		}
		returns = append(returns, (window[i].Price-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * 100
}

// Momentum compares the mean of the most recent 24 points against the mean
// of the preceding 24 and maps the relative gap onto a 0-100 score centred
// at 50 (2.5 score points per percent of gap). Requires 48 points, else 50.
func Momentum(points []series.PricePoint) float64 {
	if len(points) < 2*momentumWindow {
		return neutralScore
	}

	recent := mean(points[len(points)-momentumWindow:])
	prior := mean(points[len(points)-2*momentumWindow : len(points)-momentumWindow])
	if prior == 0 {
		return neutralScore
	}

	gapPct := (recent - prior) / prior * 100
	return clamp(neutralScore+gapPct*2.5, 0, 100)
}

// TrendOf counts up-moves against down-moves over the most recent 12
// points. Strength grows with the imbalance; fewer than 12 points report
// Neutral at strength 50.
func TrendOf(points []series.PricePoint) Trend {
	if len(points) < trendWindow {
		return Trend{Direction: Neutral, Strength: neutralScore}
	}

	window := points[len(points)-trendWindow:]
	ups, downs := 0, 0
	for i := 1; i < len(window); i++ {
		switch {
		case window[i].Price > window[i-1].Price:
			ups++
		case window[i].Price < window[i-1].Price:
			downs++
		}
	}

	direction := Neutral
	switch {
	case ups > downs:
		direction = Bullish
	case downs > ups:
		direction = Bearish
	}

	imbalance := math.Abs(float64(ups - downs))
	strength := clamp(neutralScore+imbalance*neutralScore/float64(trendWindow), 0, 100)
	return Trend{Direction: direction, Strength: strength}
}

// Risk buckets a volatility percentage. The numeric score is only used for
// tie-breaking in head-to-head comparisons.
func Risk(volatilityPct float64) (RiskLevel, int) {
	switch {
	case volatilityPct < 1:
		return RiskLow, 1
	case volatilityPct < 2:
		return RiskModerate, 2
	case volatilityPct < 3:
		return RiskHigh, 3
	default:
		return RiskVeryHigh, 4
	}
}

// Recommendation folds the individual signals into a 0-100 composite:
// base 50, plus 1.5x the 24h change clamped to ±15, plus the 7d change
// clamped to ±10, minus twice the volatility (uncapped), plus 0.4x the
// momentum deviation from neutral clamped to ±10, plus ±5 for trend.
func Recommendation(change24hPct, change7dPct, volatilityPct, momentum float64, direction Direction) (float64, string) {
	score := float64(neutralScore)
	score += clamp(change24hPct*1.5, -15, 15)
	score += clamp(change7dPct, -10, 10)
	score -= volatilityPct * 2
	score += clamp((momentum-neutralScore)*0.4, -10, 10)
	switch direction {
	case Bullish:
		score += 5
	case Bearish:
		score -= 5
	}

	score = clamp(score, 0, 100)
	return score, RecommendationLabel(score)
}

// RecommendationLabel maps a composite score to its display label.
func RecommendationLabel(score float64) string {
	switch {
	case score >= 70:
		return "Strong Buy"
	case score >= 55:
		return "Buy"
	case score >= 45:
		return "Hold"
	case score >= 30:
		return "Sell"
	default:
		return "Strong Sell"
	}
}

// Derive computes the full metric set for one ordered series.
func Derive(points []series.PricePoint) Metrics {
	change24 := ChangePct(points, change24hPoints)
	change7d := ChangePct(points, change7dPoints)
	volatility := Volatility(points)
	momentum := Momentum(points)
	trend := TrendOf(points)
	level, riskScore := Risk(volatility)
	score, label := Recommendation(change24, change7d, volatility, momentum, trend.Direction)

	return Metrics{
		ChangePct:           change24,
		Change7dPct:         change7d,
		VolatilityPct:       volatility,
		MomentumScore:       momentum,
		Trend:               trend,
		RiskLevel:           level,
		RiskScore:           riskScore,
		RecommendationScore: score,
		Recommendation:      label,
	}
}

func mean(points []series.PricePoint) float64 {
	if len(points) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range points {
		total += p.Price
	}
	return total / float64(len(points))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
