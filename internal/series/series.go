package series

import (
	"time"
)

// PricePoint is a single observation of a coin's USD price.
// Points are immutable and ordered by ascending timestamp.
type PricePoint struct {
	Timestamp time.Time
	Price     float64
}

// RawPoint is the loose external shape returned by data sources. Some
// endpoints name the value "price", others "close"; either is accepted.
type RawPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     *float64  `json:"price"`
	Close     *float64  `json:"close"`
}

// Normalize maps raw points into the canonical PricePoint shape.
// Points without any price value are dropped rather than defaulted to zero.
func Normalize(raw []RawPoint) []PricePoint {
	points := make([]PricePoint, 0, len(raw))
	for _, r := range raw {
		var price float64
		switch {
		case r.Price != nil:
			price = *r.Price
		case r.Close != nil:
			price = *r.Close
		default:
			continue
		}
		points = append(points, PricePoint{Timestamp: r.Timestamp, Price: price})
	}
	return points
}

// Window returns the trailing maxPoints elements of an ordered series,
// or the full series when it is shorter. Order is preserved.
func Window(points []PricePoint, maxPoints int) []PricePoint {
	if maxPoints <= 0 {
		return nil
	}
	if len(points) <= maxPoints {
		return points
	}
	return points[len(points)-maxPoints:]
}

// Prices extracts the price column of a series.
func Prices(points []PricePoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Price
	}
	return values
}
