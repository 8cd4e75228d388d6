package stats

import (
	"math"
	"testing"

	"github.com/Ayuga01/Quantara/internal/series"
)

func constantSeries(n int, price float64) []series.PricePoint {
	points := make([]series.PricePoint, n)
	for i := range points {
		points[i].Price = price
	}
	return points
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestChangePct(t *testing.T) {
	points := constantSeries(25, 100)
	points[len(points)-1].Price = 110

	if got := ChangePct(points, 24); !almostEqual(got, 10) {
		t.Fatalf("期望 24h 涨幅 10%%, 实际 %v", got)
	}
	if got := ChangePct(points, 168); got != 0 {
		t.Fatalf("点数不足时应返回 0, 实际 %v", got)
	}
	if got := ChangePct(nil, 24); got != 0 {
		t.Fatalf("空序列应返回 0, 实际 %v", got)
	}
}

func TestVolatilityConstantSeriesIsZero(t *testing.T) {
	if got := Volatility(constantSeries(24, 100)); got != 0 {
		t.Fatalf("恒定序列波动率应为 0, 实际 %v", got)
	}
	if got := Volatility(constantSeries(1, 100)); got != 0 {
		t.Fatalf("单点序列应返回 0, 实际 %v", got)
	}
}

func TestMomentumMeanGap(t *testing.T) {
	// 前 24 点均值 100, 后 24 点均值 108, 差距 8% 映射到 50+20=70。
	points := append(constantSeries(24, 100), constantSeries(24, 108)...)
	if got := Momentum(points); !almostEqual(got, 70) {
		t.Fatalf("期望动量 70, 实际 %v", got)
	}

	if got := Momentum(constantSeries(47, 100)); got != neutralScore {
		t.Fatalf("点数不足应返回中性值, 实际 %v", got)
	}
}

func TestTrendOf(t *testing.T) {
	rising := make([]series.PricePoint, trendWindow)
	for i := range rising {
		rising[i].Price = float64(i)
	}

	trend := TrendOf(rising)
	if trend.Direction != Bullish {
		t.Fatalf("单调上行应判为 Bullish, 实际 %s", trend.Direction)
	}
	if trend.Strength <= neutralScore {
		t.Fatalf("强趋势的强度应高于 50, 实际 %v", trend.Strength)
	}

	short := TrendOf(constantSeries(trendWindow-1, 1))
	if short.Direction != Neutral || short.Strength != neutralScore {
		t.Fatalf("点数不足应返回 Neutral/50, 实际 %#v", short)
	}
}

func TestRiskBuckets(t *testing.T) {
	cases := []struct {
		volatility float64
		level      RiskLevel
		score      int
	}{
		{0.5, RiskLow, 1},
		{1.5, RiskModerate, 2},
		{2.5, RiskHigh, 3},
		{3.5, RiskVeryHigh, 4},
	}
	for _, c := range cases {
		level, score := Risk(c.volatility)
		if level != c.level || score != c.score {
			t.Fatalf("波动率 %v 期望 %s/%d, 实际 %s/%d", c.volatility, c.level, c.score, level, score)
		}
	}
}

func TestRecommendationComposite(t *testing.T) {
	// 24h +10% (封顶前 15), 7d +10%, 零波动, 中性动量, Bullish 趋势。
	score, label := Recommendation(10, 10, 0, neutralScore, Bullish)
	if !almostEqual(score, 80) {
		t.Fatalf("期望综合得分 80, 实际 %v", score)
	}
	if label != "Strong Buy" {
		t.Fatalf("期望 Strong Buy, 实际 %q", label)
	}

	// 大幅下跌叠加高波动应压到下限。
	score, label = Recommendation(-50, -50, 30, 0, Bearish)
	if score != 0 {
		t.Fatalf("得分应被钳到 0, 实际 %v", score)
	}
	if label != "Strong Sell" {
		t.Fatalf("期望 Strong Sell, 实际 %q", label)
	}
}

func TestRecommendationLabelBoundaries(t *testing.T) {
	cases := map[float64]string{
		70:    "Strong Buy",
		69.99: "Buy",
		55:    "Buy",
		54.99: "Hold",
		45:    "Hold",
		44.99: "Sell",
		30:    "Sell",
		29.99: "Strong Sell",
	}
	for score, want := range cases {
		if got := RecommendationLabel(score); got != want {
			t.Fatalf("得分 %v 期望 %q, 实际 %q", score, want, got)
		}
	}
}

func TestDeriveNeutralForFlatSeries(t *testing.T) {
	m := Derive(constantSeries(2, 100))
	if m.ChangePct != 0 || m.VolatilityPct != 0 {
		t.Fatalf("恒定短序列涨幅与波动率应为 0: %#v", m)
	}
	if m.MomentumScore != neutralScore {
		t.Fatalf("动量应为中性值, 实际 %v", m.MomentumScore)
	}
	if !almostEqual(m.RecommendationScore, neutralScore) || m.Recommendation != "Hold" {
		t.Fatalf("中性输入应得到 50/Hold, 实际 %v/%q", m.RecommendationScore, m.Recommendation)
	}
	if m.RiskLevel != RiskLow {
		t.Fatalf("零波动应是低风险, 实际 %s", m.RiskLevel)
	}
}
