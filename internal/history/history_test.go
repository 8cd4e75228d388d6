package history

import (
	"testing"
	"time"

	"github.com/Ayuga01/Quantara/internal/market"
)

func TestBuildSynthesizesTargets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	points := []Point{
		{Price: 101},
		{Price: 102},
		{Price: 103},
		{Price: 104},
		{Price: 105},
		{Price: 106},
	}

	rec := Build(market.Bitcoin, market.Hourly, true, 100, points, now)

	if rec.StepsAhead != 6 {
		t.Fatalf("期望 6 步, 实际 %d", rec.StepsAhead)
	}
	if rec.FirstPredictedPrice != 101 || rec.LastPredictedPrice != 106 {
		t.Fatalf("首末预测价不正确: %v / %v", rec.FirstPredictedPrice, rec.LastPredictedPrice)
	}
	for i, target := range rec.TargetTimestamps {
		want := now.Add(time.Duration(i+1) * time.Hour)
		if !target.Equal(want) {
			t.Fatalf("第 %d 步目标时间期望 %s, 实际 %s", i+1, want, target)
		}
	}
	if !rec.PredictedAt.Equal(now) {
		t.Fatalf("predicted_at 应为构建时刻, 实际 %s", rec.PredictedAt)
	}
}

func TestBuildUsesExplicitTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	explicit := now.Add(30 * time.Minute)
	rec := Build(market.Ethereum, market.Daily, false, 50, []Point{{Timestamp: &explicit, Price: 60}}, now)

	if !rec.TargetTimestamps[0].Equal(explicit) {
		t.Fatalf("响应自带时间戳应原样使用, 实际 %s", rec.TargetTimestamps[0])
	}
	if rec.Horizon != market.Daily || rec.UseLiveData {
		t.Fatalf("参数透传不正确: %#v", rec)
	}
}

func TestCollectionOptimisticDelete(t *testing.T) {
	c := &Collection{}
	c.Replace([]Record{{ID: 1}, {ID: 2}, {ID: 3}})

	if !c.Delete(2) {
		t.Fatal("删除已存在的记录应返回 true")
	}
	if c.Delete(2) {
		t.Fatal("重复删除应返回 false")
	}

	rest := c.List()
	if len(rest) != 2 || rest[0].ID != 1 || rest[1].ID != 3 {
		t.Fatalf("删除后剩余记录不正确: %#v", rest)
	}
}

func TestCollectionListReturnsCopy(t *testing.T) {
	c := &Collection{}
	c.Replace([]Record{{ID: 1}})

	list := c.List()
	list[0].ID = 99
	if c.List()[0].ID != 1 {
		t.Fatal("List 应返回副本, 外部修改不应影响内部状态")
	}
}
