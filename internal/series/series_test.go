package series

import (
	"testing"
	"time"
)

func TestNormalizeDropsMissingValues(t *testing.T) {
	ts := time.Now()
	price := 100.0
	closeVal := 200.0

	raw := []RawPoint{
		{Timestamp: ts, Price: &price},
		{Timestamp: ts.Add(time.Hour)},
		{Timestamp: ts.Add(2 * time.Hour), Close: &closeVal},
	}

	points := Normalize(raw)
	if len(points) != 2 {
		t.Fatalf("缺值点应被丢弃, 期望 2 个点, 实际 %d", len(points))
	}
	if points[0].Price != 100 {
		t.Fatalf("price 字段优先, 实际 %v", points[0].Price)
	}
	if points[1].Price != 200 {
		t.Fatalf("缺 price 时应取 close, 实际 %v", points[1].Price)
	}
}

func TestNormalizePrefersPriceOverClose(t *testing.T) {
	price := 1.0
	closeVal := 2.0
	points := Normalize([]RawPoint{{Price: &price, Close: &closeVal}})
	if len(points) != 1 || points[0].Price != 1 {
		t.Fatalf("同时存在时应取 price, 实际 %#v", points)
	}
}

func TestWindow(t *testing.T) {
	points := make([]PricePoint, 5)
	for i := range points {
		points[i].Price = float64(i)
	}

	got := Window(points, 3)
	if len(got) != 3 {
		t.Fatalf("期望尾部 3 个点, 实际 %d", len(got))
	}
	if got[0].Price != 2 || got[2].Price != 4 {
		t.Fatalf("应保留最新的点且保持顺序, 实际 %#v", got)
	}

	if got := Window(points, 10); len(got) != 5 {
		t.Fatalf("序列不足时应返回全部, 实际 %d", len(got))
	}
	if got := Window(points, 0); got != nil {
		t.Fatalf("maxPoints<=0 应返回 nil, 实际 %#v", got)
	}
}

func TestPrices(t *testing.T) {
	points := []PricePoint{{Price: 1.5}, {Price: 2.5}}
	values := Prices(points)
	if len(values) != 2 || values[0] != 1.5 || values[1] != 2.5 {
		t.Fatalf("价格列提取不正确: %#v", values)
	}
}
