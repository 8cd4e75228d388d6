package market

import (
	"testing"
	"time"
)

func TestParseCoin(t *testing.T) {
	coin, err := ParseCoin("bitcoin")
	if err != nil || coin != Bitcoin {
		t.Fatalf("bitcoin 应可解析: %v %v", coin, err)
	}
	if coin.Symbol() != "BTCUSDT" {
		t.Fatalf("交易对符号不正确: %s", coin.Symbol())
	}
	if _, err := ParseCoin("dogecoin"); err == nil {
		t.Fatal("不支持的币种应报错")
	}
}

func TestParseHorizon(t *testing.T) {
	h, err := ParseHorizon("1h")
	if err != nil || h != Hourly {
		t.Fatalf("1h 应可解析: %v %v", h, err)
	}
	if h.Unit() != time.Hour {
		t.Fatalf("1h 步长应为一小时, 实际 %s", h.Unit())
	}

	h, err = ParseHorizon("24h")
	if err != nil || h.Unit() != 24*time.Hour {
		t.Fatalf("24h 步长应为一天: %v %v", h, err)
	}

	if _, err := ParseHorizon("weekly"); err == nil {
		t.Fatal("不支持的步长应报错")
	}
}
