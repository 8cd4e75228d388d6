package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/identity"
	"github.com/Ayuga01/Quantara/internal/market"
)

type staticIdentity struct {
	id identity.Identity
}

func (s staticIdentity) Current() identity.Identity { return s.id }

func testClient(baseURL string, id identity.Identity) *Client {
	return NewClient(Options{
		BaseURL: baseURL,
		Timeout: time.Second,
	}, staticIdentity{id: id}, zerolog.Nop())
}

func TestPredictSendsGuestHeader(t *testing.T) {
	var gotGuest, gotEmail string
	var gotBody PredictRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Fatalf("期望 POST /predict, 实际 %s %s", r.Method, r.URL.Path)
		}
		gotGuest = r.Header.Get(identity.HeaderGuestID)
		gotEmail = r.Header.Get(identity.HeaderUserEmail)
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}

		_ = json.NewEncoder(w).Encode(PredictResponse{
			Coin:              market.Bitcoin,
			Horizon:           market.Hourly,
			LastObservedClose: 100,
			FuturePredictions: []PredictedPoint{{PredictedPrice: 101}, {PredictedPrice: 102}},
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{GuestID: "guest_abc"})
	resp, err := client.Predict(context.Background(), PredictRequest{
		Coin:       market.Bitcoin,
		Horizon:    market.Hourly,
		StepsAhead: 2,
	})
	if err != nil {
		t.Fatalf("Predict 应成功: %v", err)
	}

	if gotGuest != "guest_abc" || gotEmail != "" {
		t.Fatalf("guest 请求应只携带 X-Guest-ID: guest=%q email=%q", gotGuest, gotEmail)
	}
	if gotBody.StepsAhead != 2 || gotBody.Coin != market.Bitcoin {
		t.Fatalf("请求体不正确: %#v", gotBody)
	}
	if len(resp.FuturePredictions) != 2 || resp.LastObservedClose != 100 {
		t.Fatalf("响应解析不正确: %#v", resp)
	}
}

func TestPredictSurfacesDetailVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "model unavailable"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{GuestID: "guest_abc"})
	_, err := client.Predict(context.Background(), PredictRequest{Coin: market.Bitcoin, Horizon: market.Hourly, StepsAhead: 1})
	if err == nil {
		t.Fatal("503 应返回错误")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("期望 *api.Error, 实际 %T", err)
	}
	if apiErr.Error() != "model unavailable" {
		t.Fatalf("detail 应原样透出, 实际 %q", apiErr.Error())
	}
}

func TestUnauthorizedUnwraps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "not logged in"})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{})
	if err := client.Logout(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401 应展开为 ErrUnauthorized, 实际 %v", err)
	}
}

func TestSessionEmailAbsentSessionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{})
	email, err := client.SessionEmail(context.Background())
	if err != nil {
		t.Fatalf("无会话不应视为错误: %v", err)
	}
	if email != "" {
		t.Fatalf("无会话应返回空邮箱, 实际 %q", email)
	}
}

func TestHistoricalNormalizesPoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/historical/bitcoin" {
			t.Fatalf("路径不正确: %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "3" {
			t.Fatalf("limit 参数不正确: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"prices": []map[string]any{
				{"timestamp": time.Now().UTC(), "price": 100.0},
				{"timestamp": time.Now().UTC()},
				{"timestamp": time.Now().UTC(), "close": 102.0},
			},
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{Email: "a@b.c"})
	points, err := client.Historical(context.Background(), market.Bitcoin, 3)
	if err != nil {
		t.Fatalf("Historical 应成功: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("缺值点应被过滤, 期望 2 个点, 实际 %d", len(points))
	}
	if points[0].Price != 100 || points[1].Price != 102 {
		t.Fatalf("归一化结果不正确: %#v", points)
	}
}

func TestListHistoryDecodesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(identity.HeaderUserEmail) != "a@b.c" {
			t.Fatalf("登录态请求应携带邮箱头, 实际 %q", r.Header.Get(identity.HeaderUserEmail))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []map[string]any{
				{"id": 7, "coin": "bitcoin", "horizon": "1h", "steps_ahead": 6},
			},
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{Email: "a@b.c"})
	records, err := client.ListHistory(context.Background())
	if err != nil {
		t.Fatalf("ListHistory 应成功: %v", err)
	}
	if len(records) != 1 || records[0].ID != 7 || records[0].Coin != market.Bitcoin {
		t.Fatalf("记录解析不正确: %#v", records)
	}
}

func TestCurrentPricesRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(CurrentPrices{
			Prices:    []CurrentPrice{{Coin: market.Bitcoin, Symbol: "BTCUSDT", PriceUSD: 43000}},
			Timestamp: time.Now().UTC(),
		})
	}))
	defer srv.Close()

	client := testClient(srv.URL, identity.Identity{GuestID: "guest_abc"})
	snapshot, err := client.CurrentPrices(context.Background())
	if err != nil {
		t.Fatalf("5xx 重试后应成功: %v", err)
	}
	if attempts < 2 {
		t.Fatalf("5xx 应触发重试, 实际请求次数 %d", attempts)
	}
	if len(snapshot.Prices) != 1 || snapshot.Prices[0].PriceUSD != 43000 {
		t.Fatalf("快照解析不正确: %#v", snapshot)
	}
}
