package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ayuga01/Quantara/internal/api"
	"github.com/Ayuga01/Quantara/internal/history"
	"github.com/Ayuga01/Quantara/internal/identity"
	"github.com/Ayuga01/Quantara/internal/market"
)

type fakeClient struct {
	predict     func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error)
	saveHistory func(ctx context.Context, rec history.Record) (history.Record, error)

	predictCalls int
	saveCalls    int
}

func (f *fakeClient) Predict(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
	f.predictCalls++
	return f.predict(ctx, req)
}

func (f *fakeClient) SaveHistory(ctx context.Context, rec history.Record) (history.Record, error) {
	f.saveCalls++
	if f.saveHistory == nil {
		rec.ID = 1
		return rec, nil
	}
	return f.saveHistory(ctx, rec)
}

func okResponse(req api.PredictRequest) *api.PredictResponse {
	points := make([]api.PredictedPoint, req.StepsAhead)
	for i := range points {
		points[i].PredictedPrice = 100 + float64(i+1)
	}
	return &api.PredictResponse{
		Coin:              req.Coin,
		Horizon:           req.Horizon,
		LastObservedClose: 100,
		FuturePredictions: points,
	}
}

func testManager(t *testing.T) *identity.Manager {
	t.Helper()
	return identity.NewManager(filepath.Join(t.TempDir(), "identity.json"), zerolog.Nop())
}

func validParams() Params {
	return Params{Coin: market.Bitcoin, Horizon: market.Hourly, StepsAhead: 3, UseLiveData: true}
}

func TestPredictValidation(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		return okResponse(req), nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	cases := []struct {
		params Params
		field  string
	}{
		{Params{Coin: "dogecoin", Horizon: market.Hourly, StepsAhead: 1}, "coin"},
		{Params{Coin: market.Bitcoin, Horizon: "weekly", StepsAhead: 1}, "horizon"},
		{Params{Coin: market.Bitcoin, Horizon: market.Hourly, StepsAhead: 0}, "steps_ahead"},
		{Params{Coin: market.Bitcoin, Horizon: market.Hourly, StepsAhead: 11}, "steps_ahead"},
	}
	for _, c := range cases {
		_, err := p.Predict(context.Background(), c.params)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("期望 ValidationError, 实际 %v", err)
		}
		if vErr.Field != c.field {
			t.Fatalf("期望字段 %s, 实际 %s", c.field, vErr.Field)
		}
	}
	if client.predictCalls != 0 {
		t.Fatalf("校验失败不应发起网络请求, 实际 %d 次", client.predictCalls)
	}
}

func TestPredictSingleFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var enteredOnce sync.Once

	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		return okResponse(req), nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := p.Predict(context.Background(), validParams())
		done <- err
	}()

	<-entered
	if _, err := p.Predict(context.Background(), validParams()); !errors.Is(err, ErrInFlight) {
		t.Fatalf("并发提交应被拒绝, 实际 %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("第一次提交应成功: %v", err)
	}
	if client.predictCalls != 1 {
		t.Fatalf("期望恰好一次网络调用, 实际 %d", client.predictCalls)
	}

	// 上一次完成后应可以再次提交。
	if _, err := p.Predict(context.Background(), validParams()); err != nil {
		t.Fatalf("后续提交应成功: %v", err)
	}
}

func TestPredictRejectsStepCountMismatch(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		resp := okResponse(req)
		resp.FuturePredictions = resp.FuturePredictions[:1]
		return resp, nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	if _, err := p.Predict(context.Background(), validParams()); err == nil {
		t.Fatal("步数不符的响应应报错")
	}
}

func TestPredictRejectsEmptyResponse(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		return &api.PredictResponse{Coin: req.Coin, Horizon: req.Horizon}, nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	if _, err := p.Predict(context.Background(), validParams()); err == nil {
		t.Fatal("空预测应报错")
	}
}

func TestPredictStampsGeneratedAtOnce(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		return okResponse(req), nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	result, err := p.Predict(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Predict 应成功: %v", err)
	}
	if !result.GeneratedAt.Equal(fixed) {
		t.Fatalf("generated_at 应为接收时刻, 实际 %s", result.GeneratedAt)
	}
	if !result.Request.StartTimestamp.Equal(fixed) {
		t.Fatalf("start_timestamp 应为提交时刻, 实际 %s", result.Request.StartTimestamp)
	}
}

func TestPredictSummary(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		return &api.PredictResponse{
			Coin:              req.Coin,
			Horizon:           req.Horizon,
			LastObservedClose: 100,
			FuturePredictions: []api.PredictedPoint{{PredictedPrice: 105}, {PredictedPrice: 110}},
		}, nil
	}}
	p := New(client, testManager(t), 10, zerolog.Nop())

	result, err := p.Predict(context.Background(), Params{Coin: market.Bitcoin, Horizon: market.Hourly, StepsAhead: 2})
	if err != nil {
		t.Fatalf("Predict 应成功: %v", err)
	}

	s := result.Summary
	if s.PredictedEndPrice != 110 {
		t.Fatalf("终点价应取最后一步, 实际 %v", s.PredictedEndPrice)
	}
	if s.ExpectedChangePct != 10 {
		t.Fatalf("期望涨幅 10%%, 实际 %v", s.ExpectedChangePct)
	}
	if s.BestCasePrice != 110*1.15 || s.WorstCasePrice != 110*0.85 {
		t.Fatalf("±15%% 区间不正确: %v / %v", s.BestCasePrice, s.WorstCasePrice)
	}
}

func TestHistorySavedOnlyWhenAuthenticated(t *testing.T) {
	client := &fakeClient{predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
		return okResponse(req), nil
	}}

	ids := testManager(t)
	ids.EnsureGuest()
	p := New(client, ids, 10, zerolog.Nop())

	result, err := p.Predict(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Predict 应成功: %v", err)
	}
	if result.SavedRecord != nil || client.saveCalls != 0 {
		t.Fatal("guest 预测不应写入历史")
	}

	ids.SetAuthenticated("a@b.c")
	result, err = p.Predict(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Predict 应成功: %v", err)
	}
	if result.SavedRecord == nil || result.SavedRecord.ID != 1 {
		t.Fatalf("登录态应保存历史记录, 实际 %#v", result.SavedRecord)
	}
}

func TestHistorySaveFailureIsNotFatal(t *testing.T) {
	client := &fakeClient{
		predict: func(ctx context.Context, req api.PredictRequest) (*api.PredictResponse, error) {
			return okResponse(req), nil
		},
		saveHistory: func(ctx context.Context, rec history.Record) (history.Record, error) {
			return history.Record{}, errors.New("backend down")
		},
	}

	ids := testManager(t)
	ids.SetAuthenticated("a@b.c")
	p := New(client, ids, 10, zerolog.Nop())

	result, err := p.Predict(context.Background(), validParams())
	if err != nil {
		t.Fatalf("保存失败不应使预测整体失败: %v", err)
	}
	if result.SavedRecord != nil {
		t.Fatal("保存失败时 SavedRecord 应为 nil")
	}
}
