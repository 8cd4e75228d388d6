package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ayuga01/Quantara/internal/alerting"
	"github.com/Ayuga01/Quantara/internal/api"
	"github.com/Ayuga01/Quantara/internal/config"
	"github.com/Ayuga01/Quantara/internal/market"
	"github.com/Ayuga01/Quantara/internal/poller"
	"github.com/Ayuga01/Quantara/internal/pricing"
	"github.com/Ayuga01/Quantara/internal/series"
	"github.com/Ayuga01/Quantara/internal/stats"
	"github.com/Ayuga01/Quantara/internal/storage"
)

// PriceClient is the slice of the API surface the watch service needs.
type PriceClient interface {
	CurrentPrices(ctx context.Context) (*api.CurrentPrices, error)
	Historical(ctx context.Context, coin market.Coin, limit int) ([]series.PricePoint, error)
}

// Service orchestrates live polling, sample recording, metric derivation,
// and signal alerting.
type Service struct {
	client     PriceClient
	poller     *poller.Poller
	store      storage.SampleStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	formatter  pricing.Formatter
	logger     zerolog.Logger

	interval      time.Duration
	historyPoints int
	cooldown      time.Duration
	channels      []string
	alertsOn      bool
	locker        storage.AdvisoryLocker
	lockKey       int64

	histories   map[market.Coin][]series.PricePoint
	lastLabel   map[market.Coin]string
	lastAlertAt map[market.Coin]time.Time
}

// New constructs the watch service.
func New(cfg *config.Config, pol *poller.Poller, client PriceClient, store storage.SampleStore, alertStore storage.AlertStore, notifier alerting.Notifier, formatter pricing.Formatter, logger zerolog.Logger) *Service {
	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	historyPoints := cfg.Poller.HistoryPoints
	if historyPoints <= 0 {
		historyPoints = 192
	}

	return &Service{
		client:        client,
		poller:        pol,
		store:         store,
		alertStore:    alertStore,
		notifier:      notifier,
		formatter:     formatter,
		logger:        logger.With().Str("component", "service").Logger(),
		interval:      cfg.Poller.Interval,
		historyPoints: historyPoints,
		cooldown:      cfg.Alerting.Cooldown,
		channels:      cfg.Alerting.Channels,
		alertsOn:      cfg.Alerting.Enabled,
		locker:        locker,
		lockKey:       cfg.Database.AdvisoryLockKey,
		histories:     make(map[market.Coin][]series.PricePoint),
		lastLabel:     make(map[market.Coin]string),
		lastAlertAt:   make(map[market.Coin]time.Time),
	}
}

// Run seeds historical series and begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.poller == nil {
		return fmt.Errorf("poller not configured")
	}

	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		return fmt.Errorf("another watch instance holds the advisory lock")
	}
	if unlock != nil {
		defer unlock()
	}

	s.bootstrap(ctx)
	return s.poller.Run(ctx, s.ApplyUpdate)
}

// bootstrap fetches the historical series for every coin. The fetches run
// concurrently and independently: one coin failing must not block the
// others' data.
func (s *Service) bootstrap(ctx context.Context) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, coin := range market.Coins {
		wg.Add(1)
		go func(coin market.Coin) {
			defer wg.Done()
			points, err := s.client.Historical(ctx, coin, s.historyPoints)
			if err != nil {
				s.logger.Error().Err(err).Str("coin", coin.String()).Msg("historical seed failed")
				return
			}
			mu.Lock()
			s.histories[coin] = points
			mu.Unlock()
		}(coin)
	}
	wg.Wait()
}

// ApplyUpdate consumes one live price snapshot. Calls are serialised by
// the poller's generation guard, so state access here needs no extra lock.
func (s *Service) ApplyUpdate(ctx context.Context, update *api.CurrentPrices) {
	observedAt := update.Timestamp
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	for _, price := range update.Prices {
		coin, err := market.ParseCoin(price.Coin.String())
		if err != nil {
			s.logger.Warn().Str("coin", price.Coin.String()).Msg("skipping unknown coin in snapshot")
			continue
		}

		points := append(s.histories[coin], series.PricePoint{Timestamp: observedAt, Price: price.PriceUSD})
		points = series.Window(points, s.historyPoints)
		s.histories[coin] = points

		s.recordSample(ctx, coin, price, observedAt)

		metrics := stats.Derive(points)
		s.logger.Info().
			Str("coin", coin.String()).
			Str("price", s.formatter.Format(price.PriceUSD)).
			Str("change_24h", fmt.Sprintf("%.2f%%", metrics.ChangePct)).
			Str("volatility", fmt.Sprintf("%.2f%%", metrics.VolatilityPct)).
			Float64("momentum", metrics.MomentumScore).
			Str("trend", string(metrics.Trend.Direction)).
			Str("signal", metrics.Recommendation).
			Msg("price refreshed")

		s.checkSignalFlip(ctx, coin, price, metrics, observedAt)
	}
}

func (s *Service) recordSample(ctx context.Context, coin market.Coin, price api.CurrentPrice, observedAt time.Time) {
	if s.store == nil {
		return
	}

	sample := storage.PriceSample{
		Coin:     coin,
		Bucket:   observedAt.UTC().Truncate(s.interval),
		Symbol:   coin.Symbol(),
		PriceUSD: decimal.NewFromFloat(price.PriceUSD),
		Source:   "current-prices",
	}
	if err := s.store.UpsertPriceSample(ctx, sample); err != nil {
		s.logger.Error().Err(err).Str("coin", coin.String()).Msg("failed to upsert price sample")
	}
}

// checkSignalFlip emits an alert when a coin's recommendation label
// changes, at most once per cooldown per coin.
func (s *Service) checkSignalFlip(ctx context.Context, coin market.Coin, price api.CurrentPrice, metrics stats.Metrics, observedAt time.Time) {
	prev, seen := s.lastLabel[coin]
	s.lastLabel[coin] = metrics.Recommendation
	if !seen || prev == metrics.Recommendation {
		return
	}
	if !s.alertsOn || s.notifier == nil {
		return
	}
	if last, ok := s.lastAlertAt[coin]; ok && observedAt.Sub(last) < s.cooldown {
		s.logger.Debug().Str("coin", coin.String()).Msg("signal flip inside cooldown, suppressed")
		return
	}
	s.lastAlertAt[coin] = observedAt

	note := alerting.Notification{
		Coin:         coin,
		Symbol:       coin.Symbol(),
		OccurredAt:   observedAt,
		PrevLabel:    prev,
		NewLabel:     metrics.Recommendation,
		Score:        metrics.RecommendationScore,
		PriceDisplay: s.formatter.Format(price.PriceUSD),
		ChangePct:    metrics.ChangePct,
		Channels:     s.channels,
	}

	if s.alertStore != nil {
		record := storage.SignalAlert{
			Coin:       coin,
			OccurredAt: observedAt,
			PrevLabel:  prev,
			NewLabel:   metrics.Recommendation,
			Score:      decimal.NewFromFloat(metrics.RecommendationScore),
			PriceUSD:   decimal.NewFromFloat(price.PriceUSD),
		}
		if _, err := s.alertStore.InsertSignalAlert(ctx, record); err != nil {
			s.logger.Error().Err(err).Str("coin", coin.String()).Msg("failed to persist signal alert")
		}
	}

	if err := s.notifier.Notify(ctx, note); err != nil {
		s.logger.Error().Err(err).Str("coin", coin.String()).Msg("failed to dispatch signal alert")
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
