package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Ayuga01/Quantara/internal/market"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertPriceSampleSQL = `INSERT INTO price_samples (
        coin,
        bucket_ts,
        symbol,
        price_usd,
        source
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    ON CONFLICT (coin, bucket_ts) DO UPDATE
    SET
        symbol    = EXCLUDED.symbol,
        price_usd = EXCLUDED.price_usd,
        source    = EXCLUDED.source;`

	listSamplesBetweenSQL = `SELECT
        coin,
        bucket_ts,
        symbol,
        price_usd,
        source,
        created_at
    FROM price_samples
    WHERE coin = $1
      AND bucket_ts >= $2
      AND bucket_ts < $3
    ORDER BY bucket_ts;`

	listRecentSamplesSQL = `SELECT
        coin,
        bucket_ts,
        symbol,
        price_usd,
        source,
        created_at
    FROM price_samples
    WHERE coin = $1
    ORDER BY bucket_ts DESC
    LIMIT $2;`

	countSamplesSQL = `SELECT COUNT(*) FROM price_samples;`

	insertSignalAlertSQL = `INSERT INTO signal_alerts (
        coin,
        occurred_at,
        prev_label,
        new_label,
        score,
        price_usd
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, coin, occurred_at, prev_label, new_label, score, price_usd, created_at;`

	listRecentSignalAlertsSQL = `SELECT
        id,
        coin,
        occurred_at,
        prev_label,
        new_label,
        score,
        price_usd,
        created_at
    FROM signal_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteSignalAlertsBeforeSQL = `DELETE FROM signal_alerts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// SampleStore defines operations for price sample persistence.
type SampleStore interface {
	UpsertPriceSample(ctx context.Context, sample PriceSample) error
	ListSamplesBetween(ctx context.Context, coin market.Coin, from, to time.Time) ([]PriceSample, error)
	ListRecentSamples(ctx context.Context, coin market.Coin, limit int) ([]PriceSample, error)
	CountSamples(ctx context.Context) (int64, error)
}

// AlertStore defines operations for signal alert auditing.
type AlertStore interface {
	InsertSignalAlert(ctx context.Context, alert SignalAlert) (SignalAlert, error)
	ListRecentSignalAlerts(ctx context.Context, limit int) ([]SignalAlert, error)
	DeleteSignalAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to price samples and signal alerts.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertPriceSample persists or updates a price sample.
func (s *Store) UpsertPriceSample(ctx context.Context, sample PriceSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertPriceSampleSQL,
		sample.Coin.String(),
		sample.Bucket,
		sample.Symbol,
		sample.PriceUSD.String(),
		sample.Source,
	)
	if execErr != nil {
		return fmt.Errorf("upsert price sample: %w", execErr)
	}
	return nil
}

// ListSamplesBetween lists one coin's samples within a time window.
func (s *Store) ListSamplesBetween(ctx context.Context, coin market.Coin, from, to time.Time) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, coin.String(), from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]PriceSample, 0)
	for rows.Next() {
		sample, scanErr := scanPriceSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// ListRecentSamples lists one coin's most recent samples by descending bucket.
func (s *Store) ListRecentSamples(ctx context.Context, coin market.Coin, limit int) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, coin.String(), limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]PriceSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanPriceSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

// InsertSignalAlert persists a signal alert emission.
func (s *Store) InsertSignalAlert(ctx context.Context, alert SignalAlert) (SignalAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return SignalAlert{}, err
	}

	row := pool.QueryRow(ctx, insertSignalAlertSQL,
		alert.Coin.String(),
		alert.OccurredAt,
		alert.PrevLabel,
		alert.NewLabel,
		alert.Score.String(),
		alert.PriceUSD.String(),
	)

	rec, scanErr := scanSignalAlert(row)
	if scanErr != nil {
		return SignalAlert{}, fmt.Errorf("insert signal alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentSignalAlerts lists most recent signal alerts.
func (s *Store) ListRecentSignalAlerts(ctx context.Context, limit int) ([]SignalAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSignalAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent signal alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]SignalAlert, 0, limit)
	for rows.Next() {
		rec, scanErr := scanSignalAlert(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteSignalAlertsBefore deletes historical alerts.
func (s *Store) DeleteSignalAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteSignalAlertsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete signal alerts before: %w", execErr)
	}
	return nil
}

func scanPriceSample(row pgx.Row) (PriceSample, error) {
	var (
		coin      string
		bucket    time.Time
		symbol    string
		priceStr  string
		source    string
		createdAt time.Time
	)

	if err := row.Scan(&coin, &bucket, &symbol, &priceStr, &source, &createdAt); err != nil {
		return PriceSample{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return PriceSample{}, fmt.Errorf("parse price usd: %w", err)
	}

	return PriceSample{
		Coin:      market.Coin(coin),
		Bucket:    bucket,
		Symbol:    symbol,
		PriceUSD:  price,
		Source:    source,
		CreatedAt: createdAt,
	}, nil
}

func scanSignalAlert(row pgx.Row) (SignalAlert, error) {
	var (
		rec      SignalAlert
		coin     string
		scoreStr string
		priceStr string
	)

	if err := row.Scan(
		&rec.ID,
		&coin,
		&rec.OccurredAt,
		&rec.PrevLabel,
		&rec.NewLabel,
		&scoreStr,
		&priceStr,
		&rec.CreatedAt,
	); err != nil {
		return SignalAlert{}, err
	}

	var convErr error
	rec.Score, convErr = decimal.NewFromString(scoreStr)
	if convErr != nil {
		return SignalAlert{}, fmt.Errorf("parse score: %w", convErr)
	}
	rec.PriceUSD, convErr = decimal.NewFromString(priceStr)
	if convErr != nil {
		return SignalAlert{}, fmt.Errorf("parse price usd: %w", convErr)
	}
	rec.Coin = market.Coin(coin)

	return rec, nil
}
