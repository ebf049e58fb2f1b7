package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"CurveFeed/internal/domain/models"
	"CurveFeed/internal/domain/repository"
)

const (
	upsertSnapshotSQL = `
		INSERT INTO yield_curve_data
			(country, data_date, rates, source, currency, count, spread_10y_2y, inverted, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (country, data_date) DO UPDATE SET
			rates = EXCLUDED.rates,
			source = EXCLUDED.source,
			currency = EXCLUDED.currency,
			count = EXCLUDED.count,
			spread_10y_2y = EXCLUDED.spread_10y_2y,
			inverted = EXCLUDED.inverted,
			updated_at = NOW()`

	latestSnapshotSQL = `
		SELECT country, to_char(data_date, 'YYYY-MM-DD'), rates, source
		FROM yield_curve_data
		WHERE country = $1
		ORDER BY data_date DESC
		LIMIT 1`

	closestBeforeSQL = `
		SELECT country, to_char(data_date, 'YYYY-MM-DD'), rates, source
		FROM yield_curve_data
		WHERE country = $1 AND data_date <= $2
		ORDER BY data_date DESC
		LIMIT 1`

	rangeSQL = `
		SELECT to_char(data_date, 'YYYY-MM-DD'), rates, source
		FROM yield_curve_data
		WHERE country = $1 AND data_date >= $2
		ORDER BY data_date ASC`
)

// PostgresSnapshotStore persists one curve row per (country, data_date),
// with the rates list as JSONB. Spread and inversion are stored too so
// history queries don't have to rebuild them per row.
type PostgresSnapshotStore struct {
	pool *pgxpool.Pool
}

func NewPostgresSnapshotStore(pool *pgxpool.Pool) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{pool: pool}
}

func (s *PostgresSnapshotStore) Upsert(ctx context.Context, country models.Country, snap *models.YieldCurveSnapshot) error {
	snap.RecomputeSpread()

	rates, err := json.Marshal(snap.Rates)
	if err != nil {
		return fmt.Errorf("marshal rates: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertSnapshotSQL,
		string(country), snap.Date, rates, snap.Source, snap.Currency, snap.Count,
		snap.Spread10Y2Y, snap.Inverted)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s/%s: %w", country, snap.Date, err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Latest(ctx context.Context, country models.Country) (*models.YieldCurveSnapshot, error) {
	return s.querySnapshot(ctx, latestSnapshotSQL, string(country))
}

func (s *PostgresSnapshotStore) ClosestBefore(ctx context.Context, country models.Country, day string) (*models.YieldCurveSnapshot, error) {
	return s.querySnapshot(ctx, closestBeforeSQL, string(country), day)
}

func (s *PostgresSnapshotStore) querySnapshot(ctx context.Context, sql string, args ...any) (*models.YieldCurveSnapshot, error) {
	var (
		country  string
		dataDate string
		rates    []byte
		source   string
	)
	err := s.pool.QueryRow(ctx, sql, args...).Scan(&country, &dataDate, &rates, &source)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap := &models.YieldCurveSnapshot{
		Country:  country,
		Currency: models.Country(country).Currency(),
		Source:   source,
		Date:     dataDate,
	}
	if err := json.Unmarshal(rates, &snap.Rates); err != nil {
		return nil, fmt.Errorf("unmarshal rates: %w", err)
	}
	snap.RecomputeSpread()
	return snap, nil
}

func (s *PostgresSnapshotStore) Range(ctx context.Context, country models.Country, since string) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, rangeSQL, string(country), since)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var (
			dataDate string
			rates    []byte
			source   string
		)
		if err := rows.Scan(&dataDate, &rates, &source); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}

		entry := models.HistoryEntry{Date: dataDate, Source: source}
		if err := json.Unmarshal(rates, &entry.Rates); err != nil {
			return nil, fmt.Errorf("unmarshal rates: %w", err)
		}

		snap := models.YieldCurveSnapshot{Rates: entry.Rates}
		snap.RecomputeSpread()
		entry.Spread10Y2Y = snap.Spread10Y2Y
		entry.Inverted = snap.Inverted

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresSnapshotStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// NoopSnapshotStore stands in when no database is configured: every lookup
// misses and every write succeeds, so the service degrades to live fetching.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) Upsert(context.Context, models.Country, *models.YieldCurveSnapshot) error {
	return nil
}

func (NoopSnapshotStore) Latest(context.Context, models.Country) (*models.YieldCurveSnapshot, error) {
	return nil, nil
}

func (NoopSnapshotStore) ClosestBefore(context.Context, models.Country, string) (*models.YieldCurveSnapshot, error) {
	return nil, nil
}

func (NoopSnapshotStore) Range(context.Context, models.Country, string) ([]models.HistoryEntry, error) {
	return nil, nil
}

func (NoopSnapshotStore) Ping(context.Context) error { return nil }

var _ repository.SnapshotStore = (*PostgresSnapshotStore)(nil)
var _ repository.SnapshotStore = NoopSnapshotStore{}
