package trade_store

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"trade_engine/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id          UUID PRIMARY KEY,
	symbol      TEXT NOT NULL,
	type        TEXT NOT NULL,
	status      TEXT NOT NULL,
	start_price DOUBLE PRECISION NOT NULL,
	target      DOUBLE PRECISION NOT NULL,
	sl          DOUBLE PRECISION NOT NULL,
	time        BIGINT NOT NULL,
	limit_time  BIGINT NOT NULL DEFAULT 0,
	fill_time   BIGINT NOT NULL DEFAULT 0,
	end_time    BIGINT NOT NULL DEFAULT 0,
	trade_high  DOUBLE PRECISION NOT NULL DEFAULT 0,
	trade_low   DOUBLE PRECISION NOT NULL DEFAULT 0,
	analytics   JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS trades_symbol_status_idx ON trades (symbol, status);
CREATE INDEX IF NOT EXISTS trades_time_idx ON trades (time);
`

const upsertSQL = `
INSERT INTO trades (id, symbol, type, status, start_price, target, sl, time,
	limit_time, fill_time, end_time, trade_high, trade_low, analytics)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET
	status     = EXCLUDED.status,
	fill_time  = EXCLUDED.fill_time,
	end_time   = EXCLUDED.end_time,
	trade_high = EXCLUDED.trade_high,
	trade_low  = EXCLUDED.trade_low,
	updated_at = now()`

const selectColumns = `SELECT id, symbol, type, status, start_price, target, sl, time,
	limit_time, fill_time, end_time, trade_high, trade_low, analytics FROM trades`

// Store implements the trades table on a transaction.
type Store struct{}

// New instance
func New() *Store {
	return &Store{}
}

func (s *Store) Migrate(ctx context.Context, tx pgx.Tx) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Migrate: %w", err)
		}
	}()
	_, err = tx.Exec(ctx, schema)
	return err
}

func (s *Store) Upsert(ctx context.Context, tx pgx.Tx, trades []models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Upsert: %w", err)
		}
	}()

	b := &pgx.Batch{}
	for _, t := range trades {
		var analytics []byte
		analytics, err = sonic.Marshal(t.Analytics)
		if err != nil {
			return err
		}
		b.Queue(upsertSQL,
			t.ID, t.Symbol, t.Type.String(), t.Status.String(), t.StartPrice, t.Target, t.SL, t.Time,
			t.LimitTime, t.FillTime, t.EndTime, t.High, t.Low, analytics,
		)
	}

	br := tx.SendBatch(ctx, b)
	defer func() {
		if cerr := br.Close(); err == nil {
			err = cerr
		}
	}()
	for range trades {
		if _, err = br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListOpenBySymbol(ctx context.Context, tx pgx.Tx, symbol string) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.ListOpenBySymbol: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, selectColumns+` WHERE symbol = $1 AND status IN ($2, $3) ORDER BY time`,
		symbol, models.StatusTaken.String(), models.StatusLimit.String())
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (s *Store) ListSince(ctx context.Context, tx pgx.Tx, since int64) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.ListSince: %w", err)
		}
	}()
	rows, err := tx.Query(ctx, selectColumns+` WHERE time >= $1 ORDER BY time`, since)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Trade, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Trade, error) {
		var (
			t           models.Trade
			id          uuid.UUID
			typ, status string
			analytics   []byte
		)
		err := row.Scan(&id, &t.Symbol, &typ, &status, &t.StartPrice, &t.Target, &t.SL, &t.Time,
			&t.LimitTime, &t.FillTime, &t.EndTime, &t.High, &t.Low, &analytics)
		if err != nil {
			return t, err
		}
		t.ID = id
		if t.Type, err = models.ParseTradeType(typ); err != nil {
			return t, err
		}
		if t.Status, err = models.ParseTradeStatus(status); err != nil {
			return t, err
		}
		if len(analytics) > 0 {
			if err = sonic.Unmarshal(analytics, &t.Analytics); err != nil {
				return t, err
			}
		}
		t.LimitIndex, t.FillIndex, t.EndIndex = -1, -1, -1
		return t, nil
	})
}
