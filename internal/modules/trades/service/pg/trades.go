package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/trades/service/pg/trade_store"
	"trade_engine/pkg/db"
)

type Trades struct {
	db    db.TxManager
	store *trade_store.Store
}

// NewTrades instance
func NewTrades(db db.TxManager) *Trades {
	return &Trades{
		db:    db,
		store: trade_store.New(),
	}
}

// Migrate creates the table when missing.
func (r *Trades) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	return r.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			return r.store.Migrate(ctxTx, tx)
		})
}

// Upsert inserts new trades and updates the mutable columns of known ones.
func (r *Trades) Upsert(ctx context.Context, trades ...models.Trade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Upsert: %w", err)
		}
	}()
	if len(trades) == 0 {
		return nil
	}
	return r.db.RunMaster(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			return r.store.Upsert(ctxTx, tx, trades)
		})
}

// OpenBySymbol returns taken and limit trades of a symbol.
func (r *Trades) OpenBySymbol(ctx context.Context, symbol string) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.OpenBySymbol: %w", err)
		}
	}()
	err = r.db.RunReadOnly(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			out, err = r.store.ListOpenBySymbol(ctxTx, tx, symbol)
			return err
		})
	return out, err
}

// Today returns trades opened since local midnight in loc.
func (r *Trades) Today(ctx context.Context, loc *time.Location) (out []models.Trade, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Today: %w", err)
		}
	}()
	now := time.Now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	err = r.db.RunReadOnly(ctx,
		func(ctxTx context.Context, tx pgx.Tx) error {
			out, err = r.store.ListSince(ctxTx, tx, midnight.Unix())
			return err
		})
	return out, err
}
