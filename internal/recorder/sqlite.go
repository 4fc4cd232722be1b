package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// SQLite writes runs and trade events to a local database file.
type SQLite struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLite opens (or creates) the database and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLite{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("[REC] sqlite recorder opened: %s", path)
	return r, nil
}

func (r *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			candles     INTEGER,
			trades      INTEGER,
			wins        INTEGER,
			losses      INTEGER,
			open        INTEGER,
			profit_pct  REAL,
			preset      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_trades (
			run_id      INTEGER NOT NULL REFERENCES runs(id),
			trade_id    TEXT NOT NULL,
			type        TEXT,
			status      TEXT,
			start_price REAL,
			target      REAL,
			sl          REAL,
			time        INTEGER,
			end_time    INTEGER,
			PRIMARY KEY (run_id, trade_id)
		)`,
		`CREATE TABLE IF NOT EXISTS trade_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			trade_id    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			status      TEXT,
			payload     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_events_symbol ON trade_events(symbol, recorded_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLite) RecordRun(run *Run, trades []models.Trade) (id int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.Exec(`INSERT INTO runs
		(symbol, started_at, candles, trades, wins, losses, open, profit_pct, preset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Symbol, run.StartedAt, run.Candles, run.Trades, run.Wins, run.Losses, run.Open, run.ProfitPct, run.Preset)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, t := range trades {
		if _, err = tx.Exec(`INSERT INTO run_trades
			(run_id, trade_id, type, status, start_price, target, sl, time, end_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, t.ID.String(), t.Type.String(), t.Status.String(), t.StartPrice, t.Target, t.SL, t.Time, t.EndTime); err != nil {
			return 0, fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (r *SQLite) RecordEvent(ev models.TradeEvent) error {
	payload, err := sonic.MarshalString(ev.Trade)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = r.db.Exec(`INSERT INTO trade_events (recorded_at, kind, trade_id, symbol, status, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.now().Unix(), string(ev.Kind), ev.Trade.ID.String(), ev.Trade.Symbol, ev.Trade.Status.String(), payload)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Events returns how many events were journaled for a trade.
func (r *SQLite) Events(tradeID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM trade_events WHERE trade_id = ?`, tradeID).Scan(&n)
	return n, err
}

func (r *SQLite) Close() error { return r.db.Close() }
