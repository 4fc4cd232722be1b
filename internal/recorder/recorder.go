package recorder

import "trade_engine/internal/models"

// Run is the summary of one batch replay.
type Run struct {
	Symbol    string
	StartedAt int64
	Candles   int
	Trades    int
	Wins      int
	Losses    int
	Open      int
	ProfitPct float64
	Preset    string // JSON of the preset used
}

// Recorder persists runs and trade changes for later analysis.
type Recorder interface {
	RecordRun(run *Run, trades []models.Trade) (int64, error)
	RecordEvent(ev models.TradeEvent) error
	Close() error
}
