package service

import "trade_engine/internal/models"

type Engine interface {
	// OnCandle routes one closed candle to its symbol. step.Index is -1 when
	// the candle was not a base candle or was dropped.
	// becameReady==true on the candle that completes the symbol's warm-up.
	OnCandle(t models.CandleTick) (step Step, becameReady bool)

	// Seed replaces the symbol state with history. Decisions start with the
	// first candle after the seeded history.
	Seed(symbol string, base, companion []models.Candle, prior []models.Trade) int

	// LastTimes are the newest base and companion start times, 0 if unseen.
	LastTimes(symbol string) (base, companion int64)

	IsReady(symbol string) bool
	Trades(symbol string) []models.Trade
	Dump(symbol string) string
	Name() string
}

// PresetSource resolves the strategy preset for a symbol.
type PresetSource interface {
	For(symbol string) models.Preset
}
