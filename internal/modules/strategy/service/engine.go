package service

import (
	"sync"

	"trade_engine/internal/helper"
	"trade_engine/internal/indicator"
	"trade_engine/internal/models"
)

// Input is one batch evaluation of a symbol.
type Input struct {
	Symbol             string
	Base               models.Series
	Companion          models.Series
	Preset             models.Preset
	TakeOneRecentTrade bool
	Prior              []models.Trade
}

func emptyResult() Result {
	return Result{
		Trades:     []models.Trade{},
		Analytics:  []models.Analytics{},
		Indicators: []indicator.Snapshot{},
	}
}

// TakeTrades replays the base series through a fresh session. With
// TakeOneRecentTrade only the last candle is evaluated; otherwise decisions
// start after the preset warm-up. Invalid input yields an empty result.
func TakeTrades(in Input) Result {
	base := in.Base.Candles()
	if len(base) == 0 {
		return emptyResult()
	}
	start := -1
	if in.TakeOneRecentTrade {
		start = len(base) - 1
	}

	s := NewSession(in.Symbol, in.Preset, start)
	for _, c := range models.TruncateCompanion(base, baseRes, in.Companion.Candles(), companionRes) {
		s.AppendCompanion(c)
	}
	s.Restore(in.Prior)
	for _, c := range base {
		s.Append(c)
	}
	return s.Result()
}

// SessionEngine keeps one Session per symbol for live candles.
type SessionEngine struct {
	presets PresetSource
	mu      sync.Mutex
	st      map[string]*slot
}

type slot struct {
	mu sync.Mutex
	s  *Session
}

func NewSessionEngine(presets PresetSource) *SessionEngine {
	return &SessionEngine{
		presets: presets,
		st:      make(map[string]*slot),
	}
}

func (e *SessionEngine) get(sym string) *slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sl, ok := e.st[sym]; ok {
		return sl
	}
	sl := &slot{s: NewSession(sym, e.presets.For(sym), -1)}
	e.st[sym] = sl
	return sl
}

func (e *SessionEngine) lookup(sym string) (*slot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sl, ok := e.st[sym]
	return sl, ok
}

// OnCandle accepts closed 5m and 15m candles. A 15m candle must arrive
// before the 5m candle that closes with it.
func (e *SessionEngine) OnCandle(t models.CandleTick) (Step, bool) {
	none := Step{Index: -1}
	// garbage guard
	if t.C <= 0 || t.H <= 0 || t.L <= 0 {
		return none, false
	}

	res, ok := helper.ResolutionOf(t.TimeframeRaw)
	if !ok {
		return none, false
	}
	sl := e.get(t.InstID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	switch res {
	case companionRes:
		sl.s.AppendCompanion(t.Candle)
		return none, false
	case baseRes:
		wasReady := sl.s.Ready()
		step := sl.s.Append(t.Candle)
		return step, !wasReady && sl.s.Ready()
	}
	return none, false
}

func (e *SessionEngine) Seed(symbol string, base, companion []models.Candle, prior []models.Trade) int {
	s := NewSession(symbol, e.presets.For(symbol), len(base))
	for _, c := range models.TruncateCompanion(base, baseRes, companion, companionRes) {
		s.AppendCompanion(c)
	}
	s.Restore(prior)
	for _, c := range base {
		s.Append(c)
	}

	e.mu.Lock()
	e.st[symbol] = &slot{s: s}
	e.mu.Unlock()
	return s.Len()
}

func (e *SessionEngine) IsReady(symbol string) bool {
	sl, ok := e.lookup(symbol)
	if !ok {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.s.Ready()
}

func (e *SessionEngine) Trades(symbol string) []models.Trade {
	sl, ok := e.lookup(symbol)
	if !ok {
		return nil
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.s.Trades()
}

// LastTimes are the start times of the newest base and companion candles,
// 0 when none was seen.
func (e *SessionEngine) LastTimes(symbol string) (base, companion int64) {
	sl, ok := e.lookup(symbol)
	if !ok {
		return 0, 0
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if n := len(sl.s.times); n > 0 {
		base = sl.s.times[n-1]
	}
	if n := len(sl.s.companion); n > 0 {
		companion = sl.s.companion[n-1].T
	}
	return base, companion
}

func (e *SessionEngine) Name() string { return "sr_fusion_5m15m" }

func (e *SessionEngine) Dump(symbol string) string {
	sl, ok := e.lookup(symbol)
	if !ok {
		return "engine: no state"
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.s.Dump()
}
