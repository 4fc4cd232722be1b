package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	health "trade_engine/internal/modules/health/service"
	strategy "trade_engine/internal/modules/strategy/service"
	trades "trade_engine/internal/modules/trades/service"
)

type quietNotifier struct{}

func (quietNotifier) SendService(context.Context, string, ...any) {}

type seedCall struct {
	base, companion []models.Candle
	prior           []models.Trade
}

// seedEngine records what it was seeded with.
type seedEngine struct {
	mu    sync.Mutex
	calls map[string]seedCall
}

func (e *seedEngine) OnCandle(models.CandleTick) (strategy.Step, bool) {
	return strategy.Step{Index: -1}, false
}

func (e *seedEngine) Seed(sym string, base, companion []models.Candle, prior []models.Trade) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[sym] = seedCall{base: base, companion: companion, prior: prior}
	return len(base)
}

func (e *seedEngine) LastTimes(string) (int64, int64) { return 0, 0 }
func (e *seedEngine) IsReady(string) bool             { return true }
func (e *seedEngine) Trades(string) []models.Trade    { return nil }
func (e *seedEngine) Dump(string) string              { return "" }
func (e *seedEngine) Name() string                    { return "seed" }

type stubHistory struct {
	fail map[string]bool
	data map[models.Resolution][]models.Candle
}

func (s stubHistory) Series(_ context.Context, sym string, res models.Resolution) (models.Series, error) {
	if s.fail[sym+"/"+res.Duration().String()] {
		return models.EmptySeries(), errors.New("upstream down")
	}
	return models.SeriesFromCandles(s.data[res]), nil
}

func ts(h, m int) int64 { return time.Date(2024, 1, 2, h, m, 0, 0, time.UTC).Unix() }

func setup(t *testing.T, hist stubHistory, symbols ...string) (*Warmuper, *seedEngine, *health.State, trades.Repository) {
	t.Helper()
	eng := &seedEngine{calls: make(map[string]seedCall)}
	hub := strategy.NewHub(&config.Config{Symbols: symbols}, quietNotifier{}, make(chan models.TradeEvent, 1), eng)
	repo := trades.NewMemory()
	state := health.NewState()
	w := newWarmuper(hist, repo, hub, state, quietNotifier{}, 2)
	w.now = func() time.Time { return time.Date(2024, 1, 2, 10, 7, 0, 0, time.UTC) }
	return w, eng, state, repo
}

func history() map[models.Resolution][]models.Candle {
	return map[models.Resolution][]models.Candle{
		models.Resolution5m:  {{T: ts(9, 55)}, {T: ts(10, 0)}, {T: ts(10, 5)}},
		models.Resolution15m: {{T: ts(9, 45)}, {T: ts(10, 0)}},
	}
}

func TestWarmupSeedsClosedHistory(t *testing.T) {
	w, eng, state, repo := setup(t, stubHistory{data: history()}, "AAA", "BBB")

	prior := models.Trade{ID: uuid.New(), Symbol: "AAA", Status: models.StatusTaken, Time: ts(9, 40)}
	require.NoError(t, repo.Upsert(context.Background(), prior))

	require.NoError(t, w.Warmup(context.Background(), []string{"AAA", "BBB"}))
	assert.True(t, state.Ready())
	assert.Equal(t, 2, state.Seeded())

	call := eng.calls["AAA"]
	require.Len(t, call.base, 2)
	assert.Equal(t, ts(10, 0), call.base[1].T)
	require.Len(t, call.companion, 1)
	require.Len(t, call.prior, 1)
	assert.Equal(t, prior.ID, call.prior[0].ID)
	assert.Empty(t, eng.calls["BBB"].prior)
}

func TestWarmupCompanionFailureIsNotFatal(t *testing.T) {
	hist := stubHistory{data: history(), fail: map[string]bool{"AAA/15m0s": true}}
	w, eng, state, _ := setup(t, hist, "AAA")

	require.NoError(t, w.Warmup(context.Background(), []string{"AAA"}))
	assert.Equal(t, 1, state.Seeded())
	assert.Len(t, eng.calls["AAA"].base, 2)
	assert.Empty(t, eng.calls["AAA"].companion)
}

func TestWarmupBaseFailureSkipsSymbol(t *testing.T) {
	hist := stubHistory{data: history(), fail: map[string]bool{"BBB/5m0s": true}}
	w, eng, state, _ := setup(t, hist, "AAA", "BBB")

	err := w.Warmup(context.Background(), []string{"AAA", "BBB"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BBB")
	assert.True(t, state.Ready())
	assert.Equal(t, 1, state.Seeded())
	_, seeded := eng.calls["BBB"]
	assert.False(t, seeded)
}

func TestWarmupNoSymbols(t *testing.T) {
	w, _, state, _ := setup(t, stubHistory{})
	require.NoError(t, w.Warmup(context.Background(), nil))
	assert.True(t, state.Ready())
}
