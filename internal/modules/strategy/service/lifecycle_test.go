package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/models"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestCheckCompletion(t *testing.T) {
	buy := models.Trade{Type: models.TradeBuy, StartPrice: 100, Target: 101, SL: 99}
	sell := models.Trade{Type: models.TradeSell, StartPrice: 100, Target: 99, SL: 101}

	// a candle touching both resolves as profit
	assert.Equal(t, models.StatusProfit, CheckCompletion(buy, []models.Candle{{H: 101.5, L: 98.5}}))
	assert.Equal(t, models.StatusLoss, CheckCompletion(buy, []models.Candle{{H: 100.5, L: 98.9}}))
	assert.Equal(t, models.StatusUnchanged, CheckCompletion(buy, []models.Candle{{H: 100.5, L: 99.5}}))

	assert.Equal(t, models.StatusProfit, CheckCompletion(sell, []models.Candle{{H: 100, L: 99}}))
	assert.Equal(t, models.StatusLoss, CheckCompletion(sell, []models.Candle{{H: 101.2, L: 99.5}}))

	// touching a level exactly resolves
	assert.Equal(t, models.StatusProfit, CheckCompletion(buy, []models.Candle{{H: 101, L: 99.5}}))
	assert.Equal(t, models.StatusLoss, CheckCompletion(buy, []models.Candle{{H: 100.5, L: 99}}))
	assert.Equal(t, models.StatusProfit, CheckCompletion(sell, []models.Candle{{H: 100.5, L: 99}}))
	assert.Equal(t, models.StatusLoss, CheckCompletion(sell, []models.Candle{{H: 101, L: 99.5}}))

	// first resolution wins
	seq := []models.Candle{{H: 100.2, L: 99.8}, {H: 100.3, L: 98.7}, {H: 102, L: 100}}
	assert.Equal(t, models.StatusLoss, CheckCompletion(buy, seq))

	malformed := buy
	malformed.StartPrice = 0
	assert.Equal(t, models.StatusUnchanged, CheckCompletion(malformed, seq))
	assert.Equal(t, models.StatusUnchanged, CheckCompletion(buy, nil))
}

func TestOpenTradeMath(t *testing.T) {
	p := models.DefaultPreset()
	cs := []models.Candle{{T: 1_700_000_100, O: 101, H: 102.5, L: 100.5, C: 102}}

	b := openTrade("TEST", models.TradeBuy, cs, 0, p)
	assert.Equal(t, models.StatusTaken, b.Status)
	assert.Equal(t, 102.0, b.StartPrice)
	assert.InDelta(t, 103.428, b.Target, 1e-9)
	assert.InDelta(t, 101.286, b.SL, 1e-9)
	assert.Equal(t, -1, b.LimitIndex)
	assert.Equal(t, 0, b.FillIndex)
	assert.Equal(t, -1, b.EndIndex)
	assert.Equal(t, 102.5, b.High)
	assert.Equal(t, 100.5, b.Low)

	s := openTrade("TEST", models.TradeSell, cs, 0, p)
	assert.InDelta(t, 100.572, s.Target, 1e-9)
	assert.InDelta(t, 102.714, s.SL, 1e-9)
	assert.NotEqual(t, b.ID, s.ID)
}

func TestOpenTradeLimit(t *testing.T) {
	p := models.DefaultPreset()
	p.LimitOffsetPercent = 1
	cs := []models.Candle{{T: 1_700_000_100, O: 101, H: 102.5, L: 100.5, C: 102}}

	b := openTrade("TEST", models.TradeBuy, cs, 0, p)
	assert.Equal(t, models.StatusLimit, b.Status)
	assert.InDelta(t, 100.98, b.StartPrice, 1e-9)
	assert.Equal(t, 0, b.LimitIndex)
	assert.Equal(t, cs[0].T, b.LimitTime)
	assert.Equal(t, -1, b.FillIndex)
	assert.Zero(t, b.High)

	s := openTrade("TEST", models.TradeSell, cs, 0, p)
	assert.InDelta(t, 103.02, s.StartPrice, 1e-9)
}

func TestAdvanceTradeLimitFill(t *testing.T) {
	p := models.DefaultPreset()
	p.LimitOffsetPercent = 1
	cs := []models.Candle{
		{T: 100, O: 101, H: 102.5, L: 100.5, C: 102},
		{T: 200, H: 102, L: 101.5},
		{T: 300, H: 101.5, L: 100.5},
		{T: 400, H: 102.5, L: 101},
		{T: 500, H: 90, L: 80},
	}
	tr := openTrade("TEST", models.TradeBuy, cs, 0, p)

	assert.False(t, advanceTrade(&tr, cs, 1, 10))
	assert.Equal(t, models.StatusLimit, tr.Status)

	require.True(t, advanceTrade(&tr, cs, 2, 10))
	assert.Equal(t, models.StatusTaken, tr.Status)
	assert.Equal(t, 2, tr.FillIndex)
	assert.Equal(t, int64(300), tr.FillTime)
	assert.Equal(t, 101.5, tr.High)
	assert.Equal(t, 100.5, tr.Low)

	// replaying the fill index is a no-op
	assert.False(t, advanceTrade(&tr, cs, 2, 10))

	require.True(t, advanceTrade(&tr, cs, 3, 10))
	assert.Equal(t, models.StatusProfit, tr.Status)
	assert.Equal(t, 3, tr.EndIndex)
	assert.Equal(t, int64(400), tr.EndTime)
	assert.Equal(t, 102.5, tr.High)

	assert.False(t, advanceTrade(&tr, cs, 4, 10))
}

func TestAdvanceTradeFillCandleHitsStop(t *testing.T) {
	p := models.DefaultPreset()
	p.LimitOffsetPercent = 1
	cs := []models.Candle{
		{T: 100, O: 101, H: 102.5, L: 100.5, C: 102},
		{T: 200, H: 101.5, L: 100},
		{T: 300, H: 101.2, L: 100.8},
	}
	tr := openTrade("TEST", models.TradeBuy, cs, 0, p)

	require.True(t, advanceTrade(&tr, cs, 1, 10))
	require.Equal(t, models.StatusTaken, tr.Status)

	require.True(t, advanceTrade(&tr, cs, 2, 10))
	assert.Equal(t, models.StatusLoss, tr.Status)
	assert.Equal(t, 1, tr.EndIndex)
	assert.Equal(t, int64(200), tr.EndTime)
}

func TestAdvanceTradeEntryCandle(t *testing.T) {
	p := models.DefaultPreset()
	p.LimitOffsetPercent = 0
	p.TargetProfitPercent, p.StopLossPercent = 1.4, 0.7

	flat := func(ts int64) models.Candle { return models.Candle{T: ts, O: 100, H: 100.1, L: 99.9, C: 100} }

	t.Run("stop inside entry candle", func(t *testing.T) {
		cs := []models.Candle{flat(100), {T: 200, O: 100, H: 100.1, L: 99.0, C: 100}, flat(300), flat(400)}
		tr := openTrade("TEST", models.TradeBuy, cs, 1, p)
		require.Equal(t, models.StatusTaken, tr.Status)
		require.InDelta(t, 99.3, tr.SL, 1e-9)

		require.True(t, advanceTrade(&tr, cs, 2, 10))
		assert.Equal(t, models.StatusLoss, tr.Status)
		assert.Equal(t, 1, tr.EndIndex)
		assert.Equal(t, int64(200), tr.EndTime)

		assert.False(t, advanceTrade(&tr, cs, 3, 10))
	})

	t.Run("profit checked before loss", func(t *testing.T) {
		cs := []models.Candle{flat(100), {T: 200, O: 100, H: 101.5, L: 99.0, C: 100}, flat(300)}
		tr := openTrade("TEST", models.TradeBuy, cs, 1, p)

		require.True(t, advanceTrade(&tr, cs, 2, 10))
		assert.Equal(t, models.StatusProfit, tr.Status)
		assert.Equal(t, 1, tr.EndIndex)
	})

	t.Run("quiet entry candle", func(t *testing.T) {
		cs := []models.Candle{flat(100), flat(200), flat(300), {T: 400, O: 100, H: 100.2, L: 99.2, C: 99.5}}
		tr := openTrade("TEST", models.TradeSell, cs, 1, p)

		assert.False(t, advanceTrade(&tr, cs, 2, 10))
		assert.Equal(t, models.StatusTaken, tr.Status)
		assert.False(t, advanceTrade(&tr, cs, 3, 10))
		assert.Equal(t, 99.2, tr.Low)
	})
}

func TestAdvanceTradeLimitCancel(t *testing.T) {
	p := models.DefaultPreset()
	p.LimitOffsetPercent = 1
	cs := make([]models.Candle, 12)
	cs[0] = models.Candle{T: 100, O: 101, H: 102.5, L: 100.5, C: 102}
	for i := 1; i < len(cs); i++ {
		cs[i] = models.Candle{T: int64(100 * (i + 1)), H: 105, L: 104}
	}
	tr := openTrade("TEST", models.TradeBuy, cs, 0, p)

	assert.False(t, advanceTrade(&tr, cs, 10, 10))
	require.True(t, advanceTrade(&tr, cs, 11, 10))
	assert.Equal(t, models.StatusCancelled, tr.Status)
	assert.Equal(t, 11, tr.EndIndex)
}

func TestNearestLevel(t *testing.T) {
	strong := []Range{
		{Min: 105, Max: 106},
		{Min: 110, Max: 111},
		{Min: 95, Max: 96},
		{Min: 90, Max: 91},
	}
	l, ok := nearestLevel(models.TradeBuy, 100, strong)
	require.True(t, ok)
	assert.Equal(t, 105.0, l)

	// the support closest below wins, not the lowest
	l, ok = nearestLevel(models.TradeSell, 100, strong)
	require.True(t, ok)
	assert.Equal(t, 96.0, l)

	// inside a range the far edge counts
	l, _ = nearestLevel(models.TradeBuy, 105.5, strong)
	assert.Equal(t, 106.0, l)
	l, _ = nearestLevel(models.TradeSell, 95.5, strong)
	assert.Equal(t, 95.0, l)

	_, ok = nearestLevel(models.TradeBuy, 120, strong)
	assert.False(t, ok)
}

// five alternating candles from 10:00 local
func admissionCandles(hour int) []models.Candle {
	start := time.Date(2024, 1, 2, hour, 0, 0, 0, ist).Unix()
	cs := make([]models.Candle, 5)
	for k := range cs {
		c := models.Candle{T: start + int64(k*300), O: 100, C: 100.1, H: 100.2, L: 99.9}
		if k%2 == 1 {
			c.O, c.C = 100.1, 100
		}
		cs[k] = c
	}
	return cs
}

func TestAdmit(t *testing.T) {
	p := models.DefaultPreset()
	a := admission{candles: admissionCandles(10), i: 4, preset: p, loc: ist}

	assert.Equal(t, models.DecisionOpened, a.admit(models.TradeBuy))

	a.trades = []models.Trade{{Type: models.TradeBuy, Status: models.StatusTaken}}
	assert.Equal(t, models.DecisionSameDirection, a.admit(models.TradeBuy))
	assert.Equal(t, models.DecisionOpened, a.admit(models.TradeSell))

	a.trades = []models.Trade{{Type: models.TradeBuy, Status: models.StatusProfit}}
	assert.Equal(t, models.DecisionOpened, a.admit(models.TradeBuy))

	late := admission{candles: admissionCandles(15), i: 4, preset: p, loc: ist}
	assert.Equal(t, models.DecisionOutsideHours, late.admit(models.TradeBuy))
}

func TestAdmitColourAndLateMove(t *testing.T) {
	p := models.DefaultPreset()

	green := admissionCandles(10)
	for k := range green {
		green[k].O, green[k].C = 100, 100.1
	}
	a := admission{candles: green, i: 4, preset: p, loc: ist}
	assert.Equal(t, models.DecisionExhausted, a.admit(models.TradeBuy))
	assert.Equal(t, models.DecisionOpened, a.admit(models.TradeSell))

	moved := admissionCandles(10)
	moved[1].O = 98
	b := admission{candles: moved, i: 4, preset: p, loc: ist}
	assert.Equal(t, models.DecisionLateMove, b.admit(models.TradeBuy))
}
