package service

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/models"
)

type fixedPresets struct{ p models.Preset }

func (f fixedPresets) For(string) models.Preset { return f.p }

func testPreset() models.Preset {
	p := models.DefaultPreset()
	p.Warmup = 50
	p.VPointOffset = 4
	p.Indicators = models.Toggles{
		models.IndicatorSR:       true,
		models.IndicatorSR15m:    true,
		models.IndicatorMACD:     true,
		models.IndicatorBreakout: true,
		models.IndicatorSMA:      true,
	}
	return p
}

// tradingPreset votes on RSI alone around the clock so the wave series
// opens trades.
func tradingPreset() models.Preset {
	p := testPreset()
	p.Indicators = models.Toggles{models.IndicatorRSI: true}
	p.DecisionMakingPoints = 1
	p.UseSupportResistances = false
	p.TradeFrom, p.TradeUntil = "00:00", "23:59"
	return p
}

// waveCandles starts at 09:15 local and steps 5 minutes.
func waveCandles(n int) []models.Candle {
	start := time.Date(2024, 1, 2, 9, 15, 0, 0, ist).Unix()
	out := make([]models.Candle, n)
	for i := range out {
		base := 100 + 2*math.Sin(float64(i)/6) + 0.5*math.Sin(float64(i)/2.3)
		o := base + 0.15*math.Sin(float64(i))
		c := base + 0.15*math.Cos(float64(i)/1.7)
		out[i] = models.Candle{
			T: start + int64(i*300),
			O: o,
			C: c,
			H: math.Max(o, c) + 0.1,
			L: math.Min(o, c) - 0.1,
			V: 1000 + 100*math.Abs(math.Sin(float64(i)/5)),
		}
	}
	return out
}

func aggregate(cs []models.Candle, k int) []models.Candle {
	var out []models.Candle
	for i := 0; i+k <= len(cs); i += k {
		g := cs[i : i+k]
		c := models.Candle{T: g[0].T, O: g[0].O, C: g[k-1].C, H: g[0].H, L: g[0].L}
		for _, x := range g {
			c.H = math.Max(c.H, x.H)
			c.L = math.Min(c.L, x.L)
			c.V += x.V
		}
		out = append(out, c)
	}
	return out
}

func withoutIDs(ts []models.Trade) []models.Trade {
	out := make([]models.Trade, len(ts))
	for k, t := range ts {
		t.ID = uuid.Nil
		out[k] = t
	}
	return out
}

func TestTakeTradesEmptyInput(t *testing.T) {
	res := TakeTrades(Input{Symbol: "AAA", Base: models.EmptySeries(), Preset: testPreset()})
	assert.NotNil(t, res.Trades)
	assert.Empty(t, res.Trades)
	assert.NotNil(t, res.Analytics)
	assert.Empty(t, res.Analytics)
	assert.Empty(t, res.Indicators)

	bad := models.Series{Status: "ok", T: []int64{1, 2}, C: []float64{1}}
	assert.Empty(t, TakeTrades(Input{Base: bad, Preset: testPreset()}).Analytics)
}

func TestTakeTradesEvaluatesAfterWarmup(t *testing.T) {
	base := waveCandles(200)
	res := TakeTrades(Input{
		Symbol:    "AAA",
		Base:      models.SeriesFromCandles(base),
		Companion: models.SeriesFromCandles(aggregate(base, 3)),
		Preset:    testPreset(),
	})
	require.Len(t, res.Analytics, 150)
	assert.Equal(t, 50, res.Analytics[0].Index)
	assert.Equal(t, base[50].T, res.Analytics[0].Time)
	assert.Len(t, res.Indicators, 200)

	for _, tr := range res.Trades {
		assert.GreaterOrEqual(t, tr.StartIndex, 50)
		assert.Equal(t, "AAA", tr.Symbol)
		assert.Equal(t, models.DecisionOpened, tr.Analytics.Decision)
	}
}

func TestTakeTradesOneRecent(t *testing.T) {
	base := waveCandles(120)
	res := TakeTrades(Input{
		Symbol:             "AAA",
		Base:               models.SeriesFromCandles(base),
		Preset:             testPreset(),
		TakeOneRecentTrade: true,
	})
	require.Len(t, res.Analytics, 1)
	assert.Equal(t, 119, res.Analytics[0].Index)
}

func TestTakeTradesDeterministic(t *testing.T) {
	base := waveCandles(240)
	in := Input{
		Symbol:    "AAA",
		Base:      models.SeriesFromCandles(base),
		Companion: models.SeriesFromCandles(aggregate(base, 3)),
		Preset:    testPreset(),
	}
	a, b := TakeTrades(in), TakeTrades(in)
	assert.Equal(t, withoutIDs(a.Trades), withoutIDs(b.Trades))
	assert.Equal(t, a.Analytics, b.Analytics)
}

func TestEngineMatchesBatchReplay(t *testing.T) {
	base := waveCandles(240)
	companion := aggregate(base, 3)
	p := tradingPreset()

	batch := TakeTrades(Input{
		Symbol:    "AAA",
		Base:      models.SeriesFromCandles(base),
		Companion: models.SeriesFromCandles(companion),
		Preset:    p,
	})
	require.NotEmpty(t, batch.Trades)

	eng := NewSessionEngine(fixedPresets{p})
	for _, c := range companion {
		eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "15m", Candle: c})
	}
	var analytics []models.Analytics
	for _, c := range base {
		step, _ := eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "5m", Candle: c})
		if step.Analytics != nil {
			analytics = append(analytics, *step.Analytics)
		}
	}

	assert.Equal(t, withoutIDs(batch.Trades), withoutIDs(eng.Trades("AAA")))
	assert.Equal(t, batch.Analytics, analytics)
}

// choppyThenDip alternates closes between 100 and 100.1 from 09:30 local,
// then drops 0.25 on the last candle. RSI(8) sits near 50 until the dip
// takes it under 40.
func choppyThenDip(n int) []models.Candle {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, ist).Unix()
	out := make([]models.Candle, 0, n+1)
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 0.1*float64(i%2)
		out = append(out, models.Candle{
			T: start + int64(i*300),
			O: prev,
			C: c,
			H: math.Max(prev, c) + 0.02,
			L: math.Min(prev, c) - 0.02,
			V: 1000,
		})
		prev = c
	}
	return append(out, models.Candle{T: start + int64(n*300), O: prev, C: prev - 0.25, H: prev, L: prev - 0.3, V: 1000})
}

func TestTakeTradesOversoldDip(t *testing.T) {
	p := models.DefaultPreset()
	p.Warmup = 20
	p.Indicators = models.Toggles{models.IndicatorRSI: true, models.IndicatorSR: true}
	p.DecisionMakingPoints = 1
	p.UseSupportResistances = false
	p.TargetProfitPercent, p.StopLossPercent = 1.4, 0.7

	t.Run("target reached", func(t *testing.T) {
		base := choppyThenDip(40)
		base = append(base, models.Candle{T: base[40].T + 300, O: 99.85, H: 101.3, L: 99.8, C: 101.2, V: 1000})

		res := TakeTrades(Input{Symbol: "AAA", Base: models.SeriesFromCandles(base), Preset: p})
		require.Len(t, res.Trades, 1)
		tr := res.Trades[0]
		assert.Equal(t, models.TradeBuy, tr.Type)
		assert.Equal(t, 40, tr.StartIndex)
		assert.InDelta(t, 99.85, tr.StartPrice, 1e-9)
		assert.InDelta(t, 101.2479, tr.Target, 1e-9)
		assert.InDelta(t, 99.15105, tr.SL, 1e-9)
		assert.Equal(t, models.SignalBuy, tr.Analytics.Signals[models.IndicatorRSI])
		assert.Equal(t, models.StatusProfit, tr.Status)
		assert.Equal(t, 41, tr.EndIndex)
	})

	t.Run("no level leaves room", func(t *testing.T) {
		q := p
		q.UseSupportResistances = true
		q.VPointOffset = 30

		res := TakeTrades(Input{Symbol: "AAA", Base: models.SeriesFromCandles(choppyThenDip(40)), Preset: q})
		require.Len(t, res.Trades, 1)
		a := res.Trades[0].Analytics
		assert.Equal(t, models.DecisionOpened, a.Decision)
		assert.InDelta(t, 1.3979, a.TargetProfit, 1e-9)
		assert.Equal(t, a.TargetProfit, a.PossibleProfit)
		assert.Zero(t, a.NearestResistance)
	})

	t.Run("stop inside entry candle", func(t *testing.T) {
		base := choppyThenDip(40)
		base[40].L = 99.0
		for k := 1; k <= 3; k++ {
			base = append(base, models.Candle{T: base[40].T + int64(k*300), O: 99.85, H: 99.9, L: 99.8, C: 99.85, V: 1000})
		}

		res := TakeTrades(Input{Symbol: "AAA", Base: models.SeriesFromCandles(base), Preset: p})
		require.NotEmpty(t, res.Trades)
		tr := res.Trades[0]
		assert.Equal(t, 40, tr.StartIndex)
		assert.Equal(t, models.StatusLoss, tr.Status)
		assert.Equal(t, 40, tr.EndIndex)
		assert.Equal(t, base[40].T, tr.EndTime)
	})
}

func TestEngineRouting(t *testing.T) {
	p := testPreset()
	p.Warmup = 5
	eng := NewSessionEngine(fixedPresets{p})
	cs := waveCandles(10)

	step, ready := eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "15m", Candle: cs[0]})
	assert.Equal(t, -1, step.Index)
	assert.False(t, ready)

	step, _ = eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "1d", Candle: cs[0]})
	assert.Equal(t, -1, step.Index)

	garbage := cs[0]
	garbage.C = 0
	step, _ = eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "5m", Candle: garbage})
	assert.Equal(t, -1, step.Index)

	for k := 0; k < 5; k++ {
		step, ready = eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "candle5m", Candle: cs[k]})
		assert.Equal(t, k, step.Index)
		assert.Equal(t, k == 4, ready, "candle %d", k)
	}
	assert.True(t, eng.IsReady("AAA"))
	assert.False(t, eng.IsReady("BBB"))

	// not advancing in time
	step, _ = eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "5m", Candle: cs[4]})
	assert.Equal(t, -1, step.Index)

	step, _ = eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "5m", Candle: cs[5]})
	assert.Equal(t, 5, step.Index)
	require.NotNil(t, step.Analytics)

	b, c := eng.LastTimes("AAA")
	assert.Equal(t, cs[5].T, b)
	assert.Equal(t, cs[0].T, c)
	b, c = eng.LastTimes("BBB")
	assert.Zero(t, b)
	assert.Zero(t, c)
	assert.Contains(t, eng.Dump("AAA"), "AAA candles=6/5")
}

func TestEngineSeedStartsAfterHistory(t *testing.T) {
	base := waveCandles(120)
	eng := NewSessionEngine(fixedPresets{testPreset()})

	n := eng.Seed("AAA", base[:100], aggregate(base[:100], 3), nil)
	assert.Equal(t, 100, n)
	assert.True(t, eng.IsReady("AAA"))

	step, ready := eng.OnCandle(models.CandleTick{InstID: "AAA", TimeframeRaw: "5m", Candle: base[100]})
	assert.False(t, ready)
	assert.Equal(t, 100, step.Index)
	require.NotNil(t, step.Analytics)
	assert.Equal(t, 100, step.Analytics.Index)
}

func TestRestoreAnchorsPriorTrades(t *testing.T) {
	base := waveCandles(80)
	prior := models.Trade{
		ID:         uuid.New(),
		Symbol:     "AAA",
		Type:       models.TradeBuy,
		Status:     models.StatusTaken,
		StartPrice: base[10].C,
		Target:     1e9,
		SL:         1e-9,
		Time:       base[10].T,
	}
	future := prior
	future.ID = uuid.New()
	future.Time = base[79].T + 3600

	p := testPreset()
	res := TakeTrades(Input{
		Symbol: "AAA",
		Base:   models.SeriesFromCandles(base),
		Preset: p,
		Prior:  []models.Trade{prior, future},
	})

	var got, pending *models.Trade
	for k := range res.Trades {
		switch res.Trades[k].ID {
		case prior.ID:
			got = &res.Trades[k]
		case future.ID:
			pending = &res.Trades[k]
		}
	}
	require.NotNil(t, got)
	require.NotNil(t, pending)

	assert.Equal(t, 10, got.StartIndex)
	assert.Equal(t, 10, got.FillIndex)
	assert.Equal(t, -1, got.LimitIndex)
	assert.Equal(t, models.StatusTaken, got.Status)

	hi, lo := 0.0, math.MaxFloat64
	for _, c := range base[11:] {
		hi, lo = math.Max(hi, c.H), math.Min(lo, c.L)
	}
	assert.Equal(t, hi, got.High)
	assert.Equal(t, lo, got.Low)

	assert.Equal(t, future.Time, pending.Time)
	assert.Equal(t, models.StatusTaken, pending.Status)
}
