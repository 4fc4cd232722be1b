package indicator

import (
	"math"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/models"
)

func wave(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		base := 100 + 3*math.Sin(float64(i)/7) + 0.02*float64(i)
		o := base + 0.3*math.Sin(float64(i)/2)
		c := base + 0.3*math.Cos(float64(i)/3)
		out[i] = models.Candle{
			T: int64(1_700_000_000 + i*300),
			O: o,
			C: c,
			H: math.Max(o, c) + 0.2 + 0.1*math.Abs(math.Sin(float64(i))),
			L: math.Min(o, c) - 0.2 - 0.1*math.Abs(math.Cos(float64(i))),
			V: 5000 + 1000*math.Abs(math.Sin(float64(i)/5)),
		}
	}
	return out
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 3; i++ {
		_, ok := r.Push(i)
		assert.False(t, ok)
	}
	old, ok := r.Push(4)
	require.True(t, ok)
	assert.Equal(t, 1, old)
	assert.Equal(t, []int{2, 3, 4}, r.Slice())
	last, _ := r.Last()
	assert.Equal(t, 4, last)
}

func TestSMAWarmup(t *testing.T) {
	s := NewSMA(3)
	want := []float64{math.NaN(), math.NaN(), 12, 13, 47.0 / 3}
	for i, v := range []float64{11, 12, 13, 14, 20} {
		got, ok := s.Update(v)
		if i < 2 {
			assert.False(t, ok)
			assert.True(t, math.IsNaN(got))
			continue
		}
		require.True(t, ok)
		assert.InDelta(t, want[i], got, 1e-12)
	}
}

func TestWilliamsRMatchesNaiveWindow(t *testing.T) {
	cs := wave(120)
	w := NewWilliamsR(14)
	for i, c := range cs {
		got, ok := w.Update(c.H, c.L, c.C)
		if i < 13 {
			assert.False(t, ok)
			continue
		}
		hh, ll := math.Inf(-1), math.Inf(1)
		for j := i - 13; j <= i; j++ {
			hh = math.Max(hh, cs[j].H)
			ll = math.Min(ll, cs[j].L)
		}
		require.True(t, ok)
		assert.InDelta(t, -100*(hh-c.C)/(hh-ll), got, 1e-9, "index %d", i)
	}
}

func TestWilliamsRFlatWindowIsZero(t *testing.T) {
	w := NewWilliamsR(3)
	var got float64
	for i := 0; i < 3; i++ {
		got, _ = w.Update(10, 10, 10)
	}
	assert.Equal(t, 0.0, got)
}

func TestMFIWithoutVolumeIsZero(t *testing.T) {
	m := NewMFI(3)
	var (
		got float64
		ok  bool
	)
	for i := 0; i < 5; i++ {
		got, ok = m.Update(10+float64(i), 9+float64(i), 9.5+float64(i), 0)
	}
	require.True(t, ok)
	assert.Equal(t, 0.0, got)
}

func TestMFIAllPositiveFlow(t *testing.T) {
	m := NewMFI(3)
	var got float64
	for i := 0; i < 6; i++ {
		got, _ = m.Update(10+float64(i), 9+float64(i), 9.5+float64(i), 100)
	}
	assert.InDelta(t, 100, got, 1e-9)
}

func TestRSIOnlyGains(t *testing.T) {
	r := NewRSI(5)
	var (
		got float64
		ok  bool
	)
	for i := 0; i < 10; i++ {
		got, ok = r.Update(float64(100 + i))
	}
	require.True(t, ok)
	assert.InDelta(t, 100, got, 1e-9)
}

func TestVWAPRollingWindow(t *testing.T) {
	v := NewVWAP(2)
	_, ok := v.Update(3, 3, 3, 1)
	assert.False(t, ok)
	got, ok := v.Update(6, 6, 6, 2)
	require.True(t, ok)
	assert.InDelta(t, (3*1+6*2)/3.0, got, 1e-12)
	got, _ = v.Update(9, 9, 9, 1)
	assert.InDelta(t, (6*2+9*1)/3.0, got, 1e-12)
}

func TestTrendFollowersOnRisingSeries(t *testing.T) {
	p := NewPSAR(0.02, 0.02, 0.2)
	st := NewSuperTrend(5, 3)
	for i := 0; i < 40; i++ {
		x := 100 + 0.5*float64(i)
		h, l, c := x+0.6, x-0.1, x+0.5
		sar, ok := p.Update(h, l, c)
		if i > 0 {
			require.True(t, ok)
			assert.Less(t, sar, l)
		}
		v, ok := st.Update(h, l, c)
		if ok {
			assert.Equal(t, 1, v.Direction)
			assert.Less(t, v.Value, c)
		}
	}
}

func TestPipelineAlignsWithCandles(t *testing.T) {
	p := models.DefaultPreset()
	pl := NewPipeline(p)
	cs := wave(200)
	for _, c := range cs {
		pl.Update(c)
	}
	assert.Equal(t, len(cs), pl.Len())

	first, ok := pl.At(0)
	require.True(t, ok)
	assert.True(t, math.IsNaN(first.SmallMA))
	assert.True(t, math.IsNaN(first.MACD.MACD))

	last, _ := pl.At(199)
	assert.True(t, Ready(last.SmallMA))
	assert.True(t, Ready(last.BigMA))
	assert.True(t, Ready(last.RSI))
	assert.True(t, Ready(last.MACD.Signal))
	assert.True(t, Ready(last.Bands.Upper))
	assert.Greater(t, last.Bands.Upper, last.Bands.Lower)

	_, ok = pl.At(200)
	assert.False(t, ok)
}

func TestVerifyAgainstFullRecompute(t *testing.T) {
	devs, err := Verify(wave(400), models.DefaultPreset(), DefaultTolerance)
	require.NoError(t, err)
	require.Len(t, devs, 5)
	for _, d := range devs {
		assert.Positive(t, d.Compared, d.Indicator)
		assert.LessOrEqual(t, d.MaxAbs, DefaultTolerance, d.Indicator)
	}
}

func TestSnapshotJSONNullsNotReady(t *testing.T) {
	s := Snapshot{
		SmallMA: 101.5, BigMA: math.NaN(), RSI: math.NaN(), CCI: math.NaN(),
		MACD:   MACDValue{MACD: 0.2, Signal: math.NaN(), Hist: math.NaN()},
		Bands:  BandsValue{Upper: math.NaN(), Middle: math.NaN(), Lower: math.NaN()},
		StochK: math.NaN(), PSAR: math.NaN(),
		SuperTrend: SuperTrendValue{Value: math.NaN(), Direction: 1},
		WillR:      math.NaN(), MFI: math.NaN(), VWAP: math.NaN(), OBV: 10,
	}
	b, err := sonic.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, sonic.Unmarshal(b, &got))
	assert.Equal(t, 101.5, got["smallMA"])
	assert.Nil(t, got["bigMA"])
	assert.Equal(t, 10.0, got["obv"])
	macd := got["macd"].(map[string]any)
	assert.Equal(t, 0.2, macd["macd"])
	assert.Nil(t, macd["signal"])
	st := got["superTrend"].(map[string]any)
	assert.Equal(t, 1.0, st["direction"])
}
