package indicator

import (
	"fmt"
	"math"
	"sort"

	talib "github.com/markcheno/go-talib"
	"github.com/pkg/errors"

	"trade_engine/internal/models"
)

// DefaultTolerance is the max absolute deviation accepted by Verify.
const DefaultTolerance = 1e-6

// Deviation is the comparison result for one indicator.
type Deviation struct {
	Indicator string
	Compared  int
	MaxAbs    float64
	AtIndex   int
}

func (d Deviation) String() string {
	return fmt.Sprintf("%-8s compared=%d max_abs=%.3e at=%d", d.Indicator, d.Compared, d.MaxAbs, d.AtIndex)
}

// Verify replays candles through a Pipeline and compares the windowed
// accumulators with a full recompute: Williams %R, MFI and the moving
// averages with go-talib, VWAP with a direct window sum.
func Verify(candles []models.Candle, p models.Preset, tol float64) ([]Deviation, error) {
	if len(candles) == 0 {
		return nil, nil
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}

	pl := NewPipeline(p)
	for _, c := range candles {
		pl.Update(c)
	}
	hist := pl.History()

	n := len(candles)
	highs, lows, closes, vols := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, c := range candles {
		highs[i], lows[i], closes[i], vols[i] = c.H, c.L, c.C, c.V
	}

	ref := map[string][]float64{
		"willR":   talib.WillR(highs, lows, closes, p.WillRPeriod),
		"mfi":     talib.Mfi(highs, lows, closes, vols, p.MFIPeriod),
		"smallMA": talib.Sma(closes, p.SMALowPeriod),
		"bigMA":   talib.Sma(closes, p.SMAHighPeriod),
		"vwap":    windowVWAP(highs, lows, closes, vols, p.VWAPPeriod),
	}
	got := map[string]func(Snapshot) float64{
		"willR":   func(s Snapshot) float64 { return s.WillR },
		"mfi":     func(s Snapshot) float64 { return s.MFI },
		"smallMA": func(s Snapshot) float64 { return s.SmallMA },
		"bigMA":   func(s Snapshot) float64 { return s.BigMA },
		"vwap":    func(s Snapshot) float64 { return s.VWAP },
	}

	names := make([]string, 0, len(ref))
	for k := range ref {
		names = append(names, k)
	}
	sort.Strings(names)

	var (
		out    []Deviation
		failed []string
	)
	for _, name := range names {
		want := ref[name]
		d := Deviation{Indicator: name, AtIndex: -1}
		for i := range hist {
			v := got[name](hist[i])
			if !Ready(v) || i >= len(want) || math.IsNaN(want[i]) {
				continue
			}
			d.Compared++
			if diff := math.Abs(v - want[i]); diff > d.MaxAbs {
				d.MaxAbs, d.AtIndex = diff, i
			}
		}
		if d.MaxAbs > tol {
			failed = append(failed, d.String())
		}
		out = append(out, d)
	}
	if len(failed) > 0 {
		return out, errors.Errorf("indicator deviation above %.1e: %v", tol, failed)
	}
	return out, nil
}

func windowVWAP(h, l, c, v []float64, period int) []float64 {
	out := make([]float64, len(c))
	for i := range c {
		out[i] = math.NaN()
		if i+1 < period {
			continue
		}
		var pv, vol float64
		for j := i + 1 - period; j <= i; j++ {
			tp := (h[j] + l[j] + c[j]) / 3
			pv += tp * v[j]
			vol += v[j]
		}
		if vol > 0 {
			out[i] = pv / vol
		}
	}
	return out
}
