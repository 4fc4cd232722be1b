package service

import (
	"math"

	"trade_engine/internal/indicator"
	"trade_engine/internal/models"
)

// RawSignals are the per-indicator votes of one candle before carry-forward.
type RawSignals map[models.IndicatorName]models.Signal

const (
	bigCandlePercent = 0.3
	macdDeadZone     = 0.015
)

// SRSignal detects a breakout above a range max or a breakdown below a range min.
func SRSignal(cs []models.Candle, i int, ranges []Range) models.Signal {
	if i < 1 || i >= len(cs) || len(ranges) == 0 {
		return models.SignalHold
	}
	c, o := cs[i].C, cs[i].O
	big := math.Abs(c-o) > bigCandlePercent/100*c

	if big {
		for _, r := range ranges {
			if r.Max < c && r.Max > o {
				return models.SignalBuy
			}
		}
		for _, r := range ranges {
			if r.Min > c && r.Min < o {
				return models.SignalSell
			}
		}
	}

	prevOpen := cs[i-1].O
	for _, r := range ranges {
		if prevOpen < r.Max && c > r.Max && o > r.Max {
			return models.SignalBuy
		}
	}
	for _, r := range ranges {
		if prevOpen > r.Min && c < r.Min && o < r.Min {
			return models.SignalSell
		}
	}
	return models.SignalHold
}

// crossSignal reports the last sign flip of a-b: -→+ is buy, +→- is sell.
func crossSignal(a, b []float64) models.Signal {
	sig, side := models.SignalHold, 0
	for k := range a {
		d := a[k] - b[k]
		switch {
		case d > 0:
			if side == -1 {
				sig = models.SignalBuy
			}
			side = 1
		case d < 0:
			if side == 1 {
				sig = models.SignalSell
			}
			side = -1
		}
	}
	return sig
}

// MACDSignal looks at the last three MACD values.
func MACDSignal(vals []indicator.MACDValue) models.Signal {
	if len(vals) == 0 || len(vals) > 5 {
		return models.SignalHold
	}
	a, b := make([]float64, len(vals)), make([]float64, len(vals))
	for k, v := range vals {
		if !indicator.Ready(v.MACD) || !indicator.Ready(v.Signal) {
			return models.SignalHold
		}
		a[k], b[k] = v.MACD, v.Signal
	}
	if math.Abs(vals[0].MACD) < macdDeadZone {
		return models.SignalHold
	}
	return crossSignal(a, b)
}

// SMACrossSignal is the crossing rule on the short and long SMA. Values not
// ready yet are skipped.
func SMACrossSignal(small, big []float64) models.Signal {
	if len(small) == 0 || len(small) != len(big) || len(small) > 3 {
		return models.SignalHold
	}
	return crossSignal(small, big)
}

func band(v, low, high float64, belowLow, aboveHigh models.Signal) models.Signal {
	switch {
	case v < low:
		return belowLow
	case v > high:
		return aboveHigh
	}
	return models.SignalHold
}

func trendSignal(t models.Trend) models.Signal {
	switch t {
	case models.TrendUp:
		return models.SignalBuy
	case models.TrendDown:
		return models.SignalSell
	}
	return models.SignalHold
}

type evalInput struct {
	candles  []models.Candle
	snaps    []indicator.Snapshot
	i        int
	strong   []Range
	strong15 []Range
	preset   models.Preset
}

// computeSignals evaluates sr plus every enabled indicator at candle i.
// Each rule tolerates NaN inputs by holding.
func computeSignals(in evalInput) RawSignals {
	p := in.preset
	i := in.i
	price := in.candles[i].C
	s := in.snaps[i]
	on := p.Indicators.Enabled

	out := RawSignals{
		models.IndicatorSR: SRSignal(in.candles, i, in.strong),
	}
	if on(models.IndicatorSR15m) {
		out[models.IndicatorSR15m] = SRSignal(in.candles, i, in.strong15)
	}
	if on(models.IndicatorRSI) {
		out[models.IndicatorRSI] = band(s.RSI, p.RSILow, p.RSIHigh, models.SignalBuy, models.SignalSell)
	}
	if on(models.IndicatorMACD) {
		out[models.IndicatorMACD] = models.SignalHold
		if i >= 2 {
			out[models.IndicatorMACD] = MACDSignal([]indicator.MACDValue{in.snaps[i-2].MACD, in.snaps[i-1].MACD, s.MACD})
		}
	}
	if on(models.IndicatorSMA) {
		out[models.IndicatorSMA] = models.SignalHold
		if i >= 2 {
			out[models.IndicatorSMA] = SMACrossSignal(
				[]float64{in.snaps[i-2].SmallMA, in.snaps[i-1].SmallMA, s.SmallMA},
				[]float64{in.snaps[i-2].BigMA, in.snaps[i-1].BigMA, s.BigMA},
			)
		}
	}
	if on(models.IndicatorBollinger) {
		sig := models.SignalHold
		switch {
		case price >= s.Bands.Upper:
			sig = models.SignalSell
		case price <= s.Bands.Lower:
			sig = models.SignalBuy
		}
		out[models.IndicatorBollinger] = sig
	}
	if on(models.IndicatorBreakout) {
		out[models.IndicatorBreakout] = BreakoutSignal(in.candles, i, p)
	}
	if on(models.IndicatorCCI) {
		out[models.IndicatorCCI] = band(s.CCI, -100, 100, models.SignalSell, models.SignalBuy)
	}
	if on(models.IndicatorMFI) {
		out[models.IndicatorMFI] = band(s.MFI, p.MFILow, p.MFIHigh, models.SignalBuy, models.SignalSell)
	}
	if on(models.IndicatorStochastic) {
		out[models.IndicatorStochastic] = band(s.StochK, p.StochasticLow, p.StochasticHigh, models.SignalSell, models.SignalBuy)
	}
	if on(models.IndicatorVWAP) {
		sig := models.SignalHold
		if indicator.Ready(s.VWAP) {
			sig = models.SignalSell
			if price > s.VWAP {
				sig = models.SignalBuy
			}
		}
		out[models.IndicatorVWAP] = sig
	}
	if on(models.IndicatorPSAR) {
		sig := models.SignalHold
		switch {
		case price >= s.PSAR && s.SuperTrend.Direction == 1:
			sig = models.SignalBuy
		case price <= s.PSAR && s.SuperTrend.Direction == -1:
			sig = models.SignalSell
		}
		out[models.IndicatorPSAR] = sig
	}
	if on(models.IndicatorSuperTrend) {
		out[models.IndicatorSuperTrend] = trendSignal(directionTrend(s.SuperTrend.Direction))
	}
	if on(models.IndicatorTrend) {
		out[models.IndicatorTrend] = trendSignal(CandleTrend(in.candles, i, p))
	}
	if on(models.IndicatorWilliamsR) {
		out[models.IndicatorWilliamsR] = band(s.WillR, p.WillRLow, p.WillRHigh, models.SignalBuy, models.SignalSell)
	}
	if on(models.IndicatorMovingAvg) {
		sig := models.SignalHold
		switch {
		case price > s.SmallMA && s.SmallMA > s.BigMA:
			sig = models.SignalBuy
		case price < s.SmallMA && s.SmallMA < s.BigMA:
			sig = models.SignalSell
		}
		out[models.IndicatorMovingAvg] = sig
	}
	if on(models.IndicatorOBV) {
		sig := models.SignalHold
		if i >= 2 {
			o0, o1, o2 := in.snaps[i-2].OBV, in.snaps[i-1].OBV, s.OBV
			switch {
			case o2 > o1 && o1 > o0 && price > s.SmallMA:
				sig = models.SignalBuy
			case o2 < o1 && o1 < o0 && price < s.SmallMA:
				sig = models.SignalSell
			}
		}
		out[models.IndicatorOBV] = sig
	}
	if on(models.IndicatorVPoints) {
		out[models.IndicatorVPoints] = models.SignalHold
	}
	return out
}

func directionTrend(dir int) models.Trend {
	switch dir {
	case 1:
		return models.TrendUp
	case -1:
		return models.TrendDown
	}
	return models.TrendNone
}
