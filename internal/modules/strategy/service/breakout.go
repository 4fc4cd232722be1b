package service

import (
	"math"

	"trade_engine/internal/models"
)

const (
	brNoisePercent    = 0.4
	brTrendPercent    = 0.9
	brMinMovePercent  = 0.11
	brUpSwingFactor   = 1.75
	brDownSwingFactor = 1.8
)

// BreakoutSignal compares the recent extreme against the trend over
// BRTotalTrendLength candles and the average anchor price since the extreme.
func BreakoutSignal(cs []models.Candle, i int, p models.Preset) models.Signal {
	total, long, short := p.BRTotalTrendLength, p.BRLongTrendLength, p.BRShortTrendLength
	if i < 0 || i >= len(cs) || i < total || i < long || i < short || i < 2 {
		return models.SignalHold
	}
	price := cs[i].C
	if price <= 0 {
		return models.SignalHold
	}

	for k := 0; k < 3; k++ {
		body := math.Abs(cs[i-k].C - cs[i-k].O)
		if body/price*100 >= brNoisePercent {
			return models.SignalHold
		}
	}

	// the low is only tracked on candles that did not set a new high
	hi, lo := -1, -1
	for k := i; k > i-short; k-- {
		if hi < 0 || cs[k].H > cs[hi].H {
			hi = k
		} else if lo < 0 || cs[k].L < cs[lo].L {
			lo = k
		}
	}

	trendMove := brTrendPercent / 100 * price
	minMove := brMinMovePercent / 100 * price
	anchor := cs[i-total].C

	switch {
	case price-anchor > trendMove:
		if hi < 0 {
			return models.SignalHold
		}
		recentHigh := cs[hi].H - price
		if math.Abs(recentHigh) < minMove || hi == i {
			return models.SignalHold
		}
		swing := 0.0
		for k := hi; k > i-long; k-- {
			swing = math.Max(swing, math.Abs(cs[k].C-cs[hi].H))
		}
		if swing < recentHigh*brUpSwingFactor {
			return models.SignalHold
		}
		sum := 0.0
		for k := hi; k < i; k++ {
			sum += math.Max(cs[k].C, cs[k].O)
		}
		if price >= sum/float64(i-hi) {
			return models.SignalBuy
		}
		return models.SignalHold

	case anchor-price > trendMove:
		if lo < 0 {
			return models.SignalHold
		}
		recentLow := cs[lo].L - price
		if math.Abs(recentLow) < minMove || lo == i {
			return models.SignalHold
		}
		swing := 0.0
		for k := lo; k > i-long; k-- {
			swing = math.Max(swing, math.Abs(cs[k].C-cs[lo].L))
		}
		if swing < math.Abs(recentLow)*brDownSwingFactor {
			return models.SignalHold
		}
		sum := 0.0
		for k := lo; k < i; k++ {
			sum += math.Min(cs[k].C, cs[k].O)
		}
		if price <= sum/float64(i-lo) {
			return models.SignalSell
		}
		return models.SignalHold
	}
	return models.SignalHold
}

// CandleTrend estimates direction from the last TrendCheckingLastFewCandles+1
// candles against the average of a window three times as long.
func CandleTrend(cs []models.Candle, i int, p models.Preset) models.Trend {
	n := p.TrendCheckingLastFewCandles
	if n <= 0 || i < 3*n || i >= len(cs) {
		return models.TrendNone
	}
	price := cs[i].C
	rangeBand := 0.3 / 100 * price
	bodyMin := 0.18 / 100 * price

	avg := 0.0
	for k := i - n; k <= i; k++ {
		avg += cs[k].C
	}
	avg /= float64(n + 1)

	flat := 0
	for k := i - n; k <= i; k++ {
		if math.Abs(avg-cs[k].C) <= rangeBand {
			flat++
		}
	}
	if n+1-flat < 2 {
		return models.TrendNone
	}

	red, green := 0, 0
	for k := i - n; k <= i; k++ {
		d := cs[k].C - cs[k].O
		if math.Abs(d) < bodyMin {
			continue
		}
		if d > 0 {
			green++
		} else if d < 0 {
			red++
		}
	}
	if red < 2 && green < 2 {
		return models.TrendNone
	}

	longAvg := 0.0
	for k := i - 3*n; k <= i; k++ {
		longAvg += cs[k].C
	}
	longAvg /= float64(3*n + 1)

	switch {
	case red > green && price < longAvg:
		return models.TrendDown
	case green > red && price > longAvg:
		return models.TrendUp
	}
	return models.TrendNone
}
