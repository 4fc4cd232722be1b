package service

import "trade_engine/internal/models"

// Fusion is the weighted vote of one candle.
type Fusion struct {
	Final RawSignals
	Total float64
	Net   models.Signal
}

// Fuse sums the weighted votes of the enabled indicators in a fixed order.
// prev1 and prev2 are the raw signals of the two lookback candles used to
// carry a recent vote over a hold; either may be nil.
func Fuse(raw, prev1, prev2 RawSignals, p models.Preset) Fusion {
	f := Fusion{Final: RawSignals{}}
	for _, name := range models.FusionOrder {
		if !p.Indicators.Enabled(name) {
			continue
		}
		sig, ok := raw[name]
		if !ok {
			sig = models.SignalHold
		}
		if sig == models.SignalHold && models.CarryForward[name] {
			if s := prev1[name]; s.Active() {
				sig = s
			} else if s := prev2[name]; s.Active() {
				sig = s
			}
		}
		f.Final[name] = sig
		f.Total += sig.Weight() * models.IndicatorWeights[name]
	}

	threshold := p.DecisionMakingPoints
	if threshold <= 0 {
		threshold = 3
	}
	switch {
	case f.Total >= threshold:
		f.Net = models.SignalBuy
	case f.Total <= -threshold:
		f.Net = models.SignalSell
	default:
		f.Net = models.SignalHold
	}
	return f
}
