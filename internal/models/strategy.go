package models

import (
	"sort"
	"strings"
)

// Signal is a discrete vote: sell, hold or buy.
type Signal string

const (
	SignalHold Signal = "hold"
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
)

// Weight maps sell/hold/buy to -1/0/1.
func (s Signal) Weight() float64 {
	switch s {
	case SignalBuy:
		return 1
	case SignalSell:
		return -1
	default:
		return 0
	}
}

func (s Signal) Active() bool { return s == SignalBuy || s == SignalSell }

// IndicatorName keys both the preset toggles and the weight table.
type IndicatorName string

const (
	IndicatorBollinger  IndicatorName = "bollinger"
	IndicatorSR         IndicatorName = "sr"
	IndicatorSR15m      IndicatorName = "sr15min"
	IndicatorMovingAvg  IndicatorName = "movingAvg"
	IndicatorBreakout   IndicatorName = "br"
	IndicatorMACD       IndicatorName = "macd"
	IndicatorRSI        IndicatorName = "rsi"
	IndicatorCCI        IndicatorName = "cci"
	IndicatorTrend      IndicatorName = "trend"
	IndicatorStochastic IndicatorName = "stochastic"
	IndicatorPSAR       IndicatorName = "psar"
	IndicatorSuperTrend IndicatorName = "superTrend"
	IndicatorOBV        IndicatorName = "obv"
	IndicatorVWAP       IndicatorName = "vwap"
	IndicatorWilliamsR  IndicatorName = "willR"
	IndicatorMFI        IndicatorName = "mfi"
	IndicatorVPoints    IndicatorName = "vPs"
	IndicatorSMA        IndicatorName = "sma"
)

// IndicatorWeights is the fixed voting weight table.
var IndicatorWeights = map[IndicatorName]float64{
	IndicatorBollinger:  3,
	IndicatorSR:         2,
	IndicatorSR15m:      2,
	IndicatorMovingAvg:  1.5,
	IndicatorBreakout:   2,
	IndicatorMACD:       1.5,
	IndicatorRSI:        1,
	IndicatorCCI:        1,
	IndicatorTrend:      1,
	IndicatorStochastic: 1,
	IndicatorPSAR:       0.5,
	IndicatorSuperTrend: 1,
	IndicatorOBV:        1,
	IndicatorVWAP:       1,
	IndicatorWilliamsR:  1,
	IndicatorMFI:        1,
	IndicatorVPoints:    1,
	IndicatorSMA:        1.5,
}

// FusionOrder is the fixed evaluation order of indicator votes.
var FusionOrder = []IndicatorName{
	IndicatorSR,
	IndicatorSR15m,
	IndicatorRSI,
	IndicatorMACD,
	IndicatorSMA,
	IndicatorBollinger,
	IndicatorBreakout,
	IndicatorCCI,
	IndicatorMFI,
	IndicatorStochastic,
	IndicatorVWAP,
	IndicatorPSAR,
	IndicatorSuperTrend,
	IndicatorTrend,
	IndicatorWilliamsR,
	IndicatorMovingAvg,
	IndicatorOBV,
	IndicatorVPoints,
}

// CarryForward lists indicators whose hold is replaced by a recent non-hold vote.
var CarryForward = map[IndicatorName]bool{
	IndicatorSR:       true,
	IndicatorSR15m:    true,
	IndicatorMACD:     true,
	IndicatorBreakout: true,
}

var indicatorAliases = map[string]IndicatorName{
	"bollingerband": IndicatorBollinger,
	"williamr":      IndicatorWilliamsR,
	"williamsr":     IndicatorWilliamsR,
}

// ParseIndicatorName matches a known indicator name case-insensitively.
func ParseIndicatorName(s string) (IndicatorName, bool) {
	if name, ok := indicatorAliases[strings.ToLower(s)]; ok {
		return name, true
	}
	for name := range IndicatorWeights {
		if strings.EqualFold(string(name), s) {
			return name, true
		}
	}
	return "", false
}

// Toggles is the enabled-indicator set of a preset.
type Toggles map[IndicatorName]bool

func (t Toggles) Enabled(name IndicatorName) bool { return t[name] }

// Names returns the enabled names sorted, for stable output.
func (t Toggles) Names() []string {
	out := make([]string, 0, len(t))
	for k, v := range t {
		if v {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}

// Trend of a price window.
type Trend int

const (
	TrendNone Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	default:
		return "range"
	}
}
