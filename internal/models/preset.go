package models

import (
	"fmt"
	"maps"
	"time"
	_ "time/tzdata"
)

// Preset is the per-symbol strategy configuration. It is immutable for the
// duration of one engine run.
type Preset struct {
	Indicators            Toggles `mapstructure:"additionalIndicators" json:"additionalIndicators" yaml:"additionalIndicators"`
	DecisionMakingPoints  float64 `mapstructure:"decisionMakingPoints" json:"decisionMakingPoints" yaml:"decisionMakingPoints"`
	UseSupportResistances bool    `mapstructure:"useSupportResistances" json:"useSupportResistances" yaml:"useSupportResistances"`
	VPointOffset          int     `mapstructure:"vPointOffset" json:"vPointOffset" yaml:"vPointOffset"`

	RSIPeriod int     `mapstructure:"rsiPeriod" json:"rsiPeriod" yaml:"rsiPeriod"`
	RSILow    float64 `mapstructure:"rsiLow" json:"rsiLow" yaml:"rsiLow"`
	RSIHigh   float64 `mapstructure:"rsiHigh" json:"rsiHigh" yaml:"rsiHigh"`

	SMALowPeriod  int `mapstructure:"smaLowPeriod" json:"smaLowPeriod" yaml:"smaLowPeriod"`
	SMAHighPeriod int `mapstructure:"smaHighPeriod" json:"smaHighPeriod" yaml:"smaHighPeriod"`

	MACDFastPeriod   int `mapstructure:"macdFastPeriod" json:"macdFastPeriod" yaml:"macdFastPeriod"`
	MACDSlowPeriod   int `mapstructure:"macdSlowPeriod" json:"macdSlowPeriod" yaml:"macdSlowPeriod"`
	MACDSignalPeriod int `mapstructure:"macdSignalPeriod" json:"macdSignalPeriod" yaml:"macdSignalPeriod"`

	BollingerPeriod int     `mapstructure:"bollingerBandPeriod" json:"bollingerBandPeriod" yaml:"bollingerBandPeriod"`
	BollingerStdDev float64 `mapstructure:"bollingerBandStdDev" json:"bollingerBandStdDev" yaml:"bollingerBandStdDev"`

	CCIPeriod int `mapstructure:"cciPeriod" json:"cciPeriod" yaml:"cciPeriod"`

	StochasticPeriod int     `mapstructure:"stochasticPeriod" json:"stochasticPeriod" yaml:"stochasticPeriod"`
	StochasticMA     int     `mapstructure:"stochasticMA" json:"stochasticMA" yaml:"stochasticMA"`
	StochasticLow    float64 `mapstructure:"stochasticLow" json:"stochasticLow" yaml:"stochasticLow"`
	StochasticHigh   float64 `mapstructure:"stochasticHigh" json:"stochasticHigh" yaml:"stochasticHigh"`

	WillRPeriod int     `mapstructure:"willRPeriod" json:"willRPeriod" yaml:"willRPeriod"`
	WillRLow    float64 `mapstructure:"willRLow" json:"willRLow" yaml:"willRLow"`
	WillRHigh   float64 `mapstructure:"willRHigh" json:"willRHigh" yaml:"willRHigh"`

	PSARStart        float64 `mapstructure:"psarStart" json:"psarStart" yaml:"psarStart"`
	PSARAcceleration float64 `mapstructure:"psarAcceleration" json:"psarAcceleration" yaml:"psarAcceleration"`
	PSARMax          float64 `mapstructure:"psarMaxValue" json:"psarMaxValue" yaml:"psarMaxValue"`

	SuperTrendMultiplier float64 `mapstructure:"superTrendMultiplier" json:"superTrendMultiplier" yaml:"superTrendMultiplier"`

	MFIPeriod int     `mapstructure:"mfiPeriod" json:"mfiPeriod" yaml:"mfiPeriod"`
	MFILow    float64 `mapstructure:"mfiLow" json:"mfiLow" yaml:"mfiLow"`
	MFIHigh   float64 `mapstructure:"mfiHigh" json:"mfiHigh" yaml:"mfiHigh"`

	VWAPPeriod int `mapstructure:"vwapPeriod" json:"vwapPeriod" yaml:"vwapPeriod"`

	TargetProfitPercent float64 `mapstructure:"targetProfitPercent" json:"targetProfitPercent" yaml:"targetProfitPercent"`
	StopLossPercent     float64 `mapstructure:"stopLossPercent" json:"stopLossPercent" yaml:"stopLossPercent"`

	BRTotalTrendLength int `mapstructure:"brTotalTrendLength" json:"brTotalTrendLength" yaml:"brTotalTrendLength"`
	BRLongTrendLength  int `mapstructure:"brLongTrendLength" json:"brLongTrendLength" yaml:"brLongTrendLength"`
	BRShortTrendLength int `mapstructure:"brShortTrendLength" json:"brShortTrendLength" yaml:"brShortTrendLength"`

	AvoidingLatestSmallMovePercent float64 `mapstructure:"avoidingLatestSmallMovePercent" json:"avoidingLatestSmallMovePercent" yaml:"avoidingLatestSmallMovePercent"`
	TrendCheckingLastFewCandles    int     `mapstructure:"trendCheckingLastFewCandles" json:"trendCheckingLastFewCandles" yaml:"trendCheckingLastFewCandles"`

	// corrected i-1/i-2 lookback instead of reading i-1 twice
	StrictCarryForward bool `mapstructure:"strictCarryForward" json:"strictCarryForward" yaml:"strictCarryForward"`

	// >0 switches entries to limit orders pulled back by this percent
	LimitOffsetPercent  float64 `mapstructure:"limitOffsetPercent" json:"limitOffsetPercent" yaml:"limitOffsetPercent"`
	LimitTimeoutCandles int     `mapstructure:"limitTimeoutCandles" json:"limitTimeoutCandles" yaml:"limitTimeoutCandles"`

	Warmup      int    `mapstructure:"warmup" json:"warmup" yaml:"warmup"`
	Timezone    string `mapstructure:"timezone" json:"timezone" yaml:"timezone"`
	TradeFrom   string `mapstructure:"tradeFrom" json:"tradeFrom" yaml:"tradeFrom"`
	TradeUntil  string `mapstructure:"tradeUntil" json:"tradeUntil" yaml:"tradeUntil"`
	ColourCheck int    `mapstructure:"colourCheckCandles" json:"colourCheckCandles" yaml:"colourCheckCandles"`
}

const (
	DefaultWarmup       = 200
	DefaultLimitTimeout = 10
	DefaultTimezone     = "Asia/Kolkata"
)

func DefaultPreset() Preset {
	return Preset{
		Indicators:            Toggles{},
		DecisionMakingPoints:  3,
		UseSupportResistances: true,
		VPointOffset:          8,

		RSIPeriod: 8,
		RSILow:    40,
		RSIHigh:   70,

		SMALowPeriod:  18,
		SMAHighPeriod: 150,

		MACDFastPeriod:   14,
		MACDSlowPeriod:   24,
		MACDSignalPeriod: 8,

		BollingerPeriod: 23,
		BollingerStdDev: 4,

		CCIPeriod: 20,

		StochasticPeriod: 14,
		StochasticMA:     3,
		StochasticLow:    23,
		StochasticHigh:   83,

		WillRPeriod: 14,
		WillRLow:    -90,
		WillRHigh:   -10,

		PSARStart:        0.02,
		PSARAcceleration: 0.02,
		PSARMax:          0.2,

		SuperTrendMultiplier: 3,

		MFIPeriod: 14,
		MFILow:    23,
		MFIHigh:   83,

		VWAPPeriod: 14,

		TargetProfitPercent: 1.4,
		StopLossPercent:     0.7,

		BRTotalTrendLength: 44,
		BRLongTrendLength:  21,
		BRShortTrendLength: 10,

		AvoidingLatestSmallMovePercent: 0.9,
		TrendCheckingLastFewCandles:    8,

		LimitTimeoutCandles: DefaultLimitTimeout,

		Warmup:      DefaultWarmup,
		Timezone:    DefaultTimezone,
		TradeFrom:   "09:30",
		TradeUntil:  "14:30",
		ColourCheck: 4,
	}
}

// Clone copies the preset including its toggle map.
func (p Preset) Clone() Preset {
	p.Indicators = maps.Clone(p.Indicators)
	if p.Indicators == nil {
		p.Indicators = Toggles{}
	}
	return p
}

// Normalize clamps degenerate values instead of rejecting them.
func (p Preset) Normalize() Preset {
	d := DefaultPreset()
	p = p.Clone()

	if p.TargetProfitPercent <= 0 {
		p.TargetProfitPercent = 0.1
	}
	if p.StopLossPercent <= 0 {
		p.StopLossPercent = 0.1
	}
	if p.AvoidingLatestSmallMovePercent > 2 {
		p.AvoidingLatestSmallMovePercent = 0.9
	}
	if p.DecisionMakingPoints <= 0 {
		p.DecisionMakingPoints = d.DecisionMakingPoints
	}
	if p.VPointOffset < 1 {
		p.VPointOffset = d.VPointOffset
	}
	if p.LimitOffsetPercent < 0 {
		p.LimitOffsetPercent = 0
	}

	intDefault(&p.RSIPeriod, d.RSIPeriod)
	intDefault(&p.SMALowPeriod, d.SMALowPeriod)
	intDefault(&p.SMAHighPeriod, d.SMAHighPeriod)
	intDefault(&p.MACDFastPeriod, d.MACDFastPeriod)
	intDefault(&p.MACDSlowPeriod, d.MACDSlowPeriod)
	intDefault(&p.MACDSignalPeriod, d.MACDSignalPeriod)
	intDefault(&p.BollingerPeriod, d.BollingerPeriod)
	intDefault(&p.CCIPeriod, d.CCIPeriod)
	intDefault(&p.StochasticPeriod, d.StochasticPeriod)
	intDefault(&p.StochasticMA, d.StochasticMA)
	intDefault(&p.WillRPeriod, d.WillRPeriod)
	intDefault(&p.MFIPeriod, d.MFIPeriod)
	intDefault(&p.VWAPPeriod, d.VWAPPeriod)
	intDefault(&p.BRTotalTrendLength, d.BRTotalTrendLength)
	intDefault(&p.BRLongTrendLength, d.BRLongTrendLength)
	intDefault(&p.BRShortTrendLength, d.BRShortTrendLength)
	intDefault(&p.TrendCheckingLastFewCandles, d.TrendCheckingLastFewCandles)
	intDefault(&p.LimitTimeoutCandles, d.LimitTimeoutCandles)
	intDefault(&p.Warmup, d.Warmup)
	intDefault(&p.ColourCheck, d.ColourCheck)

	if p.BollingerStdDev <= 0 {
		p.BollingerStdDev = d.BollingerStdDev
	}
	if p.SuperTrendMultiplier <= 0 {
		p.SuperTrendMultiplier = d.SuperTrendMultiplier
	}
	if p.PSARStart <= 0 || p.PSARAcceleration <= 0 || p.PSARMax <= 0 {
		p.PSARStart, p.PSARAcceleration, p.PSARMax = d.PSARStart, d.PSARAcceleration, d.PSARMax
	}
	if _, err := time.LoadLocation(p.Timezone); p.Timezone == "" || err != nil {
		p.Timezone = d.Timezone
	}
	if _, err := parseClock(p.TradeFrom); err != nil {
		p.TradeFrom = d.TradeFrom
	}
	if _, err := parseClock(p.TradeUntil); err != nil {
		p.TradeUntil = d.TradeUntil
	}
	return p
}

func intDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Location returns the market timezone, UTC if it cannot be loaded.
func (p Preset) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TradingWindow returns the admission window as minutes since midnight,
// both ends inclusive at minute resolution.
func (p Preset) TradingWindow() (from, until int) {
	from, err := parseClock(p.TradeFrom)
	if err != nil {
		from = 9*60 + 30
	}
	until, err = parseClock(p.TradeUntil)
	if err != nil {
		until = 14*60 + 30
	}
	return from, until
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NamedPreset is a built-in per-symbol override applied on top of the defaults.
type NamedPreset struct {
	Symbol      string
	Description string
	Apply       func(p *Preset)
}

func structuralOnly(trend bool) func(p *Preset) {
	return func(p *Preset) {
		p.Indicators = Toggles{
			IndicatorWilliamsR:  false,
			IndicatorMFI:        false,
			IndicatorTrend:      trend,
			IndicatorCCI:        false,
			IndicatorStochastic: false,
			IndicatorVWAP:       false,
			IndicatorPSAR:       false,
		}
	}
}

func offset(n int) func(p *Preset) {
	return func(p *Preset) { p.VPointOffset = n }
}

func chain(fs ...func(p *Preset)) func(p *Preset) {
	return func(p *Preset) {
		for _, f := range fs {
			f(p)
		}
	}
}

// Presets are the tuned per-symbol overrides.
var Presets = map[string]NamedPreset{
	"TATAMOTORS": {Symbol: "TATAMOTORS", Description: "trend filter, 5m offset 8", Apply: chain(structuralOnly(true), offset(8))},
	"TATASTEEL":  {Symbol: "TATASTEEL", Description: "trend filter, 5m offset 8", Apply: chain(structuralOnly(true), offset(8))},
	"HDFCLIFE":   {Symbol: "HDFCLIFE", Description: "trend filter, 5m offset 8", Apply: chain(structuralOnly(true), offset(8))},
	"INDHOTEL":   {Symbol: "INDHOTEL", Description: "wide pivots", Apply: offset(12)},
	"DEVYANI":    {Symbol: "DEVYANI", Description: "tight pivots", Apply: offset(4)},
	"ABFRL":      {Symbol: "ABFRL", Description: "structure only", Apply: chain(structuralOnly(false), offset(7))},
	"INDIANB":    {Symbol: "INDIANB", Description: "structure only", Apply: chain(structuralOnly(false), offset(7))},
	"POONAWALLA": {Symbol: "POONAWALLA", Description: "offset 6", Apply: offset(6)},
	"SUNTV":      {Symbol: "SUNTV", Description: "wide pivots", Apply: offset(14)},
}

// PresetFor returns the defaults with the built-in override for symbol applied.
func PresetFor(symbol string) Preset {
	p := DefaultPreset()
	if np, ok := Presets[symbol]; ok && np.Apply != nil {
		np.Apply(&p)
	}
	return p
}
