// Package indicator holds incremental technical indicators. Every accumulator
// returns (value, ok); values that are not ready yet are NaN.
package indicator

import (
	"math"

	"trade_engine/internal/models"
)

// Snapshot is every indicator value for one candle.
type Snapshot struct {
	SmallMA    float64         `json:"smallMA"`
	BigMA      float64         `json:"bigMA"`
	RSI        float64         `json:"rsi"`
	CCI        float64         `json:"cci"`
	MACD       MACDValue       `json:"macd"`
	Bands      BandsValue      `json:"bollingerBand"`
	StochK     float64         `json:"stochastic"`
	PSAR       float64         `json:"psar"`
	SuperTrend SuperTrendValue `json:"superTrend"`
	WillR      float64         `json:"williamR"`
	MFI        float64         `json:"mfi"`
	VWAP       float64         `json:"vwap"`
	OBV        float64         `json:"obv"`
}

// Pipeline appends one Snapshot per candle, index aligned with the series.
type Pipeline struct {
	smallMA    *SMA
	bigMA      *SMA
	rsi        *RSI
	cci        *CCI
	macd       *MACD
	bands      *Bollinger
	stoch      *Stochastic
	psar       *PSAR
	superTrend *SuperTrend
	willR      *WilliamsR
	mfi        *MFI
	vwap       *VWAP
	obv        *OBV

	history []Snapshot
}

func NewPipeline(p models.Preset) *Pipeline {
	return &Pipeline{
		smallMA:    NewSMA(p.SMALowPeriod),
		bigMA:      NewSMA(p.SMAHighPeriod),
		rsi:        NewRSI(p.RSIPeriod),
		cci:        NewCCI(p.CCIPeriod),
		macd:       NewMACD(p.MACDFastPeriod, p.MACDSlowPeriod, p.MACDSignalPeriod),
		bands:      NewBollinger(p.BollingerPeriod, p.BollingerStdDev),
		stoch:      NewStochastic(p.StochasticPeriod, p.StochasticMA),
		psar:       NewPSAR(p.PSARStart, p.PSARAcceleration, p.PSARMax),
		superTrend: NewSuperTrend(p.SMALowPeriod, p.SuperTrendMultiplier),
		willR:      NewWilliamsR(p.WillRPeriod),
		mfi:        NewMFI(p.MFIPeriod),
		vwap:       NewVWAP(p.VWAPPeriod),
		obv:        NewOBV(),
	}
}

func (p *Pipeline) Update(c models.Candle) Snapshot {
	var s Snapshot
	s.SmallMA, _ = p.smallMA.Update(c.C)
	s.BigMA, _ = p.bigMA.Update(c.C)
	s.RSI, _ = p.rsi.Update(c.C)
	s.CCI, _ = p.cci.Update(c.H, c.L, c.C)
	s.MACD, _ = p.macd.Update(c.C)
	s.Bands, _ = p.bands.Update(c.C)
	s.StochK, _ = p.stoch.Update(c.H, c.L, c.C)
	s.PSAR, _ = p.psar.Update(c.H, c.L, c.C)
	s.SuperTrend, _ = p.superTrend.Update(c.H, c.L, c.C)
	s.WillR, _ = p.willR.Update(c.H, c.L, c.C)
	s.MFI, _ = p.mfi.Update(c.H, c.L, c.C, c.V)
	s.VWAP, _ = p.vwap.Update(c.H, c.L, c.C, c.V)
	s.OBV = p.obv.Update(c.C, c.V)

	p.history = append(p.history, s)
	return s
}

func (p *Pipeline) Len() int { return len(p.history) }

func (p *Pipeline) At(i int) (Snapshot, bool) {
	if i < 0 || i >= len(p.history) {
		return Snapshot{}, false
	}
	return p.history[i], true
}

// History is the backing slice; callers must not modify it.
func (p *Pipeline) History() []Snapshot { return p.history }

// Ready reports a usable value.
func Ready(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
