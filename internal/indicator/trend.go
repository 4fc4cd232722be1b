package indicator

import "math"

type MACDValue struct {
	MACD   float64 `json:"macd"`
	Signal float64 `json:"signal"`
	Hist   float64 `json:"histogram"`
}

type MACD struct {
	fast, slow, signal *EMA
}

func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{fast: NewEMA(fast), slow: NewEMA(slow), signal: NewEMA(signal)}
}

// Update returns ok once the MACD line exists; Signal stays NaN until its own
// EMA has seeded.
func (m *MACD) Update(c float64) (MACDValue, bool) {
	f, fok := m.fast.Update(c)
	s, sok := m.slow.Update(c)
	out := MACDValue{MACD: math.NaN(), Signal: math.NaN(), Hist: math.NaN()}
	if !fok || !sok {
		return out, false
	}
	out.MACD = f - s
	if sig, ok := m.signal.Update(out.MACD); ok {
		out.Signal = sig
		out.Hist = out.MACD - sig
	}
	return out, true
}

type BandsValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Bollinger uses the population standard deviation of the window.
type Bollinger struct {
	sma *SMA
	k   float64
}

func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{sma: NewSMA(period), k: k}
}

func (b *Bollinger) Update(c float64) (BandsValue, bool) {
	mid, ok := b.sma.Update(c)
	if !ok {
		nan := math.NaN()
		return BandsValue{nan, nan, nan}, false
	}
	w := b.sma.window()
	variance := 0.0
	for i := 0; i < w.Len(); i++ {
		v, _ := w.Get(i)
		variance += (v - mid) * (v - mid)
	}
	sd := math.Sqrt(variance / float64(w.Len()))
	return BandsValue{Upper: mid + b.k*sd, Middle: mid, Lower: mid - b.k*sd}, true
}

// PSAR is Wilder's parabolic stop and reverse.
type PSAR struct {
	start, step, max float64

	n         int
	long      bool
	sar, ep   float64
	af        float64
	h1, l1    float64
	h2, l2    float64
	prevClose float64
}

func NewPSAR(start, step, max float64) *PSAR {
	return &PSAR{start: start, step: step, max: max}
}

func (p *PSAR) Update(h, l, c float64) (float64, bool) {
	p.n++
	defer func() {
		p.h2, p.l2 = p.h1, p.l1
		p.h1, p.l1 = h, l
		p.prevClose = c
	}()

	switch p.n {
	case 1:
		return math.NaN(), false
	case 2:
		p.long = c >= p.prevClose
		p.af = p.start
		if p.long {
			p.sar = math.Min(l, p.l1)
			p.ep = math.Max(h, p.h1)
		} else {
			p.sar = math.Max(h, p.h1)
			p.ep = math.Min(l, p.l1)
		}
		return p.sar, true
	}

	sar := p.sar + p.af*(p.ep-p.sar)
	if p.long {
		sar = math.Min(sar, math.Min(p.l1, p.l2))
		if l < sar {
			p.long = false
			sar = p.ep
			p.ep = l
			p.af = p.start
		} else if h > p.ep {
			p.ep = h
			p.af = math.Min(p.af+p.step, p.max)
		}
	} else {
		sar = math.Max(sar, math.Max(p.h1, p.h2))
		if h > sar {
			p.long = true
			sar = p.ep
			p.ep = h
			p.af = p.start
		} else if l < p.ep {
			p.ep = l
			p.af = math.Min(p.af+p.step, p.max)
		}
	}
	p.sar = sar
	return sar, true
}

type SuperTrendValue struct {
	Value     float64 `json:"value"`
	Direction int     `json:"direction"`
}

// SuperTrend with an SMA-smoothed true range. Direction is 1 up, -1 down.
type SuperTrend struct {
	atr  *SMA
	mult float64

	n            int
	prevClose    float64
	upper, lower float64
	dir          int
}

func NewSuperTrend(period int, mult float64) *SuperTrend {
	return &SuperTrend{atr: NewSMA(period), mult: mult}
}

func (s *SuperTrend) Update(h, l, c float64) (SuperTrendValue, bool) {
	s.n++
	tr := h - l
	if s.n > 1 {
		tr = math.Max(tr, math.Max(math.Abs(h-s.prevClose), math.Abs(l-s.prevClose)))
	}
	prevClose := s.prevClose
	s.prevClose = c

	atr, ok := s.atr.Update(tr)
	if !ok {
		return SuperTrendValue{Value: math.NaN()}, false
	}
	mid := (h + l) / 2
	bu, bl := mid+s.mult*atr, mid-s.mult*atr

	if s.dir == 0 {
		s.upper, s.lower = bu, bl
		s.dir = 1
		if c < mid {
			s.dir = -1
		}
	} else {
		if bu < s.upper || prevClose > s.upper {
			s.upper = bu
		}
		if bl > s.lower || prevClose < s.lower {
			s.lower = bl
		}
		switch {
		case s.dir == -1 && c > s.upper:
			s.dir = 1
		case s.dir == 1 && c < s.lower:
			s.dir = -1
		}
	}

	if s.dir == 1 {
		return SuperTrendValue{Value: s.lower, Direction: 1}, true
	}
	return SuperTrendValue{Value: s.upper, Direction: -1}, true
}
