package indicator

import "math"

// RSI uses Wilder smoothing seeded with the simple average of the first
// period changes.
type RSI struct {
	period     int
	prev       float64
	n          int
	gain, loss float64
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

func (r *RSI) Update(c float64) (float64, bool) {
	r.n++
	if r.n == 1 {
		r.prev = c
		return math.NaN(), false
	}
	d := c - r.prev
	r.prev = c
	g, l := math.Max(d, 0), math.Max(-d, 0)

	p := float64(r.period)
	switch changes := r.n - 1; {
	case changes < r.period:
		r.gain += g
		r.loss += l
		return math.NaN(), false
	case changes == r.period:
		r.gain = (r.gain + g) / p
		r.loss = (r.loss + l) / p
	default:
		r.gain = (r.gain*(p-1) + g) / p
		r.loss = (r.loss*(p-1) + l) / p
	}
	sum := r.gain + r.loss
	if math.Abs(sum) < 1e-14 {
		return 0, true
	}
	return 100 * r.gain / sum, true
}

// CCI over the typical price with mean absolute deviation.
type CCI struct {
	sma *SMA
}

func NewCCI(period int) *CCI { return &CCI{sma: NewSMA(period)} }

func (c *CCI) Update(h, l, cl float64) (float64, bool) {
	tp := (h + l + cl) / 3
	avg, ok := c.sma.Update(tp)
	if !ok {
		return math.NaN(), false
	}
	w := c.sma.window()
	md := 0.0
	for i := 0; i < w.Len(); i++ {
		v, _ := w.Get(i)
		md += math.Abs(v - avg)
	}
	md /= float64(w.Len())
	if md == 0 || tp-avg == 0 {
		return 0, true
	}
	return (tp - avg) / (0.015 * md), true
}

// Stochastic returns %K smoothed by an SMA of length ma.
type Stochastic struct {
	hi, lo *extremeQueue
	k      *SMA
}

func NewStochastic(period, ma int) *Stochastic {
	return &Stochastic{
		hi: newExtremeQueue(period, true),
		lo: newExtremeQueue(period, false),
		k:  NewSMA(ma),
	}
}

func (s *Stochastic) Update(h, l, c float64) (float64, bool) {
	s.hi.push(h)
	s.lo.push(l)
	if !s.hi.ready() {
		return math.NaN(), false
	}
	hh, ll := s.hi.value(), s.lo.value()
	fast := 0.0
	if diff := (hh - ll) / 100; diff != 0 {
		fast = (c - ll) / diff
	}
	return s.k.Update(fast)
}

// WilliamsR is -100*(HH-C)/(HH-LL) over the window, 0 for a flat window.
type WilliamsR struct {
	hi, lo *extremeQueue
}

func NewWilliamsR(period int) *WilliamsR {
	return &WilliamsR{hi: newExtremeQueue(period, true), lo: newExtremeQueue(period, false)}
}

func (w *WilliamsR) Update(h, l, c float64) (float64, bool) {
	w.hi.push(h)
	w.lo.push(l)
	if !w.hi.ready() {
		return math.NaN(), false
	}
	hh, ll := w.hi.value(), w.lo.value()
	diff := (hh - ll) * -0.01
	if diff == 0 {
		return 0, true
	}
	return (hh - c) / diff, true
}

type flow struct{ pos, neg float64 }

// MFI keeps running positive/negative money flow sums over the window.
type MFI struct {
	flows    *Ring[flow]
	prevTP   float64
	n        int
	pos, neg float64
}

func NewMFI(period int) *MFI {
	if period <= 0 {
		period = 14
	}
	return &MFI{flows: NewRing[flow](period)}
}

func (m *MFI) Update(h, l, c, v float64) (float64, bool) {
	tp := (h + l + c) / 3
	m.n++
	if m.n == 1 {
		m.prevTP = tp
		return math.NaN(), false
	}
	var f flow
	switch {
	case tp > m.prevTP:
		f.pos = tp * v
	case tp < m.prevTP:
		f.neg = tp * v
	}
	m.prevTP = tp
	if old, ok := m.flows.Push(f); ok {
		m.pos -= old.pos
		m.neg -= old.neg
	}
	m.pos += f.pos
	m.neg += f.neg
	if !m.flows.Full() {
		return math.NaN(), false
	}
	total := m.pos + m.neg
	if total < 1 {
		return 0, true
	}
	return 100 * m.pos / total, true
}
