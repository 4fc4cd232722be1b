package indicator

import "math"

// SMA is a windowed simple moving average.
type SMA struct {
	period int
	buf    *Ring[float64]
	sum    float64
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 1
	}
	return &SMA{period: period, buf: NewRing[float64](period)}
}

func (s *SMA) Update(v float64) (float64, bool) {
	if old, ok := s.buf.Push(v); ok {
		s.sum -= old
	}
	s.sum += v
	return s.Value()
}

func (s *SMA) Value() (float64, bool) {
	if !s.buf.Full() {
		return math.NaN(), false
	}
	return s.sum / float64(s.period), true
}

// window exposes the buffered values for deviation based indicators.
func (s *SMA) window() *Ring[float64] { return s.buf }

// EMA seeds with the SMA of the first period values.
type EMA struct {
	period int
	alpha  float64
	value  float64
	seed   float64
	n      int
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		period = 1
	}
	return &EMA{
		period: period,
		alpha:  2.0 / (float64(period) + 1),
	}
}

func (e *EMA) Update(v float64) (float64, bool) {
	e.n++
	switch {
	case e.n < e.period:
		e.seed += v
		return math.NaN(), false
	case e.n == e.period:
		e.seed += v
		e.value = e.seed / float64(e.period)
	default:
		e.value = e.alpha*v + (1-e.alpha)*e.value
	}
	return e.value, true
}

func (e *EMA) Ready() bool { return e.n >= e.period }
