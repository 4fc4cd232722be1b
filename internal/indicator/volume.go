package indicator

import "math"

// VWAP is a rolling volume weighted typical price over the last period candles.
type VWAP struct {
	pv, vol *Ring[float64]
	sumPV   float64
	sumV    float64
}

func NewVWAP(period int) *VWAP {
	return &VWAP{pv: NewRing[float64](period), vol: NewRing[float64](period)}
}

func (w *VWAP) Update(h, l, c, v float64) (float64, bool) {
	tp := (h + l + c) / 3
	if old, ok := w.pv.Push(tp * v); ok {
		w.sumPV -= old
	}
	if old, ok := w.vol.Push(v); ok {
		w.sumV -= old
	}
	w.sumPV += tp * v
	w.sumV += v
	if !w.vol.Full() || w.sumV <= 0 {
		return math.NaN(), false
	}
	return w.sumPV / w.sumV, true
}

// OBV starts at the first candle's volume.
type OBV struct {
	n     int
	prev  float64
	value float64
}

func NewOBV() *OBV { return &OBV{} }

func (o *OBV) Update(c, v float64) float64 {
	o.n++
	switch {
	case o.n == 1:
		o.value = v
	case c > o.prev:
		o.value += v
	case c < o.prev:
		o.value -= v
	}
	o.prev = c
	return o.value
}
