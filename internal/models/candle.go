package models

import "time"

// Resolution is a candle size in minutes.
type Resolution int

const (
	Resolution5m  Resolution = 5
	Resolution15m Resolution = 15
	Resolution60m Resolution = 60
)

func (r Resolution) Duration() time.Duration { return time.Duration(r) * time.Minute }

// Candle is one OHLCV sample. T is the unix start time in seconds.
type Candle struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

func (c Candle) Time() time.Time { return time.Unix(c.T, 0) }

// Green reports a candle that closed above its open. Dojis count as red.
func (c Candle) Green() bool { return c.C-c.O > 0 }

// CandleTick is a closed candle routed to the live engine.
type CandleTick struct {
	InstID       string
	TimeframeRaw string
	Candle
}

// Series is the upstream wire shape: parallel arrays plus a status flag.
type Series struct {
	Status string    `json:"s"`
	T      []int64   `json:"t"`
	O      []float64 `json:"o"`
	H      []float64 `json:"h"`
	L      []float64 `json:"l"`
	C      []float64 `json:"c"`
	V      []float64 `json:"v"`
}

const SeriesStatusOK = "ok"

// EmptySeries is what collaborators substitute for a missing or failed fetch.
func EmptySeries() Series {
	return Series{Status: "no", T: []int64{}, O: []float64{}, H: []float64{}, L: []float64{}, C: []float64{}, V: []float64{}}
}

// Valid requires status "ok" and equal, non-zero array lengths.
func (s Series) Valid() bool {
	if s.Status != SeriesStatusOK {
		return false
	}
	n := len(s.C)
	if n == 0 {
		return false
	}
	return len(s.T) == n && len(s.O) == n && len(s.H) == n && len(s.L) == n && len(s.V) == n
}

func (s Series) Len() int { return len(s.C) }

// Candles converts the parallel arrays. Invalid series yield nil.
func (s Series) Candles() []Candle {
	if !s.Valid() {
		return nil
	}
	out := make([]Candle, len(s.C))
	for i := range s.C {
		out[i] = Candle{T: s.T[i], O: s.O[i], H: s.H[i], L: s.L[i], C: s.C[i], V: s.V[i]}
	}
	return out
}

// SeriesFromCandles is the inverse of Candles.
func SeriesFromCandles(cs []Candle) Series {
	s := Series{
		Status: SeriesStatusOK,
		T:      make([]int64, len(cs)),
		O:      make([]float64, len(cs)),
		H:      make([]float64, len(cs)),
		L:      make([]float64, len(cs)),
		C:      make([]float64, len(cs)),
		V:      make([]float64, len(cs)),
	}
	for i, c := range cs {
		s.T[i], s.O[i], s.H[i], s.L[i], s.C[i], s.V[i] = c.T, c.O, c.H, c.L, c.C, c.V
	}
	return s
}

// TruncateCompanion drops companion candles that close after the last base candle closes.
func TruncateCompanion(base []Candle, baseRes Resolution, companion []Candle, companionRes Resolution) []Candle {
	if len(base) == 0 {
		return nil
	}
	limit := base[len(base)-1].T + int64(baseRes.Duration().Seconds())
	step := int64(companionRes.Duration().Seconds())
	n := 0
	for n < len(companion) && companion[n].T+step <= limit {
		n++
	}
	return companion[:n]
}
