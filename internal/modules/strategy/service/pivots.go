package service

// VPoint is a close that is the extreme of its window.
type VPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Time  int64   `json:"timestamp"`
}

// Pivots tracks the pivots of a growing close series. A candle i qualifies
// once its whole window [i-offset, i+offset) exists, so earlier results never
// change and extension only appends.
type Pivots struct {
	offset  int
	scanned int // series length at the last Extend
	raw     []VPoint
}

func NewPivots(offset int) *Pivots {
	if offset < 1 {
		offset = 1
	}
	return &Pivots{offset: offset}
}

// Extend scans the indices that became decidable since the previous call.
// It reports whether a new raw pivot was found.
func (p *Pivots) Extend(prices []float64, times []int64) bool {
	n := len(prices)
	if n <= p.scanned {
		return false
	}
	from := max(p.offset, p.scanned-p.offset+1)
	p.scanned = n
	before := len(p.raw)
	p.raw = scanPivots(p.raw, prices, times, p.offset, from)
	return len(p.raw) != before
}

// Points returns the pivots with equal consecutive values merged.
func (p *Pivots) Points() []VPoint { return mergeEqual(p.raw) }

func (p *Pivots) Len() int { return len(p.raw) }

// FindVPoints computes pivots of prices starting at startFrom, appending to
// previous (raw pivots known before startFrom). The result is merged.
func FindVPoints(prices []float64, times []int64, offset, startFrom int, previous []VPoint) []VPoint {
	if len(prices) == 0 {
		return nil
	}
	if offset < 1 {
		offset = 1
	}
	raw := append([]VPoint(nil), previous...)
	return mergeEqual(scanPivots(raw, prices, times, offset, max(startFrom, offset)))
}

func scanPivots(out []VPoint, prices []float64, times []int64, offset, from int) []VPoint {
	last := len(prices) - offset
	for i := from; i <= last; i++ {
		price := prices[i]
		peak, trough := true, true
		for _, v := range prices[i-offset : i+offset] {
			if v > price {
				peak = false
			}
			if v < price {
				trough = false
			}
			if !peak && !trough {
				break
			}
		}
		if peak || trough {
			vp := VPoint{Index: i, Value: price}
			if i < len(times) {
				vp.Time = times[i]
			}
			out = append(out, vp)
		}
	}
	return out
}

func mergeEqual(raw []VPoint) []VPoint {
	if len(raw) == 0 {
		return nil
	}
	out := make([]VPoint, 0, len(raw))
	out = append(out, raw[0])
	for i := 1; i < len(raw); i++ {
		if raw[i].Value == raw[i-1].Value {
			continue
		}
		out = append(out, raw[i])
	}
	return out
}
