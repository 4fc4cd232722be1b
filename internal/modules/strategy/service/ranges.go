package service

import (
	"math"

	"trade_engine/internal/models"
)

// Range is a support/resistance band built from nearly equal pivots.
type Range struct {
	Min         float64  `json:"min"`
	Max         float64  `json:"max"`
	Start       VPoint   `json:"start"`
	End         VPoint   `json:"end"`
	Points      []VPoint `json:"points"`
	StillStrong bool     `json:"stillStrong"`
}

func (r Range) contains(o Range) bool {
	return o.Start.Index >= r.Start.Index &&
		o.End.Index <= r.End.Index &&
		o.Min >= r.Min &&
		o.Max <= r.Max
}

// tolerancePercent is the pivot equality band per resolution.
func tolerancePercent(res models.Resolution) float64 {
	switch res {
	case models.Resolution15m:
		return 0.18
	case models.Resolution60m:
		return 0.6
	default:
		return 0.11
	}
}

// crossings counts moves from above max to below min and back.
func crossings(prices []float64, lo, hi float64) int {
	count, pos := 0, 0
	for _, p := range prices {
		if p < lo {
			if pos == 1 {
				count++
			}
			pos = -1
		}
		if p > hi {
			if pos == -1 {
				count++
			}
			pos = 1
		}
	}
	return count
}

const (
	maxCrossingsInside = 3
	strongCrossings    = 3
)

// BuildRanges clusters pivots into support/resistance ranges.
func BuildRanges(points []VPoint, prices []float64, res models.Resolution) []Range {
	if len(points) == 0 || len(prices) == 0 {
		return nil
	}
	tol := tolerancePercent(res) / 100

	var all []Range
	for i := 0; i < len(points)-1; i++ {
		start := points[i]
		r := Range{
			Min:    math.MaxFloat64,
			Max:    0,
			Start:  start,
			Points: []VPoint{start},
		}
		closed := false

		for j := i + 1; j < len(points); j++ {
			cur := points[j]
			if math.Abs(start.Value-cur.Value) > tol*cur.Value {
				continue
			}
			lo, hi := math.Min(start.Value, cur.Value), math.Max(start.Value, cur.Value)
			r.Min = math.Min(r.Min, lo)
			r.Max = math.Max(r.Max, hi)

			if crossings(window(prices, start.Index, cur.Index), r.Min, r.Max) > maxCrossingsInside {
				r.End = r.Points[len(r.Points)-1]
				closed = true
				break
			}
			r.Points = append(r.Points, cur)
		}

		if !closed {
			r.End = r.Points[len(r.Points)-1]
			if crossings(window(prices, r.End.Index, len(prices)), r.Min, r.Max) < strongCrossings {
				r.StillStrong = true
			}
		}
		all = append(all, r)
	}

	good := all[:0]
	for _, r := range all {
		if len(r.Points) > 2 {
			good = append(good, r)
		}
	}

	return dropSubsumed(good)
}

// dropSubsumed removes every range that at least two other ranges contain.
// A range held by a single other range stays.
func dropSubsumed(rs []Range) []Range {
	var out []Range
	for i, r := range rs {
		containers := 0
		for j, o := range rs {
			if i != j && o.contains(r) {
				containers++
			}
		}
		if containers < 2 {
			out = append(out, r)
		}
	}
	return out
}

// StrongOnly filters ranges not yet invalidated.
func StrongOnly(rs []Range) []Range {
	var out []Range
	for _, r := range rs {
		if r.StillStrong {
			out = append(out, r)
		}
	}
	return out
}

func window(prices []float64, from, to int) []float64 {
	from = max(from, 0)
	to = min(to, len(prices))
	if from >= to {
		return nil
	}
	return prices[from:to]
}
