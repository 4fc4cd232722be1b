package service

import (
	"math"
	"time"

	"trade_engine/internal/models"
)

// CheckCompletion scans candles from the entry onward and returns the first
// resolution. The target is checked before the stop on every candle, so a
// candle touching both resolves as profit. Malformed input never resolves.
func CheckCompletion(t models.Trade, candles []models.Candle) models.TradeStatus {
	if t.StartPrice == 0 || t.Target == 0 || t.SL == 0 || len(candles) == 0 {
		return models.StatusUnchanged
	}
	for _, c := range candles {
		if t.IsSell() {
			if c.L <= t.Target {
				return models.StatusProfit
			}
			if c.H >= t.SL {
				return models.StatusLoss
			}
			continue
		}
		if c.H >= t.Target {
			return models.StatusProfit
		}
		if c.L <= t.SL {
			return models.StatusLoss
		}
	}
	return models.StatusUnchanged
}

// advanceTrade applies candle i of cs to an open trade. It reports whether
// the trade changed. The entry (or fill) candle is checked together with the
// first candle after it.
func advanceTrade(t *models.Trade, cs []models.Candle, i, limitTimeout int) bool {
	c := cs[i]
	switch t.Status {
	case models.StatusLimit:
		if i <= t.LimitIndex {
			return false
		}
		if i-t.LimitIndex > limitTimeout {
			t.Status = models.StatusCancelled
			t.EndIndex, t.EndTime = i, c.T
			return true
		}
		if c.L <= t.StartPrice && t.StartPrice <= c.H {
			t.Status = models.StatusTaken
			t.FillIndex, t.FillTime = i, c.T
			t.High, t.Low = c.H, c.L
			return true
		}
		return false

	case models.StatusTaken:
		if i <= t.FillIndex {
			return false
		}
		t.High = math.Max(t.High, c.H)
		if t.Low == 0 {
			t.Low = c.L
		}
		t.Low = math.Min(t.Low, c.L)
		from := i
		if i == t.FillIndex+1 && t.FillIndex >= 0 {
			from = t.FillIndex
		}
		for k := from; k <= i; k++ {
			st := CheckCompletion(*t, cs[k:k+1])
			if st == models.StatusUnchanged {
				continue
			}
			t.Status = st
			t.EndIndex, t.EndTime = k, cs[k].T
			return true
		}
		return false
	}
	return false
}

// nearestLevel finds the closest strong range level in the trade direction:
// the lowest Min above price for buys, the highest Max below price for sells.
// A price inside a range uses the far edge of that range.
func nearestLevel(typ models.TradeType, price float64, strong []Range) (float64, bool) {
	level, found := 0.0, false
	for _, r := range strong {
		if typ == models.TradeBuy {
			if r.Max < price {
				continue
			}
			if r.Min < price {
				return r.Max, true
			}
			if !found || r.Min < level {
				level, found = r.Min, true
			}
			continue
		}
		if r.Min > price {
			continue
		}
		if r.Max > price {
			return r.Min, true
		}
		if !found || r.Max > level {
			level, found = r.Max, true
		}
	}
	return level, found
}

// admission holds everything the entry filters look at.
type admission struct {
	trades  []models.Trade
	candles []models.Candle
	i       int
	preset  models.Preset
	loc     *time.Location
}

// admit runs the entry filters in order and returns the first rejection, or
// DecisionOpened when all pass.
func (a admission) admit(typ models.TradeType) models.Decision {
	for _, t := range a.trades {
		if t.Type == typ && t.Status.Open() {
			return models.DecisionSameDirection
		}
	}

	c := a.candles[a.i]
	local := time.Unix(c.T, 0).In(a.loc)
	minute := local.Hour()*60 + local.Minute()
	from, until := a.preset.TradingWindow()
	if minute < from || minute > until {
		return models.DecisionOutsideHours
	}

	if n := a.preset.ColourCheck; n > 0 && a.i >= n-1 {
		green := a.candles[a.i].Green()
		same := true
		for k := 1; k < n; k++ {
			if a.candles[a.i-k].Green() != green {
				same = false
				break
			}
		}
		if same && ((green && typ == models.TradeBuy) || (!green && typ == models.TradeSell)) {
			return models.DecisionExhausted
		}
	}

	if a.i >= 3 {
		move := math.Abs(c.C - a.candles[a.i-3].O)
		if move > a.preset.AvoidingLatestSmallMovePercent/100*c.C {
			return models.DecisionLateMove
		}
	}
	return models.DecisionOpened
}

// openTrade builds the trade for an admitted signal at candle i.
func openTrade(symbol string, typ models.TradeType, cs []models.Candle, i int, p models.Preset) models.Trade {
	c := cs[i]
	entry := c.C
	limit := p.LimitOffsetPercent > 0
	if limit {
		off := p.LimitOffsetPercent / 100 * c.C
		if typ == models.TradeBuy {
			entry -= off
		} else {
			entry += off
		}
	}

	tp := p.TargetProfitPercent / 100 * entry
	sl := p.StopLossPercent / 100 * entry
	target, stop := entry+tp, entry-sl
	if typ == models.TradeSell {
		target, stop = entry-tp, entry+sl
	}

	t := models.NewTrade(symbol, typ, i, c, entry, target, stop)
	if limit {
		t.Status = models.StatusLimit
		t.LimitIndex, t.LimitTime = i, c.T
		t.FillIndex, t.FillTime = -1, 0
		t.High, t.Low = 0, 0
	}
	return t
}
