package service

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"trade_engine/internal/indicator"
	"trade_engine/internal/models"
)

const (
	baseRes      = models.Resolution5m
	companionRes = models.Resolution15m

	// earliest index with enough candles behind it for the filters
	minEvalIndex = 3
)

// Session is the incremental state of one symbol: candles, indicator
// history, pivots, ranges, raw signals and trades. It is not safe for
// concurrent use; the engine serialises access per symbol.
type Session struct {
	symbol string
	preset models.Preset
	loc    *time.Location
	start  int

	candles []models.Candle
	closes  []float64
	times   []int64

	companion []models.Candle
	visible   int
	closes15  []float64
	times15   []int64

	pipeline *indicator.Pipeline

	pivots   *Pivots
	pivots15 *Pivots
	dirty    bool
	dirty15  bool
	ranges   []Range
	strong   []Range
	ranges15 []Range
	strong15 []Range

	signals   []RawSignals
	trades    []models.Trade
	pending   []models.Trade
	analytics []models.Analytics
}

// NewSession returns an empty session. Decisions start at candle index
// start; a negative start uses the preset warm-up.
func NewSession(symbol string, p models.Preset, start int) *Session {
	p = p.Normalize()
	if start < 0 {
		start = p.Warmup
	}
	return &Session{
		symbol:   symbol,
		preset:   p,
		loc:      p.Location(),
		start:    start,
		pipeline: indicator.NewPipeline(p),
		pivots:   NewPivots(p.VPointOffset),
		pivots15: NewPivots(p.VPointOffset),
	}
}

// Step is what one appended candle produced.
type Step struct {
	Index     int
	Opened    []models.Trade
	Updated   []models.Trade
	Analytics *models.Analytics
}

// Result is the output of a run.
type Result struct {
	Trades     []models.Trade       `json:"trades"`
	Analytics  []models.Analytics   `json:"analytics"`
	Indicators []indicator.Snapshot `json:"indicators"`
}

func (s *Session) Symbol() string { return s.symbol }

func (s *Session) Len() int { return len(s.candles) }

// Ready reports whether the next appended candle will be evaluated.
func (s *Session) Ready() bool { return len(s.candles) >= max(s.start, minEvalIndex) }

// AppendCompanion feeds a 15m candle. It becomes visible to the base scan
// once a base candle closing at or after its close is appended. Candles
// that do not advance time are ignored.
func (s *Session) AppendCompanion(c models.Candle) bool {
	if n := len(s.companion); n > 0 && c.T <= s.companion[n-1].T {
		return false
	}
	s.companion = append(s.companion, c)
	return true
}

// Restore hands over trades from a previous run. They are placed on this
// session's series by timestamp as soon as the series covers them.
func (s *Session) Restore(prior []models.Trade) {
	for _, t := range prior {
		t.Analytics.Signals = maps.Clone(t.Analytics.Signals)
		s.pending = append(s.pending, t)
	}
	s.anchorPending()
}

// Append extends the series by one base candle and runs every per-candle
// stage in order. Candles that do not advance time are dropped and yield a
// Step with Index -1.
func (s *Session) Append(c models.Candle) Step {
	if n := len(s.candles); n > 0 && c.T <= s.candles[n-1].T {
		return Step{Index: -1}
	}

	i := len(s.candles)
	s.candles = append(s.candles, c)
	s.closes = append(s.closes, c.C)
	s.times = append(s.times, c.T)
	s.signals = append(s.signals, nil)

	s.pipeline.Update(c)
	if s.pivots.Extend(s.closes, s.times) {
		s.dirty = true
	}
	s.syncCompanion(c)
	s.anchorPending()

	step := Step{Index: i}
	for k := range s.trades {
		if advanceTrade(&s.trades[k], s.candles, i, s.preset.LimitTimeoutCandles) {
			step.Updated = append(step.Updated, s.trades[k])
		}
	}

	if i < s.start || i < minEvalIndex {
		return step
	}
	a, opened := s.evaluate(i)
	s.analytics = append(s.analytics, a)
	step.Analytics = &a
	if opened != nil {
		s.trades = append(s.trades, *opened)
		step.Opened = append(step.Opened, *opened)
	}
	return step
}

func (s *Session) syncCompanion(base models.Candle) {
	closeAt := base.T + int64(baseRes.Duration().Seconds())
	step := int64(companionRes.Duration().Seconds())
	for s.visible < len(s.companion) && s.companion[s.visible].T+step <= closeAt {
		c := s.companion[s.visible]
		s.closes15 = append(s.closes15, c.C)
		s.times15 = append(s.times15, c.T)
		s.visible++
	}
	if s.pivots15.Extend(s.closes15, s.times15) {
		s.dirty15 = true
	}
}

// anchorPending moves restored trades onto the series once every timestamp
// they carry is covered. An exact timestamp match keeps its candle; a gap
// maps to the last candle before it.
func (s *Session) anchorPending() {
	if len(s.pending) == 0 || len(s.candles) == 0 {
		return
	}
	last := s.times[len(s.times)-1]
	kept := s.pending[:0]
	for _, t := range s.pending {
		if max(t.Time, t.LimitTime, t.FillTime, t.EndTime) > last {
			kept = append(kept, t)
			continue
		}
		t.StartIndex = s.indexAt(t.Time)
		if t.LimitTime != 0 {
			t.LimitIndex = s.indexAt(t.LimitTime)
		} else {
			t.LimitIndex = -1
		}
		if t.FillTime != 0 {
			t.FillIndex = s.indexAt(t.FillTime)
		} else if t.Status == models.StatusTaken {
			t.FillIndex = t.StartIndex
		} else {
			t.FillIndex = -1
		}
		if t.EndTime != 0 {
			t.EndIndex = s.indexAt(t.EndTime)
		} else {
			t.EndIndex = -1
		}
		s.trades = append(s.trades, t)
	}
	s.pending = kept
}

func (s *Session) indexAt(ts int64) int {
	i, found := slices.BinarySearch(s.times, ts)
	if !found {
		i--
	}
	return i
}

func (s *Session) rebuildRanges() {
	if s.dirty {
		s.ranges = BuildRanges(s.pivots.Points(), s.closes, baseRes)
		s.strong = StrongOnly(s.ranges)
		s.dirty = false
	}
	if s.dirty15 {
		s.ranges15 = BuildRanges(s.pivots15.Points(), s.closes15, companionRes)
		s.strong15 = StrongOnly(s.ranges15)
		s.dirty15 = false
	}
}

func (s *Session) evaluate(i int) (models.Analytics, *models.Trade) {
	s.rebuildRanges()
	p := s.preset
	c := s.candles[i]

	raw := computeSignals(evalInput{
		candles:  s.candles,
		snaps:    s.pipeline.History(),
		i:        i,
		strong:   s.strong,
		strong15: s.strong15,
		preset:   p,
	})
	s.signals[i] = raw

	prev1 := s.signals[i-1]
	prev2 := prev1
	if p.StrictCarryForward {
		prev2 = s.signals[i-2]
	}
	f := Fuse(raw, prev1, prev2, p)

	a := models.Analytics{
		Index:       i,
		Time:        c.T,
		Price:       c.C,
		Signals:     map[models.IndicatorName]models.Signal(f.Final),
		TotalPoints: f.Total,
		NetSignal:   f.Net,
		Decision:    models.DecisionHold,
	}
	if _, ok := a.Signals[models.IndicatorSR]; !ok {
		a.Signals[models.IndicatorSR] = raw[models.IndicatorSR]
	}

	typ, ok := models.TradeTypeOf(f.Net)
	if !ok {
		return a, nil
	}

	a.TargetProfit = p.TargetProfitPercent / 100 * c.C
	a.PossibleProfit = a.TargetProfit
	if level, found := nearestLevel(typ, c.C, s.strong); found {
		a.PossibleProfit = math.Abs(level - c.C)
		if typ == models.TradeBuy {
			a.NearestResistance = level
		} else {
			a.NearestSupport = level
		}
	}
	if p.UseSupportResistances && a.PossibleProfit < a.TargetProfit {
		a.Decision = models.DecisionNoRoom
		return a, nil
	}

	adm := admission{
		trades:  append(slices.Clip(s.trades), s.pending...),
		candles: s.candles,
		i:       i,
		preset:  p,
		loc:     s.loc,
	}
	if a.Decision = adm.admit(typ); a.Decision != models.DecisionOpened {
		return a, nil
	}
	t := openTrade(s.symbol, typ, s.candles, i, p)
	t.Analytics = a
	return a, &t
}

// Trades returns a copy of the session's trades in opening order.
func (s *Session) Trades() []models.Trade {
	return append([]models.Trade{}, s.trades...)
}

// Result snapshots everything the session has produced. Restored trades
// that the series never reached are returned unchanged.
func (s *Session) Result() Result {
	r := Result{
		Trades:     make([]models.Trade, 0, len(s.trades)+len(s.pending)),
		Analytics:  append([]models.Analytics{}, s.analytics...),
		Indicators: append([]indicator.Snapshot{}, s.pipeline.History()...),
	}
	r.Trades = append(r.Trades, s.trades...)
	r.Trades = append(r.Trades, s.pending...)
	return r
}

// Ranges returns the current 5m and 15m ranges.
func (s *Session) Ranges() (base, companion []Range) {
	s.rebuildRanges()
	return s.ranges, s.ranges15
}

func (s *Session) Dump() string {
	open := 0
	for _, t := range s.trades {
		if t.Status.Open() {
			open++
		}
	}
	return fmt.Sprintf("%s candles=%d/%d companion=%d/%d pivots=%d/%d strong=%d/%d trades=%d open=%d",
		s.symbol, len(s.candles), s.start, s.visible, len(s.companion),
		s.pivots.Len(), s.pivots15.Len(), len(s.strong), len(s.strong15),
		len(s.trades), open)
}
