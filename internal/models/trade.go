package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type TradeType uint8

const (
	TradeBuy TradeType = iota + 1
	TradeSell
)

func (t TradeType) String() string {
	switch t {
	case TradeBuy:
		return "buy"
	case TradeSell:
		return "sell"
	default:
		return "unknown"
	}
}

func (t TradeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TradeType) UnmarshalText(b []byte) error {
	v, err := ParseTradeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func ParseTradeType(s string) (TradeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return TradeBuy, nil
	case "sell":
		return TradeSell, nil
	}
	return 0, fmt.Errorf("unknown trade type %q", s)
}

// TradeTypeOf maps an active fusion signal to a trade direction.
func TradeTypeOf(s Signal) (TradeType, bool) {
	switch s {
	case SignalBuy:
		return TradeBuy, true
	case SignalSell:
		return TradeSell, true
	}
	return 0, false
}

// TradeStatus is the lifecycle state. The zero value means "no change" when
// returned by a completion check.
type TradeStatus uint8

const (
	StatusUnchanged TradeStatus = iota
	StatusLimit
	StatusTaken
	StatusProfit
	StatusLoss
	StatusCancelled
)

var statusNames = map[TradeStatus]string{
	StatusUnchanged: "unchanged",
	StatusLimit:     "limit",
	StatusTaken:     "taken",
	StatusProfit:    "profit",
	StatusLoss:      "loss",
	StatusCancelled: "cancelled",
}

func (s TradeStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// Open is true for taken and limit trades.
func (s TradeStatus) Open() bool { return s == StatusTaken || s == StatusLimit }

func (s TradeStatus) Terminal() bool {
	return s == StatusProfit || s == StatusLoss || s == StatusCancelled
}

func (s TradeStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TradeStatus) UnmarshalText(b []byte) error {
	v, err := ParseTradeStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseTradeStatus(raw string) (TradeStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for k, v := range statusNames {
		if v == raw {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown trade status %q", raw)
}

// Trade is one simulated position. Indices point into the symbol's base series.
type Trade struct {
	ID         uuid.UUID   `json:"id"`
	Symbol     string      `json:"symbol"`
	Type       TradeType   `json:"type"`
	Status     TradeStatus `json:"status"`
	StartIndex int         `json:"startIndex"`
	StartPrice float64     `json:"startPrice"`
	Target     float64     `json:"target"`
	SL         float64     `json:"sl"`
	Time       int64       `json:"time"`

	// limit entries only; LimitIndex is -1 for market entries
	LimitIndex int   `json:"limitIndex"`
	LimitTime  int64 `json:"limitTime,omitempty"`
	FillIndex  int   `json:"fillIndex"`
	FillTime   int64 `json:"fillTime,omitempty"`

	EndIndex int   `json:"endIndex"`
	EndTime  int64 `json:"endTime,omitempty"`

	High float64 `json:"tradeHigh"`
	Low  float64 `json:"tradeLow"`

	Analytics Analytics `json:"analytics"`
}

// NewTrade returns a trade opened at candle idx with unresolved bookkeeping.
func NewTrade(symbol string, typ TradeType, idx int, c Candle, price, target, sl float64) Trade {
	return Trade{
		ID:         uuid.New(),
		Symbol:     symbol,
		Type:       typ,
		Status:     StatusTaken,
		StartIndex: idx,
		StartPrice: price,
		Target:     target,
		SL:         sl,
		Time:       c.T,
		LimitIndex: -1,
		FillIndex:  idx,
		FillTime:   c.T,
		EndIndex:   -1,
		High:       c.H,
		Low:        c.L,
	}
}

func (t Trade) IsSell() bool { return t.Type == TradeSell }

// Alert is the payload handed to the notification layer.
func (t Trade) Alert() TradeAlert {
	return TradeAlert{
		Symbol:     t.Symbol,
		Type:       t.Type,
		StartPrice: t.StartPrice,
		Target:     t.Target,
		SL:         t.SL,
		Time:       t.Time,
	}
}

type TradeAlert struct {
	Symbol     string    `json:"symbol"`
	Type       TradeType `json:"type"`
	StartPrice float64   `json:"startPrice"`
	Target     float64   `json:"target"`
	SL         float64   `json:"sl"`
	Time       int64     `json:"time"`
}

// Decision explains what happened at an evaluated candle.
type Decision string

const (
	DecisionHold          Decision = "hold"
	DecisionOpened        Decision = "opened"
	DecisionNoRoom        Decision = "sr_no_room"
	DecisionSameDirection Decision = "open_same_direction"
	DecisionOutsideHours  Decision = "outside_hours"
	DecisionExhausted     Decision = "candle_colour"
	DecisionLateMove      Decision = "late_move"
)

// Analytics is the diagnostic snapshot recorded for every evaluated candle.
type Analytics struct {
	Index             int                      `json:"index"`
	Time              int64                    `json:"time"`
	Price             float64                  `json:"price"`
	Signals           map[IndicatorName]Signal `json:"allowedIndicatorSignals"`
	TotalPoints       float64                  `json:"totalPoints"`
	NetSignal         Signal                   `json:"netSignal"`
	NearestResistance float64                  `json:"nearestResistance,omitempty"`
	NearestSupport    float64                  `json:"nearestSupport,omitempty"`
	PossibleProfit    float64                  `json:"possibleProfit,omitempty"`
	TargetProfit      float64                  `json:"targetProfit,omitempty"`
	Decision          Decision                 `json:"decision"`
}

type TradeEventKind string

const (
	TradeOpened  TradeEventKind = "opened"
	TradeUpdated TradeEventKind = "updated"
)

// TradeEvent is emitted by the live engine for every trade change.
type TradeEvent struct {
	Kind  TradeEventKind `json:"kind"`
	Trade Trade          `json:"trade"`
}
