package helper

import (
	"strings"
	"time"

	"trade_engine/internal/models"
)

func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "60", "1h":
		return "1h"
	case "15m", "15":
		return "15m"
	case "5m", "5":
		return "5m"
	default:
		return s
	}
}

// ResolutionOf maps a timeframe label to a resolution.
func ResolutionOf(raw string) (models.Resolution, bool) {
	switch NormTF(raw) {
	case "5m":
		return models.Resolution5m, true
	case "15m":
		return models.Resolution15m, true
	case "1h":
		return models.Resolution60m, true
	}
	return 0, false
}

// SlotStart aligns t down to the start of its candle slot.
func SlotStart(t time.Time, res models.Resolution) time.Time {
	step := int64(res.Duration().Seconds())
	if step <= 0 {
		return t
	}
	sec := t.Unix()
	sec -= sec % step
	return time.Unix(sec, 0).In(t.Location())
}

// MinuteOfDay is minutes since local midnight in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	l := t.In(loc)
	return l.Hour()*60 + l.Minute()
}

// ParseClock reads "HH:MM" as minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// InSession reports whether t falls inside [open, close] local time, both
// ends inclusive at minute resolution. Unparseable bounds close the session.
func InSession(t time.Time, loc *time.Location, open, close string) bool {
	from, err := ParseClock(open)
	if err != nil {
		return false
	}
	until, err := ParseClock(close)
	if err != nil {
		return false
	}
	m := MinuteOfDay(t, loc)
	return m >= from && m <= until
}
