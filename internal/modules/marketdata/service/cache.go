package service

import (
	"context"
	"sync"
	"time"

	"trade_engine/internal/models"
)

const refreshCountback = 100

type cacheKey struct {
	symbol string
	res    models.Resolution
}

type cacheEntry struct {
	day     string
	candles []models.Candle
}

// Cache keeps one full history download per symbol, resolution and market
// day and tops it up with short refresh downloads.
type Cache struct {
	src       Source
	countback int
	loc       *time.Location
	now       func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

func NewCache(src Source, countback int, loc *time.Location) *Cache {
	if countback <= 0 {
		countback = 4000
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Cache{
		src:       src,
		countback: countback,
		loc:       loc,
		now:       time.Now,
		entries:   make(map[cacheKey]*cacheEntry),
	}
}

// Series returns the cached history merged with the latest refresh. On a
// failed download the error is returned together with whatever is cached,
// or an empty series when nothing is.
func (c *Cache) Series(ctx context.Context, symbol string, res models.Resolution) (models.Series, error) {
	now := c.now()
	day := now.In(c.loc).Format(time.DateOnly)
	key := cacheKey{symbol: symbol, res: res}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || e.day != day {
		s, err := c.src.History(ctx, symbol, res, now, c.countback)
		if err != nil {
			return cachedOrEmpty(e), err
		}
		e = &cacheEntry{day: day, candles: s.Candles()}
		c.store(key, e)
		return models.SeriesFromCandles(e.candles), nil
	}

	s, err := c.src.History(ctx, symbol, res, now, refreshCountback)
	if err != nil {
		return cachedOrEmpty(e), err
	}
	merged := &cacheEntry{day: day, candles: MergeCandles(e.candles, s.Candles())}
	c.store(key, merged)
	return models.SeriesFromCandles(merged.candles), nil
}

func (c *Cache) store(key cacheKey, e *cacheEntry) {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func cachedOrEmpty(e *cacheEntry) models.Series {
	if e == nil || len(e.candles) == 0 {
		return models.EmptySeries()
	}
	return models.SeriesFromCandles(e.candles)
}

// MergeCandles appends fresh candles newer than the last old one. A fresh
// candle with the same start time replaces the old one, which keeps a
// still-forming candle up to date.
func MergeCandles(old, fresh []models.Candle) []models.Candle {
	out := append([]models.Candle{}, old...)
	for _, c := range fresh {
		n := len(out)
		switch {
		case n == 0 || c.T > out[n-1].T:
			out = append(out, c)
		case c.T == out[n-1].T:
			out[n-1] = c
		}
	}
	return out
}

// Closed drops candles that have not finished at now.
func Closed(cs []models.Candle, res models.Resolution, now time.Time) []models.Candle {
	step := int64(res.Duration().Seconds())
	n := len(cs)
	for n > 0 && cs[n-1].T+step > now.Unix() {
		n--
	}
	return cs[:n]
}
