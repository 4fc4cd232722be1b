package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trade_engine/internal/helper"
	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	health "trade_engine/internal/modules/health/service"
	marketdata "trade_engine/internal/modules/marketdata/service"
	strategy "trade_engine/internal/modules/strategy/service"
	"trade_engine/pkg/logger"
	"trade_engine/pkg/tracing"
)

// History is where the scheduler polls candles from.
type History interface {
	Series(ctx context.Context, symbol string, res models.Resolution) (models.Series, error)
}

// Cursor tells which candles the engine has already seen.
type Cursor interface {
	LastTimes(symbol string) (base, companion int64)
}

// Scheduler polls the market data on a cron schedule during market hours
// and forwards new closed candles to the strategy hub.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	loc      *time.Location
	open     string
	close    string
	symbols  []string
	parallel int

	data   History
	cursor Cursor
	ticks  chan<- models.CandleTick
	state  *health.State
	now    func() time.Time
}

func NewScheduler(cfg *config.Config, data *marketdata.Cache, hub *strategy.Hub, ticks chan<- models.CandleTick, state *health.State) *Scheduler {
	return newScheduler(cfg, data, hub.Engine(), ticks, state)
}

func newScheduler(cfg *config.Config, data History, cursor Cursor, ticks chan<- models.CandleTick, state *health.State) *Scheduler {
	loc := cfg.Location()
	parallel := cfg.MarketData.Parallel
	if parallel <= 0 {
		parallel = 8
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		schedule: cfg.Market.Schedule,
		loc:      loc,
		open:     cfg.Market.Open,
		close:    cfg.Market.Close,
		symbols:  cfg.Symbols,
		parallel: parallel,
		data:     data,
		cursor:   cursor,
		ticks:    ticks,
		state:    state,
		now:      time.Now,
	}
}

// Start registers the polling job and starts the cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Cycle(ctx); err != nil {
			logger.Error("[RUN] cycle: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register poll %q: %w", s.schedule, err)
	}
	s.cron.Start()
	logger.Info("[RUN] scheduler started: %q %s-%s %s", s.schedule, s.open, s.close, s.loc)
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("[RUN] scheduler stopped")
}

// Cycle polls every symbol once. Outside market hours and before the
// history warm-up it does nothing.
func (s *Scheduler) Cycle(ctx context.Context) error {
	now := s.now()
	if !helper.InSession(now, s.loc, s.open, s.close) {
		return nil
	}
	if !s.state.Ready() {
		logger.Info("[RUN] warmup in progress, skip cycle")
		return nil
	}

	span, ctx := tracing.StartSpan(ctx, "runner.cycle", opentracing.Tags{"symbols": len(s.symbols)})

	var g errgroup.Group
	g.SetLimit(s.parallel)
	for _, sym := range s.symbols {
		sym := sym
		g.Go(func() error {
			n, err := s.poll(ctx, sym, now)
			if err != nil {
				logger.Error("[RUN] %s: %v", sym, err)
				return err
			}
			if n > 0 {
				s.state.TouchTick(now)
				logger.With(zap.String("symbol", sym), zap.Int("candles", n)).Info("[RUN] candles forwarded")
			}
			return nil
		})
	}
	err := g.Wait()

	s.state.TouchCycle(now)
	tracing.Finish(span, err)
	return err
}

// poll forwards candles newer than the engine cursor. Companion candles go
// first so the base candle closing with them can see them.
func (s *Scheduler) poll(ctx context.Context, sym string, now time.Time) (sent int, err error) {
	span, ctx := tracing.StartSpan(ctx, "runner.poll", opentracing.Tags{"symbol": sym})
	defer func() { tracing.Finish(span, err) }()

	base, err := s.data.Series(ctx, sym, models.Resolution5m)
	if err != nil {
		return 0, fmt.Errorf("5m: %w", err)
	}
	companion, err := s.data.Series(ctx, sym, models.Resolution15m)
	if err != nil {
		logger.Warn("[RUN] %s 15m: %v", sym, err)
	}

	lastBase, lastCompanion := s.cursor.LastTimes(sym)
	for _, c := range marketdata.Closed(companion.Candles(), models.Resolution15m, now) {
		if c.T <= lastCompanion {
			continue
		}
		if err := s.send(ctx, sym, "15m", c); err != nil {
			return sent, err
		}
	}
	for _, c := range marketdata.Closed(base.Candles(), models.Resolution5m, now) {
		if c.T <= lastBase {
			continue
		}
		if err := s.send(ctx, sym, "5m", c); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) send(ctx context.Context, sym, tf string, c models.Candle) error {
	select {
	case s.ticks <- models.CandleTick{InstID: sym, TimeframeRaw: tf, Candle: c}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
