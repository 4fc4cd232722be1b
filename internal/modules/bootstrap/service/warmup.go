package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	health "trade_engine/internal/modules/health/service"
	marketdata "trade_engine/internal/modules/marketdata/service"
	strategy "trade_engine/internal/modules/strategy/service"
	trades "trade_engine/internal/modules/trades/service"
	"trade_engine/pkg/logger"
)

// History is the candle source used for seeding.
type History interface {
	Series(ctx context.Context, symbol string, res models.Resolution) (models.Series, error)
}

// Warmuper seeds the live engine with each symbol's closed history and the
// trades still open from earlier runs.
type Warmuper struct {
	data  History
	repo  trades.Repository
	hub   *strategy.Hub
	state *health.State
	n     strategy.ServiceNotifier
	now   func() time.Time

	// bounds parallel downloads
	sem chan struct{}
}

func NewWarmuper(cfg *config.Config, data *marketdata.Cache, repo trades.Repository, hub *strategy.Hub, state *health.State, n strategy.ServiceNotifier) *Warmuper {
	return newWarmuper(data, repo, hub, state, n, cfg.MarketData.Parallel)
}

func newWarmuper(data History, repo trades.Repository, hub *strategy.Hub, state *health.State, n strategy.ServiceNotifier, parallel int) *Warmuper {
	if parallel <= 0 {
		parallel = 8
	}
	return &Warmuper{
		data:  data,
		repo:  repo,
		hub:   hub,
		state: state,
		n:     n,
		now:   time.Now,
		sem:   make(chan struct{}, parallel),
	}
}

// Warmup seeds every symbol. Failed symbols are logged and skipped; the
// first failure is returned after all symbols have been tried.
func (w *Warmuper) Warmup(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		w.state.SetReady(true)
		return nil
	}

	w.n.SendService(ctx, "🔥 History warmup start: symbols=%d", len(symbols))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		seeded   atomic.Int64
	)
	for _, sym := range symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.sem <- struct{}{}
			defer func() { <-w.sem }()

			n, err := w.seed(ctx, sym)
			if err != nil {
				logger.Error("[BOOT] %s: %v", sym, err)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			seeded.Add(1)
			logger.Info("[BOOT] %s seeded with %d candles", sym, n)
		}()
	}
	wg.Wait()

	w.state.SetSeeded(int(seeded.Load()))
	w.state.SetReady(true)

	if firstErr != nil {
		w.n.SendService(ctx, "⚠️ History warmup finished with errors: %d/%d seeded, first: %v",
			seeded.Load(), len(symbols), firstErr)
		return firstErr
	}
	w.n.SendService(ctx, "✅ History warmup finished: %d symbols", len(symbols))
	return nil
}

func (w *Warmuper) seed(ctx context.Context, sym string) (int, error) {
	now := w.now()

	base, err := w.data.Series(ctx, sym, models.Resolution5m)
	if err != nil {
		return 0, fmt.Errorf("warmup 5m %s: %w", sym, err)
	}
	companion, err := w.data.Series(ctx, sym, models.Resolution15m)
	if err != nil {
		// the engine still runs on the base series alone
		logger.Warn("[BOOT] %s 15m history: %v", sym, err)
	}

	open, err := w.repo.OpenBySymbol(ctx, sym)
	if err != nil {
		return 0, fmt.Errorf("open trades %s: %w", sym, err)
	}

	bc := marketdata.Closed(base.Candles(), models.Resolution5m, now)
	cc := marketdata.Closed(companion.Candles(), models.Resolution15m, now)
	return w.hub.Seed(ctx, sym, bc, cc, open), nil
}
