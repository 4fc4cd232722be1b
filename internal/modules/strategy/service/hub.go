package service

import (
	"context"
	"sync"
	"time"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Hub feeds candles into the engine and publishes trade changes.
type Hub struct {
	cfg *config.Config
	n   ServiceNotifier
	out chan<- models.TradeEvent

	engine Engine

	mu            sync.Mutex
	readyCnt      int
	ready         map[string]bool
	warmupDone    bool
	warmupMsgSent bool
	lastProgress  time.Time
	lastTick      time.Time
	startedAt     time.Time
}

func NewHub(cfg *config.Config, n ServiceNotifier, out chan<- models.TradeEvent, engine Engine) *Hub {
	return &Hub{
		cfg:       cfg,
		n:         n,
		out:       out,
		engine:    engine,
		ready:     make(map[string]bool),
		startedAt: time.Now(),
	}
}

// OnTick runs one closed candle through the engine and publishes every
// trade it opened or changed.
func (h *Hub) OnTick(ctx context.Context, t models.CandleTick) Step {
	step, becameReady := h.engine.OnCandle(t)

	if becameReady {
		h.onBecameReady(ctx, t.InstID)
	} else {
		h.maybeWarmupProgress(ctx)
	}
	if step.Index < 0 {
		return step
	}

	h.mu.Lock()
	h.lastTick = time.Now()
	h.mu.Unlock()

	for _, tr := range step.Updated {
		h.publish(ctx, models.TradeEvent{Kind: models.TradeUpdated, Trade: tr})
	}
	for _, tr := range step.Opened {
		h.publish(ctx, models.TradeEvent{Kind: models.TradeOpened, Trade: tr})
	}
	return step
}

// Seed loads history for a symbol and counts it towards warm-up.
func (h *Hub) Seed(ctx context.Context, symbol string, base, companion []models.Candle, prior []models.Trade) int {
	n := h.engine.Seed(symbol, base, companion, prior)
	if h.engine.IsReady(symbol) {
		h.onBecameReady(ctx, symbol)
	}
	return n
}

func (h *Hub) publish(ctx context.Context, ev models.TradeEvent) {
	// never block the candle path
	select {
	case h.out <- ev:
	default:
		if h.n != nil {
			h.n.SendService(ctx, "⚠️ trade channel full, drop %s %s %s @ %.2f",
				ev.Kind, ev.Trade.Symbol, ev.Trade.Type, ev.Trade.StartPrice)
		}
	}
}

func (h *Hub) expected() int { return len(h.cfg.Symbols) }

func (h *Hub) onBecameReady(ctx context.Context, sym string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ready[sym] {
		return
	}
	h.ready[sym] = true
	h.readyCnt++

	if !h.warmupMsgSent {
		h.warmupMsgSent = true
		h.lastProgress = time.Now()
		if h.n != nil {
			h.n.SendService(ctx,
				"🔥 Warmup started | engine=%s | base=5m companion=15m | expecting=%d",
				h.engine.Name(), h.expected(),
			)
		}
	}

	if !h.warmupDone && h.readyCnt >= h.expected() {
		h.warmupDone = true
		if h.n != nil {
			h.n.SendService(ctx, "✅ Warmup finished: %d/%d ready, waiting for signals.",
				h.readyCnt, h.expected())
		}
	}
}

func (h *Hub) maybeWarmupProgress(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.warmupMsgSent || h.warmupDone || h.n == nil {
		return
	}
	if h.cfg.Strategy.ProgressEvery <= 0 {
		return
	}
	if time.Since(h.lastProgress) < h.cfg.Strategy.ProgressEvery {
		return
	}

	h.n.SendService(ctx, "⏳ Warmup progress: %d/%d ready", h.readyCnt, h.expected())
	h.lastProgress = time.Now()
}

func (h *Hub) IsWarmupDone() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.warmupDone
}

func (h *Hub) LastTick() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastTick
}

func (h *Hub) Engine() Engine { return h.engine }
