package runner

import (
	"context"

	"trade_engine/internal/models"
	stream "trade_engine/internal/modules/stream/service"
	trades "trade_engine/internal/modules/trades/service"
	"trade_engine/internal/notify"
	"trade_engine/internal/recorder"
	"trade_engine/pkg/logger"
)

// Broadcaster pushes events to websocket subscribers.
type Broadcaster interface {
	Broadcast(event string, data any) int
}

// TradePayload is what websocket subscribers receive for a trade change.
type TradePayload struct {
	Symbol string         `json:"symbol"`
	Kind   string         `json:"kind"`
	Trades []models.Trade `json:"trades"`
}

// Dispatcher persists trade events and fans them out.
type Dispatcher struct {
	repo trades.Repository
	n    notify.Notifier
	ws   Broadcaster
	rec  recorder.Recorder
}

func NewDispatcher(repo trades.Repository, n notify.Notifier, ws *stream.Server, rec recorder.Recorder) *Dispatcher {
	return &Dispatcher{repo: repo, n: n, ws: ws, rec: rec}
}

// Run consumes events until ctx is done or the channel is closed.
func (d *Dispatcher) Run(ctx context.Context, events <-chan models.TradeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.Handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) Handle(ctx context.Context, ev models.TradeEvent) {
	t := ev.Trade
	if err := d.repo.Upsert(ctx, t); err != nil {
		logger.Error("[RUN] store %s %s: %v", t.Symbol, t.ID, err)
	}
	if err := d.rec.RecordEvent(ev); err != nil {
		logger.Error("[RUN] journal %s: %v", t.ID, err)
	}

	payload := TradePayload{Symbol: t.Symbol, Kind: string(ev.Kind), Trades: []models.Trade{t}}
	switch ev.Kind {
	case models.TradeOpened:
		logger.Info("[RUN] %s %s @ %.2f tp=%.2f sl=%.2f", t.Symbol, t.Type, t.StartPrice, t.Target, t.SL)
		d.n.TradeAlert(ctx, t)
		d.ws.Broadcast(stream.EventTradeTaken, payload)
	case models.TradeUpdated:
		logger.Info("[RUN] %s %s -> %s", t.Symbol, t.ID, t.Status)
		d.ws.Broadcast(stream.EventTradeUpdated, payload)
		if t.Status.Terminal() {
			d.n.Send(ctx, notify.FormatClosed(t))
		}
	}
}
