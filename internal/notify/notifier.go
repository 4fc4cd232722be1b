package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// Notifier delivers trade alerts and operational messages.
type Notifier interface {
	Send(ctx context.Context, msg string)
	SendService(ctx context.Context, format string, args ...any)
	TradeAlert(ctx context.Context, t models.Trade)
}

// Stdout writes everything to the service log.
type Stdout struct {
	loc *time.Location
}

func NewStdout(loc *time.Location) *Stdout {
	if loc == nil {
		loc = time.UTC
	}
	return &Stdout{loc: loc}
}

func (s *Stdout) Send(_ context.Context, msg string) { logger.Info("[NOTIFY] %s", msg) }

func (s *Stdout) SendService(_ context.Context, format string, args ...any) {
	logger.Info("[NOTIFY] "+format, args...)
}

func (s *Stdout) TradeAlert(_ context.Context, t models.Trade) {
	logger.Info("[NOTIFY] %s", strings.ReplaceAll(FormatAlert(t.Alert(), s.loc), "\n", " | "))
}

// Price renders a price with two decimals, half away from zero.
func Price(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// Percent renders the move from from to to in percent of from.
func Percent(from, to float64) string {
	if from == 0 {
		return "0.00"
	}
	f := decimal.NewFromFloat(from)
	d := decimal.NewFromFloat(to).Sub(f).Div(f).Mul(decimal.NewFromInt(100))
	return d.Abs().Round(2).StringFixed(2)
}

func FormatAlert(a models.TradeAlert, loc *time.Location) string {
	side := "🟢 BUY"
	if a.Type == models.TradeSell {
		side = "🔴 SELL"
	}
	return fmt.Sprintf(
		"%s %s\nEntry: %s\nTarget: %s (%s%%)\nStop: %s (%s%%)\nTime: %s",
		side, a.Symbol,
		Price(a.StartPrice),
		Price(a.Target), Percent(a.StartPrice, a.Target),
		Price(a.SL), Percent(a.StartPrice, a.SL),
		time.Unix(a.Time, 0).In(loc).Format("02 Jan 15:04"),
	)
}

// FormatTrades renders a day of trades one per line.
func FormatTrades(ts []models.Trade, loc *time.Location) string {
	if len(ts) == 0 {
		return "📭 No trades today"
	}
	var b strings.Builder
	b.WriteString("📊 Trades today:\n")
	for _, t := range ts {
		fmt.Fprintf(&b, "%s %s %s @ %s → %s (tp %s / sl %s)\n",
			time.Unix(t.Time, 0).In(loc).Format("15:04"),
			t.Symbol, t.Type, Price(t.StartPrice), t.Status,
			Price(t.Target), Price(t.SL),
		)
	}
	return b.String()
}

// FormatClosed renders a trade that reached a terminal state.
func FormatClosed(t models.Trade) string {
	icon := "⚪️"
	switch t.Status {
	case models.StatusProfit:
		icon = "✅"
	case models.StatusLoss:
		icon = "❌"
	}
	return fmt.Sprintf("%s %s %s %s (entry %s, tp %s, sl %s)",
		icon, t.Symbol, t.Type, t.Status, Price(t.StartPrice), Price(t.Target), Price(t.SL))
}
