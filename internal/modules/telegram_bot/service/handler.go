package service

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trade_engine/internal/models"
	"trade_engine/internal/notify"
	"trade_engine/pkg/logger"
)

const helpText = "Commands:\n" +
	"/trades - trades taken today\n" +
	"/preset SYMBOL - strategy settings for a symbol\n" +
	"/status - engine state"

func (t *Telegram) handleUpdate(ctx context.Context, upd tgbot.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	// only the configured chat may talk to the bot
	if t.chatID != 0 && msg.Chat.ID != t.chatID {
		return
	}

	var reply string
	switch msg.Command() {
	case "start", "help":
		reply = helpText
	case "trades":
		reply = t.tradesText(ctx)
	case "preset":
		reply = t.presetText(msg.CommandArguments())
	case "status":
		reply = "no status source"
		if t.status != nil {
			reply = t.status()
		}
	default:
		reply = "unknown command\n\n" + helpText
	}

	if _, err := t.bot.Send(tgbot.NewMessage(msg.Chat.ID, reply)); err != nil {
		logger.Error("[TG] reply %s: %v", msg.Command(), err)
	}
}

func (t *Telegram) tradesText(ctx context.Context) string {
	ts, err := t.trades.Today(ctx, t.loc)
	if err != nil {
		logger.Error("[TG] trades today: %v", err)
		return "❗️ could not load trades"
	}
	return notify.FormatTrades(ts, t.loc)
}

func (t *Telegram) presetText(arg string) string {
	sym := strings.ToUpper(strings.TrimSpace(arg))
	if sym == "" {
		return "usage: /preset SYMBOL (watching " + strings.Join(t.symbols, ", ") + ")"
	}
	return formatPreset(sym, t.presets.For(sym))
}

func formatPreset(sym string, p models.Preset) string {
	names := strings.Join(p.Indicators.Names(), ", ")
	if names == "" {
		names = "none"
	}
	return fmt.Sprintf(
		"⚙️ %s\n"+
			"Target: %s%%  Stop: %s%%\n"+
			"Decision points: %s\n"+
			"Limit offset: %s%%\n"+
			"S/R room check: %s\n"+
			"Indicators: %s",
		sym,
		f2(p.TargetProfitPercent), f2(p.StopLossPercent),
		f2(p.DecisionMakingPoints),
		f2(p.LimitOffsetPercent),
		onOff(p.UseSupportResistances),
		names,
	)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func f2(v float64) string { return notify.Price(v) }
