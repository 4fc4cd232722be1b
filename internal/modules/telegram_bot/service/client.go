package service

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/notify"
	"trade_engine/pkg/logger"
)

// TradesToday is the read side the bot commands need.
type TradesToday interface {
	Today(ctx context.Context, loc *time.Location) ([]models.Trade, error)
}

// PresetLookup resolves the preset used for a symbol.
type PresetLookup interface {
	For(symbol string) models.Preset
}

// Telegram pushes alerts into one chat and answers a few read-only commands.
type Telegram struct {
	bot     *tgbot.BotAPI
	chatID  int64
	loc     *time.Location
	symbols []string

	trades  TradesToday
	presets PresetLookup
	status  func() string
}

func NewTelegram(cfg *config.Config, trades TradesToday, presets PresetLookup) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:     b,
		chatID:  cfg.Telegram.ChatID,
		loc:     cfg.Location(),
		symbols: cfg.Symbols,
		trades:  trades,
		presets: presets,
	}, nil
}

// SetStatus installs the text source for /status.
func (t *Telegram) SetStatus(fn func() string) { t.status = fn }

func (t *Telegram) Send(_ context.Context, msg string) {
	if t.chatID == 0 {
		return
	}
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("[TG] send: %v", err)
	}
}

func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

func (t *Telegram) TradeAlert(ctx context.Context, tr models.Trade) {
	t.Send(ctx, notify.FormatAlert(tr.Alert(), t.loc))
}

// Start long-polls updates until ctx is done.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, upd)
		}
	}
}

func (t *Telegram) Stop() { t.bot.StopReceivingUpdates() }
