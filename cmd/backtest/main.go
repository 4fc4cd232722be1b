package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"trade_engine/internal/indicator"
	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	marketdata "trade_engine/internal/modules/marketdata/service"
	presets "trade_engine/internal/modules/presets/service"
	strategy "trade_engine/internal/modules/strategy/service"
	"trade_engine/internal/notify"
	"trade_engine/internal/recorder"
	"trade_engine/pkg/logger"
)

type options struct {
	symbol    string
	base      string
	companion string
	presets   string
	url       string
	countback int
	oneRecent bool
	verify    bool
	sqlite    string
	out       string
}

func main() {
	var o options
	pflag.StringVarP(&o.symbol, "symbol", "s", "", "symbol to replay (selects the preset)")
	pflag.StringVar(&o.base, "base", "", "5m series JSON file; fetched from --url when empty")
	pflag.StringVar(&o.companion, "companion", "", "15m series JSON file")
	pflag.StringVar(&o.presets, "presets", "configs/presets.yaml", "presets file")
	pflag.StringVar(&o.url, "url", "https://priceapi.moneycontrol.com/techCharts/indianMarket/stock/history", "history endpoint")
	pflag.IntVar(&o.countback, "countback", 4000, "candles to fetch")
	pflag.BoolVar(&o.oneRecent, "one-recent", false, "evaluate only the last candle")
	pflag.BoolVar(&o.verify, "verify", false, "check incremental indicators against a full recompute")
	pflag.StringVar(&o.sqlite, "sqlite", "", "record the run into this SQLite file")
	pflag.StringVarP(&o.out, "out", "o", "", "write the full result JSON here")
	pflag.Parse()

	if err := logger.Init("dev"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), o); err != nil {
		logger.Error("[BT] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	if o.symbol == "" {
		return errors.New("--symbol is required")
	}
	o.symbol = strings.ToUpper(o.symbol)

	store, err := presets.Load(o.presets)
	if err != nil {
		return errors.Wrap(err, "presets")
	}
	preset := store.For(o.symbol)

	base, companion, err := load(ctx, o)
	if err != nil {
		return err
	}
	logger.Info("[BT] %s: %d base, %d companion candles", o.symbol, base.Len(), companion.Len())

	if o.verify {
		devs, err := indicator.Verify(base.Candles(), preset, indicator.DefaultTolerance)
		for _, d := range devs {
			logger.Info("[BT] verify %s", d)
		}
		if err != nil {
			return errors.Wrap(err, "verify")
		}
	}

	started := time.Now()
	res := strategy.TakeTrades(strategy.Input{
		Symbol:             o.symbol,
		Base:               base,
		Companion:          companion,
		Preset:             preset,
		TakeOneRecentTrade: o.oneRecent,
	})

	sum := summarize(res.Trades)
	fmt.Printf("%s: candles=%d trades=%d wins=%d losses=%d open=%d cancelled=%d profit=%s%% in %s\n",
		o.symbol, base.Len(), sum.trades, sum.wins, sum.losses, sum.open, sum.cancelled,
		notify.Price(sum.profitPct), time.Since(started).Round(time.Millisecond))

	if o.out != "" {
		b, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal result")
		}
		if err := os.WriteFile(o.out, b, 0o644); err != nil {
			return errors.Wrap(err, "write result")
		}
	}

	if o.sqlite != "" {
		if err := record(o, preset, base.Len(), started, sum, res.Trades); err != nil {
			return err
		}
	}
	return nil
}

func load(ctx context.Context, o options) (base, companion models.Series, err error) {
	if o.base != "" {
		if base, err = readSeries(o.base); err != nil {
			return base, companion, err
		}
		companion = models.EmptySeries()
		if o.companion != "" {
			if companion, err = readSeries(o.companion); err != nil {
				return base, companion, err
			}
		}
		return base, companion, nil
	}

	cfg := &config.Config{}
	cfg.MarketData.BaseURL = o.url
	cfg.MarketData.Timeout = 30 * time.Second
	src := marketdata.NewClient(cfg)

	now := time.Now()
	if base, err = src.History(ctx, o.symbol, models.Resolution5m, now, o.countback); err != nil {
		return base, companion, errors.Wrap(err, "fetch 5m")
	}
	if companion, err = src.History(ctx, o.symbol, models.Resolution15m, now, o.countback); err != nil {
		logger.Warn("[BT] fetch 15m: %v", err)
	}
	return base, companion, nil
}

func readSeries(path string) (models.Series, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return models.EmptySeries(), errors.Wrapf(err, "read %s", path)
	}
	var s models.Series
	if err := sonic.Unmarshal(b, &s); err != nil {
		return models.EmptySeries(), errors.Wrapf(err, "decode %s", path)
	}
	if !s.Valid() {
		return models.EmptySeries(), errors.Errorf("%s: invalid series (status %q)", path, s.Status)
	}
	return s, nil
}

type summary struct {
	trades, wins, losses, open, cancelled int
	profitPct                             float64
}

// summarize books a full target move for every win and a full stop move
// for every loss, in percent of the entry.
func summarize(ts []models.Trade) summary {
	s := summary{trades: len(ts)}
	for _, t := range ts {
		switch t.Status {
		case models.StatusProfit:
			s.wins++
			s.profitPct += math.Abs(t.Target-t.StartPrice) / t.StartPrice * 100
		case models.StatusLoss:
			s.losses++
			s.profitPct -= math.Abs(t.StartPrice-t.SL) / t.StartPrice * 100
		case models.StatusCancelled:
			s.cancelled++
		default:
			s.open++
		}
	}
	return s
}

func record(o options, p models.Preset, candles int, started time.Time, sum summary, ts []models.Trade) error {
	rec, err := recorder.NewSQLite(o.sqlite)
	if err != nil {
		return err
	}
	defer rec.Close()

	raw, err := sonic.MarshalString(p)
	if err != nil {
		return errors.Wrap(err, "marshal preset")
	}
	id, err := rec.RecordRun(&recorder.Run{
		Symbol:    o.symbol,
		StartedAt: started.Unix(),
		Candles:   candles,
		Trades:    sum.trades,
		Wins:      sum.wins,
		Losses:    sum.losses,
		Open:      sum.open,
		ProfitPct: sum.profitPct,
		Preset:    raw,
	}, ts)
	if err != nil {
		return errors.Wrap(err, "record run")
	}
	logger.Info("[BT] run %d recorded in %s", id, o.sqlite)
	return nil
}
