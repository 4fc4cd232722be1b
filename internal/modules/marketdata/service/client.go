package service

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
)

// Source is anything that returns OHLCV history ending at a point in time.
type Source interface {
	History(ctx context.Context, symbol string, res models.Resolution, to time.Time, countback int) (models.Series, error)
}

// Client talks to the chart history endpoint, which answers with the
// {s,t,o,h,l,c,v} series shape.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.MarketData.BaseURL,
	}
}

func (c *Client) History(ctx context.Context, symbol string, res models.Resolution, to time.Time, countback int) (models.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", strconv.Itoa(int(res)))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	q.Set("countback", strconv.Itoa(countback))
	q.Set("currencyCode", "INR")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return models.EmptySeries(), errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return models.EmptySeries(), errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.EmptySeries(), errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return models.EmptySeries(), errors.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var s models.Series
	if err := sonic.Unmarshal(body, &s); err != nil {
		return models.EmptySeries(), errors.Wrap(err, "decode")
	}
	if !s.Valid() {
		return models.EmptySeries(), errors.Errorf("%s %dm: status %q, %d candles", symbol, res, s.Status, s.Len())
	}
	return s, nil
}
