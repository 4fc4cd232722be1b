package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trade_engine/internal/models"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestPrice(t *testing.T) {
	assert.Equal(t, "103.43", Price(103.428))
	assert.Equal(t, "100.00", Price(100))
	assert.Equal(t, "-1.50", Price(-1.5))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "1.40", Percent(100, 101.4))
	assert.Equal(t, "0.70", Percent(100, 99.3))
	assert.Equal(t, "0.00", Percent(0, 5))
}

func TestFormatAlert(t *testing.T) {
	at := time.Date(2024, 1, 2, 10, 5, 0, 0, ist).Unix()
	msg := FormatAlert(models.TradeAlert{
		Symbol: "TATAMOTORS", Type: models.TradeSell,
		StartPrice: 100, Target: 98.6, SL: 100.7, Time: at,
	}, ist)

	lines := strings.Split(msg, "\n")
	assert.Equal(t, "🔴 SELL TATAMOTORS", lines[0])
	assert.Equal(t, "Entry: 100.00", lines[1])
	assert.Equal(t, "Target: 98.60 (1.40%)", lines[2])
	assert.Equal(t, "Stop: 100.70 (0.70%)", lines[3])
	assert.Equal(t, "Time: 02 Jan 10:05", lines[4])
}

func TestFormatTrades(t *testing.T) {
	assert.Equal(t, "📭 No trades today", FormatTrades(nil, ist))

	at := time.Date(2024, 1, 2, 9, 40, 0, 0, ist).Unix()
	out := FormatTrades([]models.Trade{{
		Symbol: "AAA", Type: models.TradeBuy, Status: models.StatusTaken,
		StartPrice: 10, Target: 10.14, SL: 9.93, Time: at,
	}}, ist)
	assert.Contains(t, out, "09:40 AAA buy @ 10.00 → taken (tp 10.14 / sl 9.93)")
}

func TestFormatClosed(t *testing.T) {
	out := FormatClosed(models.Trade{Symbol: "AAA", Type: models.TradeBuy, Status: models.StatusProfit, StartPrice: 10, Target: 10.14, SL: 9.93})
	assert.True(t, strings.HasPrefix(out, "✅ AAA buy profit"))
}
