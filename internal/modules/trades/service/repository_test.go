package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade_engine/internal/models"
)

func TestMemoryUpsertKeepsEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tr := models.Trade{ID: uuid.New(), Symbol: "AAA", Type: models.TradeBuy, Status: models.StatusTaken, StartPrice: 100, Target: 101, SL: 99, Time: 10}
	require.NoError(t, m.Upsert(ctx, tr))

	upd := tr
	upd.Status = models.StatusProfit
	upd.EndTime = 50
	upd.High = 101.2
	upd.StartPrice = 1 // ignored for known trades
	require.NoError(t, m.Upsert(ctx, upd))

	open, err := m.OpenBySymbol(ctx, "AAA")
	require.NoError(t, err)
	assert.Empty(t, open)

	all := m.filter(func(models.Trade) bool { return true })
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusProfit, all[0].Status)
	assert.Equal(t, int64(50), all[0].EndTime)
	assert.Equal(t, 101.2, all[0].High)
	assert.Equal(t, 100.0, all[0].StartPrice)
}

func TestMemoryOpenBySymbol(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Upsert(ctx,
		models.Trade{ID: uuid.New(), Symbol: "AAA", Status: models.StatusLimit, Time: 30},
		models.Trade{ID: uuid.New(), Symbol: "AAA", Status: models.StatusTaken, Time: 20},
		models.Trade{ID: uuid.New(), Symbol: "AAA", Status: models.StatusLoss, Time: 10},
		models.Trade{ID: uuid.New(), Symbol: "BBB", Status: models.StatusTaken, Time: 5},
	))

	open, err := m.OpenBySymbol(ctx, "AAA")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, int64(20), open[0].Time)
	assert.Equal(t, int64(30), open[1].Time)
}

func TestMemoryToday(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("IST", 5*3600+1800)
	m := NewMemory()
	m.now = func() time.Time { return time.Date(2024, 1, 2, 11, 0, 0, 0, loc) }

	yesterday := time.Date(2024, 1, 1, 15, 0, 0, 0, loc).Unix()
	morning := time.Date(2024, 1, 2, 9, 30, 0, 0, loc).Unix()
	require.NoError(t, m.Upsert(ctx,
		models.Trade{ID: uuid.New(), Symbol: "AAA", Time: yesterday},
		models.Trade{ID: uuid.New(), Symbol: "BBB", Time: morning},
	))

	today, err := m.Today(ctx, loc)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "BBB", today[0].Symbol)
}
