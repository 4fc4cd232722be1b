package service

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"trade_engine/internal/models"
)

type Repository interface {
	Migrate(ctx context.Context) error
	Upsert(ctx context.Context, trades ...models.Trade) error
	OpenBySymbol(ctx context.Context, symbol string) ([]models.Trade, error)
	Today(ctx context.Context, loc *time.Location) ([]models.Trade, error)
}

// Memory is a Repository kept in process memory. It is used when no
// database is configured and in tests.
type Memory struct {
	mu    sync.RWMutex
	order []uuid.UUID
	data  map[uuid.UUID]models.Trade
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[uuid.UUID]models.Trade),
		now:  time.Now,
	}
}

func (m *Memory) Migrate(context.Context) error { return nil }

// Upsert stores new trades. Known trades only take the fields that change
// after opening.
func (m *Memory) Upsert(_ context.Context, trades ...models.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range trades {
		old, ok := m.data[t.ID]
		if !ok {
			m.order = append(m.order, t.ID)
			m.data[t.ID] = t
			continue
		}
		old.Status = t.Status
		old.FillTime, old.EndTime = t.FillTime, t.EndTime
		old.High, old.Low = t.High, t.Low
		m.data[t.ID] = old
	}
	return nil
}

func (m *Memory) OpenBySymbol(_ context.Context, symbol string) ([]models.Trade, error) {
	return m.filter(func(t models.Trade) bool {
		return t.Symbol == symbol && t.Status.Open()
	}), nil
}

func (m *Memory) Today(_ context.Context, loc *time.Location) ([]models.Trade, error) {
	now := m.now().In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).Unix()
	return m.filter(func(t models.Trade) bool { return t.Time >= midnight }), nil
}

func (m *Memory) filter(keep func(models.Trade) bool) []models.Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Trade
	for _, id := range m.order {
		if t := m.data[id]; keep(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Trade) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}
