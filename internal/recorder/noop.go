package recorder

import "trade_engine/internal/models"

// Noop is used when no SQLite path is configured.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (Noop) RecordRun(*Run, []models.Trade) (int64, error) { return 0, nil }
func (Noop) RecordEvent(models.TradeEvent) error           { return nil }
func (Noop) Close() error                                  { return nil }
