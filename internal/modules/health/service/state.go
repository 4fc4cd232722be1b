package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	seeded        atomic.Int64
	cycles        atomic.Int64
	lastCycleUnix atomic.Int64 // unix seconds
	lastTickUnix  atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetSeeded(n int) { s.seeded.Store(int64(n)) }
func (s *State) Seeded() int     { return int(s.seeded.Load()) }

// TouchCycle records a finished evaluation cycle.
func (s *State) TouchCycle(t time.Time) {
	s.cycles.Add(1)
	s.lastCycleUnix.Store(t.Unix())
}
func (s *State) Cycles() int64        { return s.cycles.Load() }
func (s *State) LastCycle() time.Time { return fromUnix(s.lastCycleUnix.Load()) }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time   { return fromUnix(s.lastTickUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
