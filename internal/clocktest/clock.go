// Package clocktest fornece um relógio manual para testes determinísticos.
package clocktest

import (
	"sort"
	"sync"
	"time"

	"inventory-orchestrator/inventory/slots/domain"
)

// Clock só avança quando Advance é chamado. Callbacks vencidos rodam fora do
// lock, em ordem de vencimento.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers map[uint64]*timer
}

type timer struct {
	c   *Clock
	id  uint64
	at  time.Time
	fn  func()
	dur time.Duration
}

var _ domain.Clock = (*Clock)(nil)

func New(start time.Time) *Clock {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Clock{now: start, timers: make(map[uint64]*timer)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) AfterFunc(d time.Duration, fn func()) domain.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{c: c, id: c.seq, at: c.now.Add(d), fn: fn, dur: d}
	c.timers[t.id] = t
	return t
}

func (t *timer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if _, ok := t.c.timers[t.id]; !ok {
		return false
	}
	delete(t.c.timers, t.id)
	return true
}

// Advance move o relógio e executa os callbacks que venceram.
func (c *Clock) Advance(d time.Duration) {
	for _, fn := range c.Step(d) {
		fn()
	}
}

// Step move o relógio e devolve os callbacks vencidos sem executá-los.
// Simula um disparo que já saiu do timer mas ainda não rodou.
func (c *Clock) Step(d time.Duration) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)

	var due []*timer
	for id, t := range c.timers {
		if !t.at.After(c.now) {
			due = append(due, t)
			delete(c.timers, id)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})

	fns := make([]func(), len(due))
	for i, t := range due {
		fns[i] = t.fn
	}
	return fns
}

// Pending devolve quantos timers estão ativos.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Durations devolve as durações pedidas pelos timers ativos, em ordem de criação.
func (c *Clock) Durations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]uint64, 0, len(c.timers))
	for id := range c.timers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]time.Duration, len(ids))
	for i, id := range ids {
		out[i] = c.timers[id].dur
	}
	return out
}
