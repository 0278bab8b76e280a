package infra

import (
	"sync"
	"sync/atomic"

	"inventory-orchestrator/inventory/slots/domain"
)

// Gate é a flag global observável. Enabled não usa lock.
type Gate struct {
	enabled atomic.Bool

	mu     sync.Mutex
	nextID int
	subs   map[int]func(bool)
}

var _ domain.Gate = (*Gate)(nil)

func NewGate(enabled bool) *Gate {
	g := &Gate{subs: make(map[int]func(bool))}
	g.enabled.Store(enabled)
	return g
}

func (g *Gate) Enabled() bool { return g.enabled.Load() }

// Set altera a flag e notifica os assinantes apenas se o valor mudou.
func (g *Gate) Set(enabled bool) {
	if g.enabled.Swap(enabled) == enabled {
		return
	}

	g.mu.Lock()
	subs := make([]func(bool), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	for _, fn := range subs {
		fn(enabled)
	}
}

func (g *Gate) Subscribe(fn func(bool)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
		})
	}
}
