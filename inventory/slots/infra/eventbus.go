package infra

import (
	"context"
	"sync"
	"sync/atomic"

	"inventory-orchestrator/inventory/slots/domain"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

const defaultEventBuffer = 64

// EventBus distribui eventos do orquestrador para assinantes independentes.
//
// Publish nunca bloqueia: se o buffer de um assinante estiver cheio o evento é
// descartado para ele e contado em Dropped.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscription
	closed bool

	dropped atomic.Int64
	pumps   conc.WaitGroup
	log     zerolog.Logger
}

type subscription struct {
	// key vazio assina todas as chaves.
	key domain.Key
	ch  chan domain.Event
}

var _ domain.EventBus = (*EventBus)(nil)

func NewEventBus(log zerolog.Logger) *EventBus {
	return &EventBus{subs: make(map[uint64]*subscription), log: log}
}

func (b *EventBus) Publish(ev domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.key != "" && sub.key != ev.Key {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe devolve um canal de eventos da chave (ou de todas, com key vazio) e a
// função que encerra a assinatura e fecha o canal.
func (b *EventBus) Subscribe(key domain.Key, buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	ch := make(chan domain.Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = &subscription{key: key, ch: ch}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Attach liga um StatsStore ao barramento. Cada evento é gravado em best-effort
// numa goroutine própria; a gravação termina quando o ctx encerra ou o bus fecha.
func (b *EventBus) Attach(ctx context.Context, name string, store domain.StatsStore) {
	if store == nil {
		return
	}
	ch, cancel := b.Subscribe("", 0)
	b.pumps.Go(func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := store.Record(ctx, ev); err != nil {
					b.log.Warn().Err(err).Str("sink", name).Str("kind", string(ev.Kind)).Msg("stats record failed")
				}
			}
		}
	})
}

func (b *EventBus) Dropped() int64 { return b.dropped.Load() }

// Close fecha todas as assinaturas e espera os sinks drenarem.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
	b.mu.Unlock()

	b.pumps.Wait()
}
