package infra

import (
	"sync"

	"inventory-orchestrator/inventory/slots/domain"
)

// SlotStore guarda o estado de cada chave.
//
// O RWMutex do mapa só protege busca/criação de entradas; as transições usam o
// mutex da própria entrada, então chaves diferentes não disputam lock.
type SlotStore[T any] struct {
	mu      sync.RWMutex
	entries map[domain.Key]*slotEntry[T]
}

type slotEntry[T any] struct {
	mu    sync.Mutex
	state domain.SlotState[T]
	// dead marca entradas removidas por Delete; quem ainda segura o ponteiro refaz a busca.
	dead bool
}

var _ domain.SlotStore[struct{}] = (*SlotStore[struct{}])(nil)

func NewSlotStore[T any]() *SlotStore[T] {
	return &SlotStore[T]{entries: make(map[domain.Key]*slotEntry[T])}
}

// Register cria a entrada em Idle se ainda não existir. Devolve true se criou.
func (s *SlotStore[T]) Register(key domain.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = &slotEntry[T]{}
	return true
}

func (s *SlotStore[T]) lookup(key domain.Key) *slotEntry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

// Get devolve uma cópia do estado. Chave ausente => estado Idle zerado, sem criar.
func (s *SlotStore[T]) Get(key domain.Key) domain.SlotState[T] {
	var out domain.SlotState[T]
	s.Update(key, func(st *domain.SlotState[T]) { out = *st })
	return out
}

// Update executa fn sob o lock da chave. Devolve false se a chave não está registrada.
func (s *SlotStore[T]) Update(key domain.Key, fn func(*domain.SlotState[T])) bool {
	for {
		ent := s.lookup(key)
		if ent == nil {
			return false
		}
		ent.mu.Lock()
		if ent.dead {
			ent.mu.Unlock()
			continue
		}
		fn(&ent.state)
		ent.mu.Unlock()
		return true
	}
}

func (s *SlotStore[T]) SetLifecycle(key domain.Key, l domain.Lifecycle) bool {
	return s.Update(key, func(st *domain.SlotState[T]) { st.Lifecycle = l })
}

// SetItem guarda o item e devolve o anterior (quem chama é responsável por liberá-lo).
func (s *SlotStore[T]) SetItem(key domain.Key, item T) (old T, hadOld bool) {
	s.Update(key, func(st *domain.SlotState[T]) {
		old, hadOld = st.TakeItem()
		st.Item, st.HasItem = item, true
	})
	return old, hadOld
}

func (s *SlotStore[T]) TakePending(key domain.Key) *domain.Continuation {
	var p *domain.Continuation
	s.Update(key, func(st *domain.SlotState[T]) { p = st.TakePending() })
	return p
}

// Remove tira o item do slot, mantendo a entrada.
func (s *SlotStore[T]) Remove(key domain.Key) (item T, ok bool) {
	s.Update(key, func(st *domain.SlotState[T]) { item, ok = st.TakeItem() })
	return item, ok
}

// Delete apaga a entrada inteira e devolve o item que ela ainda tinha.
func (s *SlotStore[T]) Delete(key domain.Key) (item T, ok bool) {
	s.mu.Lock()
	ent := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if ent == nil {
		return item, false
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	ent.dead = true
	return ent.state.TakeItem()
}

func (s *SlotStore[T]) Keys() []domain.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Key, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}
