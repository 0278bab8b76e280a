package infra

import (
	"sync"
	"time"

	"inventory-orchestrator/inventory/slots/domain"
)

// Scheduler mantém no máximo um timer por chave.
//
// Cada agendamento recebe uma geração. O disparo só executa fn se a geração
// ainda for a atual (verificado sob o mutex), então um disparo que perde a
// corrida para Cancel/Schedule vira no-op.
type Scheduler struct {
	mu     sync.Mutex
	clock  domain.Clock
	timers map[domain.Key]scheduled
	gen    uint64
}

type scheduled struct {
	timer domain.Timer
	gen   uint64
}

var _ domain.RefreshScheduler = (*Scheduler)(nil)

func NewScheduler(clock domain.Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock, timers: make(map[domain.Key]scheduled)}
}

func (s *Scheduler) Schedule(key domain.Key, after time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(key)
	if after <= 0 || fn == nil {
		return false
	}

	s.gen++
	gen := s.gen
	t := s.clock.AfterFunc(after, func() { s.fire(key, gen, fn) })
	s.timers[key] = scheduled{timer: t, gen: gen}
	return true
}

func (s *Scheduler) Cancel(key domain.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(key)
}

func (s *Scheduler) cancelLocked(key domain.Key) bool {
	cur, ok := s.timers[key]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.timers, key)
	return true
}

// Pending informa se existe timer ativo para a chave.
func (s *Scheduler) Pending(key domain.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}

func (s *Scheduler) fire(key domain.Key, gen uint64, fn func()) {
	s.mu.Lock()
	cur, ok := s.timers[key]
	if !ok || cur.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.timers, key)
	s.mu.Unlock()

	fn()
}

// Stop cancela todos os timers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.timers {
		s.cancelLocked(k)
	}
}
