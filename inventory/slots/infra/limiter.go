package infra

import (
	"sync"
	"time"

	"inventory-orchestrator/inventory/slots/domain"

	"golang.org/x/time/rate"
)

// LimiterStore limita a taxa de fetches por categoria com token bucket
// (x/time/rate), com cache por categoria e limpeza periódica.
type LimiterStore struct {
	mu           sync.Mutex
	clock        domain.Clock
	entries      map[domain.Category]*limiterEntry
	rps          rate.Limit
	burst        int
	overrides    map[domain.Category]rate.Limit
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type limiterEntry struct {
	lim      *rate.Limiter
	clock    domain.Clock
	lastSeen time.Time
}

// Allow consome um token no instante do relógio do store, não no wall clock.
func (e *limiterEntry) Allow() bool {
	return e.lim.AllowN(e.clock.Now(), 1)
}

type LimiterOption func(*LimiterStore)

func WithIdleTTL(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) LimiterOption {
	return func(s *LimiterStore) { s.cleanupEvery = d }
}

// WithCategoryRate sobrescreve o rps de uma categoria específica.
func WithCategoryRate(cat domain.Category, rps float64) LimiterOption {
	return func(s *LimiterStore) { s.overrides[cat] = rate.Limit(rps) }
}

// WithLimiterClock troca o relógio usado tanto na reposição de tokens quanto
// na limpeza de categorias inativas.
func WithLimiterClock(c domain.Clock) LimiterOption {
	return func(s *LimiterStore) { s.clock = c }
}

func NewLimiterStore(rps float64, burst int, opts ...LimiterOption) *LimiterStore {
	s := &LimiterStore{
		clock:        SystemClock{},
		entries:      make(map[domain.Category]*limiterEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		overrides:    make(map[domain.Category]rate.Limit),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LimiterStore) RPS() float64                { return float64(s.rps) }
func (s *LimiterStore) Burst() int                  { return s.burst }
func (s *LimiterStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Get implementa domain.LimiterStore.
func (s *LimiterStore) Get(cat domain.Category) domain.Limiter {
	return s.limiter(cat)
}

func (s *LimiterStore) limiter(cat domain.Category) *limiterEntry {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[cat]; ok {
		ent.lastSeen = now
		return ent
	}

	limit := s.rps
	if v, ok := s.overrides[cat]; ok {
		limit = v
	}
	ent := &limiterEntry{lim: rate.NewLimiter(limit, s.burst), clock: s.clock, lastSeen: now}
	s.entries[cat] = ent
	return ent
}

func (s *LimiterStore) Cleanup() {
	cutoff := s.clock.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa categorias inativas periodicamente.
// Pare cancelando o contexto.
func (s *LimiterStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}
