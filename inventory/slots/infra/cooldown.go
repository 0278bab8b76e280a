package infra

import (
	"errors"
	"sync"
	"time"

	"inventory-orchestrator/inventory/slots/domain"
)

// DefaultOverlayGap é o intervalo padrão entre exibições fullscreen.
const DefaultOverlayGap = 25 * time.Second

var ErrNegativeGap = errors.New("cooldown gap cannot be negative")

// Cooldowns implementa domain.CooldownTracker em memória.
//
// Só categorias com gap configurado têm cooldown; as demais estão sempre liberadas.
type Cooldowns struct {
	mu    sync.Mutex
	clock domain.Clock
	gaps  map[domain.Category]time.Duration
	// lastDismissed é criado de forma preguiçosa no primeiro dismiss da categoria.
	lastDismissed map[domain.Category]time.Time
}

type CooldownOption func(*Cooldowns)

func WithCooldownClock(c domain.Clock) CooldownOption {
	return func(cd *Cooldowns) { cd.clock = c }
}

// WithGap define a janela mínima da categoria. Valores negativos são ignorados.
func WithGap(cat domain.Category, gap time.Duration) CooldownOption {
	return func(cd *Cooldowns) {
		if gap >= 0 {
			cd.gaps[cat] = gap
		}
	}
}

func NewCooldowns(opts ...CooldownOption) *Cooldowns {
	cd := &Cooldowns{
		clock:         SystemClock{},
		gaps:          make(map[domain.Category]time.Duration),
		lastDismissed: make(map[domain.Category]time.Time),
	}
	for _, opt := range opts {
		opt(cd)
	}
	return cd
}

func (c *Cooldowns) SetGap(cat domain.Category, gap time.Duration) error {
	if gap < 0 {
		return ErrNegativeGap
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gaps[cat] = gap
	return nil
}

func (c *Cooldowns) Gap(cat domain.Category) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gap, ok := c.gaps[cat]
	return gap, ok
}

// Remaining devolve 0 se a categoria está liberada ou nunca teve dismiss.
func (c *Cooldowns) Remaining(cat domain.Category) time.Duration {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	gap, ok := c.gaps[cat]
	if !ok || gap <= 0 {
		return 0
	}
	last, ok := c.lastDismissed[cat]
	if !ok {
		return 0
	}
	if remaining := gap - now.Sub(last); remaining > 0 {
		return remaining
	}
	return 0
}

func (c *Cooldowns) Satisfied(cat domain.Category) bool {
	return c.Remaining(cat) == 0
}

func (c *Cooldowns) RecordDismissal(cat domain.Category, at time.Time) {
	if at.IsZero() {
		at = c.clock.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastDismissed[cat] = at
}
