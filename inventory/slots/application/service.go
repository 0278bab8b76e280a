package application

import (
	"inventory-orchestrator/inventory/slots/domain"
)

// Admission concentra a regra de admissão de uma exibição: primeiro o gate
// global, depois o cooldown da categoria.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Admission struct {
	Gate      domain.Gate
	Cooldowns domain.CooldownTracker
}

func (a Admission) Decide(cat domain.Category) domain.Decision {
	if a.Gate != nil && !a.Gate.Enabled() {
		return domain.Decision{Allowed: false, Reason: domain.ErrGateDisabled}
	}
	if a.Cooldowns == nil {
		return domain.Decision{Allowed: true}
	}
	if remaining := a.Cooldowns.Remaining(cat); remaining > 0 {
		return domain.Decision{
			Allowed:    false,
			RetryAfter: remaining,
			Reason:     &domain.CooldownError{Category: cat, Remaining: remaining},
		}
	}
	return domain.Decision{Allowed: true}
}
