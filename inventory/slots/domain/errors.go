package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrItemConstruction indica configuração ausente para a chave (falha síncrona).
	ErrItemConstruction = errors.New("item construction failed")
	// ErrGateDisabled indica que a flag global está desligada.
	ErrGateDisabled = errors.New("items disabled by gate")
	// ErrCooldownActive é o alvo de errors.Is para *CooldownError.
	ErrCooldownActive = errors.New("category cooldown active")
	// ErrLoadThrottled indica que o limiter da categoria negou o fetch.
	ErrLoadThrottled = errors.New("load throttled")
	// ErrFetchSaturated indica que não houve vaga no pool de fetch dentro do timeout.
	ErrFetchSaturated = errors.New("fetch pool saturated")
	// ErrSuperseded é entregue a uma continuação sobrescrita por um pedido mais novo.
	ErrSuperseded = errors.New("display request superseded")
	ErrTornDown   = errors.New("slot torn down")
	ErrClosed     = errors.New("orchestrator closed")
	// ErrItemMissing indica um item que deveria estar no store e não está.
	ErrItemMissing = errors.New("item missing from store")
)

// CooldownError é uma rejeição de política (frequency cap), não uma falha real.
type CooldownError struct {
	Category  Category
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active for category %q: %s remaining", e.Category, e.Remaining)
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldownActive }

// RemainingCooldown extrai o tempo restante de um erro de cooldown.
func RemainingCooldown(err error) (time.Duration, bool) {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce.Remaining, true
	}
	return 0, false
}

// LoadError é a falha assíncrona de um fetch.
type LoadError struct {
	Key Key
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %q: %v", e.Key, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// ShowError é a falha assíncrona de uma exibição.
type ShowError struct {
	Key Key
	Err error
}

func (e *ShowError) Error() string { return fmt.Sprintf("show %q: %v", e.Key, e.Err) }
func (e *ShowError) Unwrap() error { return e.Err }
