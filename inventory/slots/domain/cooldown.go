package domain

import "time"

// CooldownTracker guarda, por categoria (não por chave), o instante do último
// dismiss. A primeira exibição de uma categoria é sempre permitida.
type CooldownTracker interface {
	Satisfied(cat Category) bool
	Remaining(cat Category) time.Duration
	RecordDismissal(cat Category, at time.Time)
}

// Gate é a flag global de habilitação. Enabled é lido sem lock; leituras
// levemente atrasadas são aceitáveis.
type Gate interface {
	Enabled() bool
	Subscribe(fn func(enabled bool)) (cancel func())
}

type Decision struct {
	Allowed bool
	// RetryAfter é o tempo até a próxima exibição permitida quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	Reason     error
}
