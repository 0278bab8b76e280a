package domain

import "time"

// Clock abstrai o tempo para permitir testes determinísticos.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type Timer interface {
	Stop() bool
}

// RefreshScheduler mantém no máximo um timer por chave. Schedule cancela o timer
// anterior da chave; after <= 0 apenas cancela e devolve false.
// Depois de Cancel, fn não executa mais, mesmo que o disparo já estivesse em voo.
type RefreshScheduler interface {
	Schedule(key Key, after time.Duration, fn func()) bool
	Cancel(key Key) bool
}
