package infra

import (
	"sync"

	"inventory-orchestrator/inventory/slots/domain"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// Dispatcher roda trabalho assíncrono (fetch, display) fora da goroutine do chamador.
// Panics das tarefas são recuperados e registrados no Close.
type Dispatcher struct {
	mu     sync.RWMutex
	closed bool
	wg     conc.WaitGroup
	log    zerolog.Logger
}

var _ domain.Runner = (*Dispatcher)(nil)

func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

func (d *Dispatcher) Go(fn func()) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.wg.Go(fn)
	return true
}

// Close para de aceitar tarefas e espera as que estão rodando.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	if r := d.wg.WaitAndRecover(); r != nil {
		d.log.Error().Str("panic", r.String()).Msg("dispatched task panicked")
	}
}
