package application

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"inventory-orchestrator/inventory/slots/domain"
)

const (
	DefaultRetryInitial    = 5 * time.Second
	DefaultMaxRetryElapsed = 5 * time.Minute
)

// RefreshOptions controla a política de refresh das chaves inline.
type RefreshOptions struct {
	// RetryInitial é o primeiro atraso depois de um load com falha.
	RetryInitial time.Duration
	// MaxRetryElapsed encerra o refresh depois de falhas consecutivas por esse
	// tempo. Negativo = sem limite.
	MaxRetryElapsed time.Duration
	// NoJitter desliga a aleatorização do backoff (útil em testes).
	NoJitter bool
}

func (o RefreshOptions) withDefaults() RefreshOptions {
	if o.RetryInitial <= 0 {
		o.RetryInitial = DefaultRetryInitial
	}
	if o.MaxRetryElapsed == 0 {
		o.MaxRetryElapsed = DefaultMaxRetryElapsed
	}
	return o
}

type refreshPolicy struct {
	interval    time.Duration
	overridden  bool
	inline      bool
	visible     bool
	target      any
	failingFrom time.Time
	exhausted   bool
	backoff     *backoff.ExponentialBackOff
}

func (p *refreshPolicy) active() bool {
	return p.visible && p.inline && p.interval > 0 && !p.exhausted
}

// refresher mantém a política de refresh por chave. Nunca chama o orquestrador
// segurando mu; o scheduler pode ser chamado com mu (não dispara callbacks
// de forma síncrona).
type refresher[T any] struct {
	o     *Orchestrator[T]
	sched domain.RefreshScheduler
	clock domain.Clock
	opts  RefreshOptions

	mu       sync.Mutex
	policies map[domain.Key]*refreshPolicy
	paused   bool
}

func newRefresher[T any](o *Orchestrator[T], sched domain.RefreshScheduler, clock domain.Clock, opts RefreshOptions) *refresher[T] {
	return &refresher[T]{
		o:        o,
		sched:    sched,
		clock:    clock,
		opts:     opts.withDefaults(),
		policies: make(map[domain.Key]*refreshPolicy),
	}
}

func (r *refresher[T]) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryInitial
	if r.opts.NoJitter {
		b.RandomizationFactor = 0
	}
	b.Reset()
	return b
}

// policyLocked cria ou atualiza a política da chave a partir da configuração.
func (r *refresher[T]) policyLocked(key domain.Key) *refreshPolicy {
	cfg, _ := r.o.configs.Lookup(key)
	p := r.policies[key]
	if p == nil {
		p = &refreshPolicy{backoff: r.newBackoff()}
		r.policies[key] = p
	}
	p.inline = cfg.Format.IsInline()
	if !p.overridden {
		p.interval = cfg.RefreshInterval
	}
	return p
}

func (r *refresher[T]) scheduleLocked(key domain.Key, after time.Duration) {
	if r.sched == nil || r.paused {
		return
	}
	r.sched.Schedule(key, after, func() { r.fire(key) })
}

func (r *refresher[T]) cancel(key domain.Key) {
	if r.sched != nil {
		r.sched.Cancel(key)
	}
}

func (r *refresher[T]) setVisible(key domain.Key, visible bool, target any) error {
	r.mu.Lock()
	p := r.policyLocked(key)
	p.visible = visible
	if !visible {
		r.mu.Unlock()
		r.cancel(key)
		return nil
	}
	p.target = target
	p.exhausted = false
	p.failingFrom = time.Time{}
	p.backoff.Reset()
	inline, paused := p.inline, r.paused
	if p.active() {
		r.scheduleLocked(key, p.interval)
	}
	r.mu.Unlock()

	if !inline || paused {
		return nil
	}
	return r.o.RequestDisplay(key, WithTarget(target))
}

func (r *refresher[T]) setInterval(key domain.Key, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.policyLocked(key)
	p.interval = d
	p.overridden = true
	if d <= 0 {
		r.cancel(key)
		return
	}
	if p.active() {
		r.scheduleLocked(key, d)
	}
}

func (r *refresher[T]) visible(key domain.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.policies[key]
	return p != nil && p.visible
}

// fire é o disparo do timer: recarrega e, como a chave é inline e visível,
// volta a exibir com a superfície guardada.
func (r *refresher[T]) fire(key domain.Key) {
	r.mu.Lock()
	p := r.policies[key]
	if p == nil || r.paused || !p.active() {
		r.mu.Unlock()
		return
	}
	target, interval := p.target, p.interval
	r.mu.Unlock()

	r.o.log.Debug().Str("key", string(key)).Dur("interval", interval).Msg("refresh fired")
	r.o.emit(domain.Event{Key: key, Category: r.o.category(key), Kind: domain.EventRefresh, Lifecycle: r.o.Lifecycle(key)})

	if err := r.o.RequestLoad(key); err != nil {
		r.loadFailed(key)
		return
	}
	if err := r.o.RequestDisplay(key, WithTarget(target)); err != nil {
		r.o.log.Debug().Str("key", string(key)).Err(err).Msg("refresh display rejected")
	}

	// Sem fetch em andamento (ex: item já carregado) nenhum OnLoaded vai
	// reagendar: agenda o próximo ciclo aqui.
	if r.o.Lifecycle(key) != domain.Loading {
		r.mu.Lock()
		if p := r.policies[key]; p != nil && p.active() {
			r.scheduleLocked(key, p.interval)
		}
		r.mu.Unlock()
	}
}

func (r *refresher[T]) loadSucceeded(key domain.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.policies[key]
	if p == nil {
		return
	}
	p.failingFrom = time.Time{}
	p.exhausted = false
	p.backoff.Reset()
	if p.active() {
		r.scheduleLocked(key, p.interval)
	}
}

func (r *refresher[T]) loadFailed(key domain.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.policies[key]
	if p == nil || !p.active() {
		return
	}

	now := r.clock.Now()
	if p.failingFrom.IsZero() {
		p.failingFrom = now
	}
	if r.opts.MaxRetryElapsed > 0 && now.Sub(p.failingFrom) >= r.opts.MaxRetryElapsed {
		p.exhausted = true
		r.cancel(key)
		r.o.log.Warn().Str("key", string(key)).Dur("failing_for", now.Sub(p.failingFrom)).Msg("refresh stopped after repeated failures")
		return
	}

	delay := p.backoff.NextBackOff()
	if delay == backoff.Stop || delay > p.interval {
		delay = p.interval
	}
	r.scheduleLocked(key, delay)
}

func (r *refresher[T]) forget(key domain.Key) {
	r.mu.Lock()
	delete(r.policies, key)
	r.mu.Unlock()
	r.cancel(key)
}

// pause cancela todos os timers (gate desligado).
func (r *refresher[T]) pause() {
	r.mu.Lock()
	r.paused = true
	keys := make([]domain.Key, 0, len(r.policies))
	for k := range r.policies {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	for _, k := range keys {
		r.cancel(k)
	}
}

// resume volta a exibir e agendar as chaves visíveis (gate ligado).
func (r *refresher[T]) resume() {
	type resumed struct {
		key    domain.Key
		target any
	}

	r.mu.Lock()
	r.paused = false
	var keys []resumed
	for k, p := range r.policies {
		if !p.visible || !p.inline {
			continue
		}
		keys = append(keys, resumed{key: k, target: p.target})
		if p.active() {
			r.scheduleLocked(k, p.interval)
		}
	}
	r.mu.Unlock()

	for _, k := range keys {
		if err := r.o.RequestDisplay(k.key, WithTarget(k.target)); err != nil {
			r.o.log.Debug().Str("key", string(k.key)).Err(err).Msg("resume display rejected")
		}
	}
}

func (r *refresher[T]) stop() {
	r.mu.Lock()
	keys := make([]domain.Key, 0, len(r.policies))
	for k := range r.policies {
		keys = append(keys, k)
	}
	r.paused = true
	r.mu.Unlock()

	for _, k := range keys {
		r.cancel(k)
	}
}
