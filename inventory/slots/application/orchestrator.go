package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inventory-orchestrator/inventory/slots/domain"
)

var (
	errUnknownLoadFailure = errors.New("unknown load failure")
	errFetchPanicked      = errors.New("fetch panicked")
	errDisplayPanicked    = errors.New("display panicked")
)

// Options reúne os colaboradores do orquestrador.
// Fetcher, Displayer, Configs, Store e Runner são obrigatórios.
type Options[T any] struct {
	Fetcher   domain.Fetcher[T]
	Displayer domain.Displayer[T]
	Configs   domain.ConfigSource
	Store     domain.SlotStore[T]
	Runner    domain.Runner

	Cooldowns domain.CooldownTracker
	Gate      domain.Gate
	Scheduler domain.RefreshScheduler
	Clock     domain.Clock
	// Limiter limita fetches por categoria. nil = sem limite.
	Limiter domain.LimiterStore
	Events  domain.EventBus

	// FetchSlots limita fetches simultâneos (Pool nil = sem limite).
	FetchSlots ConcurrencyService
	// FetchTimeout 0 = sem timeout por fetch.
	FetchTimeout time.Duration

	Refresh RefreshOptions
	OnError func(key domain.Key, err error)
	Logger  zerolog.Logger
}

// Orchestrator garante no máximo um fetch por chave, aceita pedidos de exibição
// antes ou depois do load e aplica gate + cooldown antes de cada exibição.
//
// Todas as transições acontecem dentro de SlotStore.Update; colaboradores
// (fetcher, displayer, eventos, callbacks) são chamados fora do lock da chave.
type Orchestrator[T any] struct {
	fetcher   domain.Fetcher[T]
	displayer domain.Displayer[T]
	configs   domain.ConfigSource
	store     domain.SlotStore[T]
	runner    domain.Runner
	cooldowns domain.CooldownTracker
	gate      domain.Gate
	clock     domain.Clock
	limiter   domain.LimiterStore
	events    domain.EventBus

	admission    Admission
	fetchSlots   ConcurrencyService
	fetchTimeout time.Duration
	onError      func(domain.Key, error)
	log          zerolog.Logger

	refresh *refresher[T]

	ctx             context.Context
	cancel          context.CancelFunc
	unsubscribeGate func()
	closed          atomic.Bool
}

func New[T any](opts Options[T]) (*Orchestrator[T], error) {
	switch {
	case opts.Fetcher == nil:
		return nil, errors.New("orchestrator: fetcher is required")
	case opts.Displayer == nil:
		return nil, errors.New("orchestrator: displayer is required")
	case opts.Configs == nil:
		return nil, errors.New("orchestrator: config source is required")
	case opts.Store == nil:
		return nil, errors.New("orchestrator: slot store is required")
	case opts.Runner == nil:
		return nil, errors.New("orchestrator: runner is required")
	}
	if opts.FetchTimeout < 0 {
		return nil, errors.New("orchestrator: fetch timeout must be >= 0")
	}

	if opts.Gate == nil {
		opts.Gate = openGate{}
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{}
	}
	if opts.Cooldowns == nil {
		opts.Cooldowns = noCooldown{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator[T]{
		fetcher:      opts.Fetcher,
		displayer:    opts.Displayer,
		configs:      opts.Configs,
		store:        opts.Store,
		runner:       opts.Runner,
		cooldowns:    opts.Cooldowns,
		gate:         opts.Gate,
		clock:        opts.Clock,
		limiter:      opts.Limiter,
		events:       opts.Events,
		admission:    Admission{Gate: opts.Gate, Cooldowns: opts.Cooldowns},
		fetchSlots:   opts.FetchSlots,
		fetchTimeout: opts.FetchTimeout,
		onError:      opts.OnError,
		log:          opts.Logger,
		ctx:          ctx,
		cancel:       cancel,
	}
	o.refresh = newRefresher(o, opts.Scheduler, opts.Clock, opts.Refresh)
	o.unsubscribeGate = o.gate.Subscribe(o.gateChanged)
	return o, nil
}

// RegisterKey cria o registro Idle da chave. Chamar de novo não tem efeito.
func (o *Orchestrator[T]) RegisterKey(key domain.Key) {
	if !o.store.Register(key) {
		return
	}
	o.log.Debug().Str("key", string(key)).Msg("slot registered")
	o.emit(domain.Event{Key: key, Kind: domain.EventRegistered, Lifecycle: domain.Idle})
}

// RequestLoad inicia um fetch se a chave estiver Idle ou Showing (refresh).
// Em Loading ou Loaded o pedido é absorvido e retorna nil.
func (o *Orchestrator[T]) RequestLoad(key domain.Key) error {
	if o.closed.Load() {
		return domain.ErrClosed
	}
	if !o.gate.Enabled() {
		o.rejected(key, "", domain.ErrGateDisabled)
		return domain.ErrGateDisabled
	}

	cfg, hasCfg := o.configs.Lookup(key)
	if hasCfg {
		o.RegisterKey(key)
	}

	var (
		start   bool
		attempt string
		err     error
	)
	found := o.store.Update(key, func(s *domain.SlotState[T]) {
		if s.Lifecycle == domain.Loading || s.Lifecycle == domain.Loaded {
			return
		}
		if !hasCfg {
			err = domain.ErrItemConstruction
			return
		}
		if !o.allowFetch(cfg.Category) {
			err = domain.ErrLoadThrottled
			return
		}
		attempt = uuid.NewString()
		s.Lifecycle = domain.Loading
		s.Attempt = attempt
		start = true
	})
	if !found {
		err = domain.ErrItemConstruction
	}

	if err != nil {
		o.rejected(key, cfg.Category, err)
		return err
	}
	if !start {
		o.log.Debug().Str("key", string(key)).Msg("load absorbed")
		return nil
	}

	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventLoadStarted, Lifecycle: domain.Loading, Attempt: attempt})
	o.startFetch(key, cfg, attempt)
	return nil
}

// DisplayOption configura um pedido de exibição.
type DisplayOption func(*displayOptions)

type displayOptions struct {
	target any
	result func(error)
}

// WithTarget informa a superfície onde o item deve aparecer.
func WithTarget(target any) DisplayOption {
	return func(d *displayOptions) { d.target = target }
}

// WithResult registra um callback chamado exatamente uma vez: nil quando a
// exibição foi despachada, erro quando foi rejeitada, sobrescrita, falhou no
// load ou a chave foi desmontada.
func WithResult(fn func(error)) DisplayOption {
	return func(d *displayOptions) { d.result = fn }
}

// RequestDisplay exibe o item da chave, carregando antes se necessário.
//
// Rejeições síncronas (gate, cooldown, construção, throttle) são retornadas e
// também entregues ao callback de WithResult.
func (o *Orchestrator[T]) RequestDisplay(key domain.Key, opts ...DisplayOption) error {
	var dopts displayOptions
	for _, opt := range opts {
		opt(&dopts)
	}
	cont := domain.NewContinuation(dopts.target, dopts.result)

	if o.closed.Load() {
		cont.Resolve(domain.ErrClosed)
		return domain.ErrClosed
	}

	cfg, hasCfg := o.configs.Lookup(key)
	if hasCfg {
		o.RegisterKey(key)
	}

	var (
		err            error
		start, queued  bool
		show           bool
		item           T
		attempt        string
		display        string
		superseded     *domain.Continuation
		dropped        T
		hadDropped     bool
		droppedPending *domain.Continuation
	)
	found := o.store.Update(key, func(s *domain.SlotState[T]) {
		dec := o.admission.Decide(cfg.Category)
		if !dec.Allowed {
			err = dec.Reason
			if errors.Is(err, domain.ErrGateDisabled) {
				dropped, hadDropped, droppedPending = s.Reset()
			}
			return
		}

		switch s.Lifecycle {
		case domain.Idle:
			if !hasCfg {
				err = domain.ErrItemConstruction
				return
			}
			if !o.allowFetch(cfg.Category) {
				err = domain.ErrLoadThrottled
				return
			}
			attempt = uuid.NewString()
			s.Lifecycle = domain.Loading
			s.Attempt = attempt
			s.Pending = cont
			start = true
		case domain.Loading:
			superseded = s.Pending
			s.Pending = cont
			attempt = s.Attempt
			queued = true
		case domain.Loaded:
			if !s.HasItem {
				s.Lifecycle = domain.Idle
				err = domain.ErrItemMissing
				return
			}
			s.Lifecycle = domain.Showing
			s.Target = cont.Target
			s.DisplayID = uuid.NewString()
			item = s.Item
			attempt = s.Attempt
			display = s.DisplayID
			show = true
		case domain.Showing:
		}
	})
	if !found {
		// chave sem registro só chega aqui sem configuração
		if dec := o.admission.Decide(cfg.Category); !dec.Allowed {
			err = dec.Reason
		} else {
			err = domain.ErrItemConstruction
		}
	}

	if hadDropped {
		o.fetcher.Release(dropped)
	}
	droppedPending.Resolve(domain.ErrGateDisabled)

	if err != nil {
		cont.Resolve(err)
		o.rejected(key, cfg.Category, err)
		return err
	}

	if superseded != nil {
		superseded.Resolve(domain.ErrSuperseded)
		o.log.Debug().Str("key", string(key)).Msg("pending display superseded")
	}

	switch {
	case start:
		o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventLoadStarted, Lifecycle: domain.Loading, Attempt: attempt})
		o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventDisplayQueued, Lifecycle: domain.Loading, Attempt: attempt})
		o.startFetch(key, cfg, attempt)
	case queued:
		o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventDisplayQueued, Lifecycle: domain.Loading, Attempt: attempt})
	case show:
		o.dispatchDisplay(key, cfg, item, cont.Target, attempt, display)
		cont.Resolve(nil)
	default:
		// já está na tela
		cont.Resolve(nil)
	}
	return nil
}

// OnLoaded entrega o item de um fetch concluído. Fora de Loading o item é
// tardio (teardown, gate) e é liberado.
func (o *Orchestrator[T]) OnLoaded(key domain.Key, item T) {
	o.loaded(key, "", item)
}

// loaded aceita o item só se fetchAttempt, quando informado, ainda for o fetch corrente.
func (o *Orchestrator[T]) loaded(key domain.Key, fetchAttempt string, item T) {
	cfg, _ := o.configs.Lookup(key)

	var (
		accepted   bool
		show       bool
		attempt    string
		display    string
		old        T
		hadOld     bool
		dropped    T
		hadDropped bool
		pending    *domain.Continuation
		rejectErr  error
		lifecycle  domain.Lifecycle
	)
	o.store.Update(key, func(s *domain.SlotState[T]) {
		if s.Lifecycle != domain.Loading || (fetchAttempt != "" && fetchAttempt != s.Attempt) {
			return
		}
		accepted = true
		attempt = s.Attempt
		old, hadOld = s.TakeItem()
		s.DisplayID = ""
		s.Item, s.HasItem = item, true
		s.Lifecycle = domain.Loaded

		pending = s.TakePending()
		if pending != nil {
			dec := o.admission.Decide(cfg.Category)
			switch {
			case dec.Allowed:
				s.Lifecycle = domain.Showing
				s.Target = pending.Target
				s.DisplayID = uuid.NewString()
				display = s.DisplayID
				show = true
			case errors.Is(dec.Reason, domain.ErrGateDisabled):
				dropped, hadDropped = s.TakeItem()
				s.Lifecycle = domain.Idle
				s.Target = nil
				s.Attempt = ""
				rejectErr = dec.Reason
			default:
				rejectErr = dec.Reason
			}
		} else {
			s.Target = nil
		}
		lifecycle = s.Lifecycle
	})

	if !accepted {
		o.fetcher.Release(item)
		o.log.Debug().Str("key", string(key)).Msg("late load discarded")
		o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventDiscarded, Lifecycle: o.store.Get(key).Lifecycle})
		return
	}
	if hadOld {
		o.fetcher.Release(old)
	}
	if hadDropped {
		o.fetcher.Release(dropped)
	}

	o.log.Debug().Str("key", string(key)).Str("attempt", attempt).Msg("load completed")
	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventLoaded, Lifecycle: lifecycle, Attempt: attempt})

	if rejectErr != nil {
		pending.Resolve(rejectErr)
		o.rejected(key, cfg.Category, rejectErr)
	}
	if show {
		o.dispatchDisplay(key, cfg, item, pending.Target, attempt, display)
		pending.Resolve(nil)
	}
	o.refresh.loadSucceeded(key)
}

// OnLoadFailed encerra um fetch sem item. Se havia um item na tela (refresh),
// a chave volta para Showing; senão, Idle.
func (o *Orchestrator[T]) OnLoadFailed(key domain.Key, reason error) {
	o.loadFailed(key, "", reason)
}

func (o *Orchestrator[T]) loadFailed(key domain.Key, fetchAttempt string, reason error) {
	if reason == nil {
		reason = errUnknownLoadFailure
	}
	cfg, _ := o.configs.Lookup(key)

	var (
		handled   bool
		attempt   string
		pending   *domain.Continuation
		lifecycle domain.Lifecycle
	)
	o.store.Update(key, func(s *domain.SlotState[T]) {
		lifecycle = s.Lifecycle
		if s.Lifecycle != domain.Loading || (fetchAttempt != "" && fetchAttempt != s.Attempt) {
			return
		}
		handled = true
		attempt = s.Attempt
		pending = s.TakePending()
		s.Attempt = ""
		if s.HasItem {
			s.Lifecycle = domain.Showing
		} else {
			s.Lifecycle = domain.Idle
			s.Target = nil
		}
		lifecycle = s.Lifecycle
	})

	lerr := &domain.LoadError{Key: key, Err: reason}
	pending.Resolve(lerr)
	o.observe(key, lerr)
	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventLoadFailed, Lifecycle: lifecycle, Attempt: attempt, Err: lerr})

	if handled {
		o.refresh.loadFailed(key)
	}
}

// OnShown é informativo: o estado já é Showing desde o despacho.
func (o *Orchestrator[T]) OnShown(key domain.Key) {
	o.shown(key, "")
}

func (o *Orchestrator[T]) shown(key domain.Key, display string) {
	st := o.store.Get(key)
	if display != "" && display != st.DisplayID {
		o.log.Debug().Str("key", string(key)).Msg("stale shown ignored")
		return
	}
	o.log.Debug().Str("key", string(key)).Msg("item shown")
	o.emit(domain.Event{Key: key, Category: o.category(key), Kind: domain.EventShown, Lifecycle: st.Lifecycle, Attempt: st.Attempt})
}

// OnDismissed libera o item exibido e registra o dismiss no cooldown da categoria.
func (o *Orchestrator[T]) OnDismissed(key domain.Key) {
	o.dismissed(key, "")
}

// dismissed ignora o callback quando display (se informado) não é mais a
// exibição corrente da chave.
func (o *Orchestrator[T]) dismissed(key domain.Key, display string) {
	cfg, _ := o.configs.Lookup(key)

	var (
		item      T
		hadItem   bool
		wasShown  bool
		lifecycle domain.Lifecycle
	)
	o.store.Update(key, func(s *domain.SlotState[T]) {
		lifecycle = s.Lifecycle
		if display != "" && display != s.DisplayID {
			return
		}
		switch s.Lifecycle {
		case domain.Showing:
			item, hadItem = s.TakeItem()
			s.Lifecycle = domain.Idle
			s.Target = nil
			s.Attempt = ""
			s.DisplayID = ""
			wasShown = true
		case domain.Loading:
			// refresh em voo: o item antigo sai da tela e o fetch continua
			item, hadItem = s.TakeItem()
			s.Target = nil
			s.DisplayID = ""
			wasShown = hadItem
		}
		lifecycle = s.Lifecycle
	})

	if !wasShown {
		o.log.Debug().Str("key", string(key)).Msg("dismiss ignored: nothing on screen")
		return
	}
	if hadItem {
		o.fetcher.Release(item)
	}
	o.cooldowns.RecordDismissal(cfg.Category, o.clock.Now())
	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventDismissed, Lifecycle: lifecycle})
}

// OnShowFailed libera o item que não conseguiu aparecer e volta a chave para Idle.
func (o *Orchestrator[T]) OnShowFailed(key domain.Key, reason error) {
	o.showFailed(key, "", reason)
}

func (o *Orchestrator[T]) showFailed(key domain.Key, display string, reason error) {
	cfg, _ := o.configs.Lookup(key)

	var (
		item      T
		hadItem   bool
		stale     bool
		lifecycle domain.Lifecycle
	)
	o.store.Update(key, func(s *domain.SlotState[T]) {
		lifecycle = s.Lifecycle
		if display != "" && display != s.DisplayID {
			stale = true
			return
		}
		switch s.Lifecycle {
		case domain.Showing:
			item, hadItem = s.TakeItem()
			s.Lifecycle = domain.Idle
			s.Target = nil
			s.Attempt = ""
			s.DisplayID = ""
		case domain.Loading:
			item, hadItem = s.TakeItem()
			s.Target = nil
			s.DisplayID = ""
		}
		lifecycle = s.Lifecycle
	})
	if stale {
		o.log.Debug().Str("key", string(key)).Err(reason).Msg("stale show failure ignored")
		return
	}
	if hadItem {
		o.fetcher.Release(item)
	}

	serr := &domain.ShowError{Key: key, Err: reason}
	o.observe(key, serr)
	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventShowFailed, Lifecycle: lifecycle, Err: serr})
}

// Teardown libera o item, descarta a exibição pendente e cancela o refresh da
// chave. Pode ser chamado várias vezes. Um OnLoaded posterior é descartado.
func (o *Orchestrator[T]) Teardown(key domain.Key) {
	var (
		item    T
		hadItem bool
		pending *domain.Continuation
	)
	found := o.store.Update(key, func(s *domain.SlotState[T]) {
		item, hadItem, pending = s.Reset()
	})
	o.refresh.forget(key)
	if !found {
		return
	}
	if hadItem {
		o.fetcher.Release(item)
	}
	pending.Resolve(domain.ErrTornDown)
	o.log.Debug().Str("key", string(key)).Msg("slot torn down")
	o.emit(domain.Event{Key: key, Category: o.category(key), Kind: domain.EventTornDown, Lifecycle: domain.Idle})
}

// SetVisible informa a visibilidade de uma chave inline. Visível dispara a
// exibição (carregando se preciso) e agenda o refresh; oculta cancela o timer.
func (o *Orchestrator[T]) SetVisible(key domain.Key, visible bool, opts ...DisplayOption) error {
	if o.closed.Load() {
		return domain.ErrClosed
	}
	if _, ok := o.configs.Lookup(key); !ok {
		return domain.ErrItemConstruction
	}
	var dopts displayOptions
	for _, opt := range opts {
		opt(&dopts)
	}
	o.RegisterKey(key)
	return o.refresh.setVisible(key, visible, dopts.target)
}

// SetRefreshInterval sobrescreve o intervalo de refresh da chave. d <= 0 desliga.
func (o *Orchestrator[T]) SetRefreshInterval(key domain.Key, d time.Duration) {
	o.refresh.setInterval(key, d)
}

// Lifecycle devolve o estado atual da chave (Idle se não registrada).
func (o *Orchestrator[T]) Lifecycle(key domain.Key) domain.Lifecycle {
	return o.store.Get(key).Lifecycle
}

func (o *Orchestrator[T]) State(key domain.Key) domain.SlotView {
	st := o.store.Get(key)
	cat := o.category(key)
	remaining := o.cooldowns.Remaining(cat)
	return domain.SlotView{
		Key:                 key,
		Category:            cat,
		Lifecycle:           st.Lifecycle.String(),
		HasItem:             st.HasItem,
		PendingDisplay:      st.Pending != nil,
		Visible:             o.refresh.visible(key),
		CooldownRemaining:   remaining,
		CooldownRemainingMs: remaining.Milliseconds(),
	}
}

// Subscribe devolve o fluxo de eventos da chave (key vazio = todas).
// Sem EventBus configurado, o canal já vem fechado.
func (o *Orchestrator[T]) Subscribe(key domain.Key, buffer int) (<-chan domain.Event, func()) {
	if o.events == nil {
		ch := make(chan domain.Event)
		close(ch)
		return ch, func() {}
	}
	return o.events.Subscribe(key, buffer)
}

// Close desmonta todas as chaves e cancela fetches e timers em andamento.
// Não fecha o Runner nem o EventBus (pertencem a quem os criou).
func (o *Orchestrator[T]) Close() {
	if !o.closed.CompareAndSwap(false, true) {
		return
	}
	o.unsubscribeGate()
	o.refresh.stop()
	o.cancel()
	for _, key := range o.store.Keys() {
		o.Teardown(key)
	}
}

func (o *Orchestrator[T]) startFetch(key domain.Key, cfg domain.ItemConfig, attempt string) {
	accepted := o.runner.Go(func() {
		item, err := o.fetch(cfg)
		if err != nil {
			o.loadFailed(key, attempt, err)
			return
		}
		o.loaded(key, attempt, item)
	})
	if !accepted {
		o.loadFailed(key, attempt, domain.ErrClosed)
		return
	}
	o.log.Debug().Str("key", string(key)).Str("attempt", attempt).Msg("fetch dispatched")
}

// fetch ocupa uma vaga do pool durante o Fetch. Panic do fetcher vira erro.
func (o *Orchestrator[T]) fetch(cfg domain.ItemConfig) (item T, err error) {
	release, ok := o.fetchSlots.Acquire(o.ctx)
	if !ok {
		return item, domain.ErrFetchSaturated
	}
	defer release()

	ctx, cancel := o.fetchContext()
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			var zero T
			item, err = zero, fmt.Errorf("%w: %v", errFetchPanicked, r)
		}
	}()
	return o.fetcher.Fetch(ctx, cfg)
}

func (o *Orchestrator[T]) fetchContext() (context.Context, context.CancelFunc) {
	if o.fetchTimeout <= 0 {
		return context.WithCancel(o.ctx)
	}
	return context.WithTimeout(o.ctx, o.fetchTimeout)
}

func (o *Orchestrator[T]) dispatchDisplay(key domain.Key, cfg domain.ItemConfig, item T, target any, attempt, display string) {
	req := domain.DisplayRequest[T]{
		Key:    key,
		Config: cfg,
		Item:   item,
		Target: target,
		Report: reporter[T]{o: o, key: key, display: display},
	}
	o.emit(domain.Event{Key: key, Category: cfg.Category, Kind: domain.EventDisplayStarted, Lifecycle: domain.Showing, Attempt: attempt})

	accepted := o.runner.Go(func() {
		if err := o.display(req); err != nil {
			o.showFailed(key, display, err)
		}
	})
	if !accepted {
		o.showFailed(key, display, domain.ErrClosed)
	}
}

func (o *Orchestrator[T]) display(req domain.DisplayRequest[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errDisplayPanicked, r)
		}
	}()
	return o.displayer.Display(o.ctx, req)
}

func (o *Orchestrator[T]) allowFetch(cat domain.Category) bool {
	if o.limiter == nil {
		return true
	}
	lim := o.limiter.Get(cat)
	return lim == nil || lim.Allow()
}

func (o *Orchestrator[T]) category(key domain.Key) domain.Category {
	cfg, _ := o.configs.Lookup(key)
	return cfg.Category
}

func (o *Orchestrator[T]) gateChanged(enabled bool) {
	o.log.Info().Bool("enabled", enabled).Msg("gate changed")
	if enabled {
		o.refresh.resume()
		return
	}
	o.refresh.pause()
}

func (o *Orchestrator[T]) rejected(key domain.Key, cat domain.Category, err error) {
	ev := domain.Event{Key: key, Category: cat, Kind: domain.EventRejected, Lifecycle: o.store.Get(key).Lifecycle, Err: err}
	if remaining, ok := domain.RemainingCooldown(err); ok {
		ev.Remaining = remaining
	}
	o.log.Debug().Str("key", string(key)).Err(err).Msg("request rejected")
	o.emit(ev)
}

func (o *Orchestrator[T]) observe(key domain.Key, err error) {
	o.log.Warn().Str("key", string(key)).Err(err).Msg("slot failure")
	if o.onError != nil {
		o.onError(key, err)
	}
}

func (o *Orchestrator[T]) emit(ev domain.Event) {
	if o.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = o.clock.Now()
	}
	o.events.Publish(ev)
}

// reporter liga o resultado de uma exibição de volta à chave. Callbacks de uma
// exibição que já foi substituída são ignorados.
type reporter[T any] struct {
	o       *Orchestrator[T]
	key     domain.Key
	display string
}

func (r reporter[T]) Shown()              { r.o.shown(r.key, r.display) }
func (r reporter[T]) Dismissed()          { r.o.dismissed(r.key, r.display) }
func (r reporter[T]) Failed(reason error) { r.o.showFailed(r.key, r.display, reason) }

type openGate struct{}

func (openGate) Enabled() bool               { return true }
func (openGate) Subscribe(func(bool)) func() { return func() {} }

type noCooldown struct{}

func (noCooldown) Satisfied(domain.Category) bool             { return true }
func (noCooldown) Remaining(domain.Category) time.Duration    { return 0 }
func (noCooldown) RecordDismissal(domain.Category, time.Time) {}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
func (wallClock) AfterFunc(d time.Duration, fn func()) domain.Timer {
	return time.AfterFunc(d, fn)
}
