package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-orchestrator/internal/clocktest"
	"inventory-orchestrator/inventory/slots/domain"
	"inventory-orchestrator/inventory/slots/infra"
)

type creative struct {
	id  int
	key domain.Key
}

type fakeFetcher struct {
	mu       sync.Mutex
	next     int
	fetches  map[domain.Key]int
	released []*creative
	errs     map[domain.Key]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{fetches: make(map[domain.Key]int), errs: make(map[domain.Key]error)}
}

func (f *fakeFetcher) Fetch(_ context.Context, cfg domain.ItemConfig) (*creative, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[cfg.Key]++
	if err := f.errs[cfg.Key]; err != nil {
		return nil, err
	}
	f.next++
	return &creative{id: f.next, key: cfg.Key}, nil
}

func (f *fakeFetcher) Release(c *creative) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, c)
}

func (f *fakeFetcher) failWith(key domain.Key, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *fakeFetcher) fetchCount(key domain.Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[key]
}

func (f *fakeFetcher) releasedItems() []*creative {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*creative(nil), f.released...)
}

type fakeDisplayer struct {
	mu   sync.Mutex
	reqs []domain.DisplayRequest[*creative]
	err  error
}

func (d *fakeDisplayer) Display(_ context.Context, req domain.DisplayRequest[*creative]) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return d.err
}

func (d *fakeDisplayer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reqs)
}

func (d *fakeDisplayer) last() domain.DisplayRequest[*creative] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reqs[len(d.reqs)-1]
}

// manualRunner enfileira as tarefas; o teste decide quando rodar.
type manualRunner struct {
	mu    sync.Mutex
	queue []func()
}

func (r *manualRunner) Go(fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, fn)
	return true
}

func (r *manualRunner) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// runAll executa até a fila esvaziar (tarefas podem enfileirar outras).
func (r *manualRunner) runAll() {
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}

type staticConfigs map[domain.Key]domain.ItemConfig

func (c staticConfigs) Lookup(key domain.Key) (domain.ItemConfig, bool) {
	cfg, ok := c[key]
	return cfg, ok
}

func testConfigs() staticConfigs {
	return staticConfigs{
		"home_banner":    {Key: "home_banner", Category: domain.CategoryInline, Format: domain.FormatBanner, RefreshInterval: 30 * time.Second},
		"feed_native":    {Key: "feed_native", Category: domain.CategoryInline, Format: domain.FormatNative},
		"interstitial_1": {Key: "interstitial_1", Category: domain.CategoryFullscreen, Format: domain.FormatInterstitial},
		"interstitial_2": {Key: "interstitial_2", Category: domain.CategoryFullscreen, Format: domain.FormatInterstitial},
	}
}

type harness struct {
	o         *Orchestrator[*creative]
	store     *infra.SlotStore[*creative]
	fetcher   *fakeFetcher
	display   *fakeDisplayer
	runner    *manualRunner
	clock     *clocktest.Clock
	gate      *infra.Gate
	cooldowns *infra.Cooldowns
	sched     *infra.Scheduler
	bus       *infra.EventBus

	mu     sync.Mutex
	errors []error
}

func newHarness(t *testing.T, mutate ...func(*Options[*creative])) *harness {
	t.Helper()

	clk := clocktest.New(time.Time{})
	h := &harness{
		store:     infra.NewSlotStore[*creative](),
		fetcher:   newFakeFetcher(),
		display:   &fakeDisplayer{},
		runner:    &manualRunner{},
		clock:     clk,
		gate:      infra.NewGate(true),
		cooldowns: infra.NewCooldowns(infra.WithCooldownClock(clk), infra.WithGap(domain.CategoryFullscreen, 30*time.Second)),
		sched:     infra.NewScheduler(clk),
		bus:       infra.NewEventBus(zerolog.Nop()),
	}

	opts := Options[*creative]{
		Fetcher:   h.fetcher,
		Displayer: h.display,
		Configs:   testConfigs(),
		Store:     h.store,
		Runner:    h.runner,
		Cooldowns: h.cooldowns,
		Gate:      h.gate,
		Scheduler: h.sched,
		Clock:     clk,
		Events:    h.bus,
		Refresh:   RefreshOptions{NoJitter: true},
		OnError: func(_ domain.Key, err error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.errors = append(h.errors, err)
		},
		Logger: zerolog.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}

	o, err := New(opts)
	require.NoError(t, err)
	h.o = o
	t.Cleanup(func() {
		o.Close()
		h.bus.Close()
	})
	return h
}

func (h *harness) observed() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errors...)
}

// resultRecorder guarda o resultado entregue por WithResult.
type resultRecorder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *resultRecorder) record(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.err = err
}

func (r *resultRecorder) get() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.err
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options[*creative]{})
	require.Error(t, err)

	_, err = New(Options[*creative]{
		Fetcher:      newFakeFetcher(),
		Displayer:    &fakeDisplayer{},
		Configs:      testConfigs(),
		Store:        infra.NewSlotStore[*creative](),
		Runner:       &manualRunner{},
		FetchTimeout: -time.Second,
	})
	require.Error(t, err)
}

func TestRequestLoad_SingleFlightUnderConcurrency(t *testing.T) {
	h := newHarness(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.o.RequestLoad("interstitial_1"))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, h.runner.len())
	h.runner.runAll()

	require.Equal(t, 1, h.fetcher.fetchCount("interstitial_1"))
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
}

func TestRequestLoad_AbsorbedWhileLoadingOrLoaded(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()

	require.Equal(t, 1, h.fetcher.fetchCount("interstitial_1"))
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
}

func TestRequestLoad_MissingConfigFailsSynchronously(t *testing.T) {
	h := newHarness(t)

	err := h.o.RequestLoad("unknown")
	require.ErrorIs(t, err, domain.ErrItemConstruction)
	require.Equal(t, domain.Idle, h.o.Lifecycle("unknown"))
	require.Zero(t, h.runner.len())
}

func TestUnknownKeysAreNotRegistered(t *testing.T) {
	h := newHarness(t)

	require.ErrorIs(t, h.o.RequestLoad("unknown_load"), domain.ErrItemConstruction)
	require.ErrorIs(t, h.o.RequestDisplay("unknown_display"), domain.ErrItemConstruction)
	require.ErrorIs(t, h.o.SetVisible("unknown_banner", true), domain.ErrItemConstruction)
	require.Empty(t, h.store.Keys())

	h.gate.Set(false)
	require.ErrorIs(t, h.o.RequestDisplay("unknown_display"), domain.ErrGateDisabled)
	require.Empty(t, h.store.Keys())
}

func TestOnLoaded_FetchFromTornDownAttemptDoesNotEndNewerLoad(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.o.Teardown("interstitial_1")
	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	require.Equal(t, 2, h.runner.len())

	h.runner.runAll()

	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
	released := h.fetcher.releasedItems()
	require.Len(t, released, 1)
	require.Equal(t, 1, released[0].id, "item from the torn-down attempt is released")

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()
	require.Equal(t, 2, h.display.last().Item.id)
}

func TestRequestLoad_GateDisabledChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.gate.Set(false)

	require.ErrorIs(t, h.o.RequestLoad("interstitial_1"), domain.ErrGateDisabled)
	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Zero(t, h.runner.len())
}

func TestRequestLoad_ThrottledPerCategory(t *testing.T) {
	h := newHarness(t, func(o *Options[*creative]) {
		o.Limiter = infra.NewLimiterStore(0.001, 1)
	})

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	require.ErrorIs(t, h.o.RequestLoad("interstitial_2"), domain.ErrLoadThrottled)
	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_2"))

	// outra categoria tem bucket próprio
	require.NoError(t, h.o.RequestLoad("feed_native"))
}

func TestOnLoaded_AfterTeardownIsDiscardedAndReleased(t *testing.T) {
	h := newHarness(t)
	events, cancel := h.o.Subscribe("interstitial_1", 32)
	defer cancel()

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.o.Teardown("interstitial_1")
	h.runner.runAll()

	st := h.o.State("interstitial_1")
	require.Equal(t, "IDLE", st.Lifecycle)
	require.False(t, st.HasItem)
	released := h.fetcher.releasedItems()
	require.Len(t, released, 1)
	require.Equal(t, domain.Key("interstitial_1"), released[0].key)

	var kinds []domain.EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	require.Contains(t, kinds, domain.EventDiscarded)
}

func TestRequestDisplay_LastWriterWinsWhileLoading(t *testing.T) {
	h := newHarness(t)
	first, second := &resultRecorder{}, &resultRecorder{}

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithTarget("surface-a"), WithResult(first.record)))
	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithTarget("surface-b"), WithResult(second.record)))
	require.True(t, h.o.State("interstitial_1").PendingDisplay)

	calls, err := first.get()
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, domain.ErrSuperseded)

	h.runner.runAll()

	calls, err = second.get()
	require.Equal(t, 1, calls)
	require.NoError(t, err)
	require.Equal(t, 1, h.display.count())
	require.Equal(t, "surface-b", h.display.last().Target)
	require.Equal(t, domain.Showing, h.o.Lifecycle("interstitial_1"))
}

func TestRequestDisplay_CooldownRejectsWithRemaining(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()
	require.Equal(t, domain.Showing, h.o.Lifecycle("interstitial_1"))
	h.display.last().Report.Dismissed()

	h.clock.Advance(10 * time.Second)
	rec := &resultRecorder{}
	err := h.o.RequestDisplay("interstitial_2", WithResult(rec.record))

	require.ErrorIs(t, err, domain.ErrCooldownActive)
	remaining, ok := domain.RemainingCooldown(err)
	require.True(t, ok)
	require.Equal(t, 20*time.Second, remaining)
	require.Equal(t, 20000, int(h.o.State("interstitial_2").CooldownRemainingMs))
	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_2"))
	require.Zero(t, h.fetcher.fetchCount("interstitial_2"))
	require.Equal(t, 1, h.display.count())
	_, recErr := rec.get()
	require.ErrorIs(t, recErr, domain.ErrCooldownActive)

	h.clock.Advance(21 * time.Second)
	require.NoError(t, h.o.RequestDisplay("interstitial_2"))
	require.Equal(t, domain.Loading, h.o.Lifecycle("interstitial_2"))
}

func TestRequestDisplay_CooldownDoesNotTouchInlineCategory(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()
	h.display.last().Report.Dismissed()

	require.NoError(t, h.o.RequestDisplay("feed_native"))
	h.runner.runAll()
	require.Equal(t, domain.Showing, h.o.Lifecycle("feed_native"))
}

func TestRoundTrip_LoadShowDismiss(t *testing.T) {
	h := newHarness(t)
	events, cancel := h.o.Subscribe("interstitial_1", 32)
	defer cancel()

	h.o.RegisterKey("interstitial_1")
	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithTarget("main")))
	require.Equal(t, domain.Loading, h.o.Lifecycle("interstitial_1"))

	h.runner.runAll()
	require.Equal(t, domain.Showing, h.o.Lifecycle("interstitial_1"))
	require.Equal(t, 1, h.display.count())

	req := h.display.last()
	require.Equal(t, "main", req.Target)
	req.Report.Shown()
	req.Report.Dismissed()

	st := h.o.State("interstitial_1")
	require.Equal(t, "IDLE", st.Lifecycle)
	require.False(t, st.HasItem)
	require.Equal(t, []*creative{req.Item}, h.fetcher.releasedItems())
	require.False(t, h.cooldowns.Satisfied(domain.CategoryFullscreen))

	want := []domain.EventKind{
		domain.EventRegistered,
		domain.EventLoadStarted,
		domain.EventDisplayQueued,
		domain.EventLoaded,
		domain.EventDisplayStarted,
		domain.EventShown,
		domain.EventDismissed,
	}
	var got []domain.EventKind
	for len(events) > 0 {
		got = append(got, (<-events).Kind)
	}
	require.Equal(t, want, got)
}

func TestRequestDisplay_WhileShowingIsNoop(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()

	rec := &resultRecorder{}
	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithResult(rec.record)))
	h.runner.runAll()

	calls, err := rec.get()
	require.Equal(t, 1, calls)
	require.NoError(t, err)
	require.Equal(t, 1, h.display.count())
	require.Equal(t, 1, h.fetcher.fetchCount("interstitial_1"))
}

func TestRequestDisplay_LoadedShowsImmediately(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
	require.Zero(t, h.display.count())

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	require.Equal(t, domain.Showing, h.o.Lifecycle("interstitial_1"))
	h.runner.runAll()
	require.Equal(t, 1, h.display.count())
}

func TestRequestDisplay_GateOffReleasesLoadedItem(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	require.True(t, h.o.State("interstitial_1").HasItem)

	h.gate.Set(false)
	err := h.o.RequestDisplay("interstitial_1")

	require.ErrorIs(t, err, domain.ErrGateDisabled)
	st := h.o.State("interstitial_1")
	require.Equal(t, "IDLE", st.Lifecycle)
	require.False(t, st.HasItem)
	require.Len(t, h.fetcher.releasedItems(), 1)
	require.Zero(t, h.display.count())
}

func TestOnLoaded_PendingRejectedWhenCooldownStartsDuringLoad(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()
	shown := h.display.last()

	rec := &resultRecorder{}
	require.NoError(t, h.o.RequestDisplay("interstitial_2", WithResult(rec.record)))
	shown.Report.Dismissed()
	h.runner.runAll()

	_, err := rec.get()
	require.ErrorIs(t, err, domain.ErrCooldownActive)
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_2"))
	require.Equal(t, 1, h.display.count())
}

func TestOnLoaded_PendingDroppedWhenGateTurnsOffDuringLoad(t *testing.T) {
	h := newHarness(t)
	rec := &resultRecorder{}

	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithResult(rec.record)))
	h.gate.Set(false)
	h.runner.runAll()

	_, err := rec.get()
	require.ErrorIs(t, err, domain.ErrGateDisabled)
	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Len(t, h.fetcher.releasedItems(), 1)
}

func TestOnLoadFailed_ReturnsToIdleAndReports(t *testing.T) {
	h := newHarness(t)
	h.fetcher.failWith("interstitial_1", errors.New("no fill"))
	rec := &resultRecorder{}

	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithResult(rec.record)))
	h.runner.runAll()

	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	_, err := rec.get()
	var lerr *domain.LoadError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, domain.Key("interstitial_1"), lerr.Key)

	observed := h.observed()
	require.Len(t, observed, 1)
	require.ErrorContains(t, observed[0], "no fill")

	// a chave pode carregar de novo
	h.fetcher.failWith("interstitial_1", nil)
	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
}

func TestOnLoadFailed_StaleCompletionIsIgnored(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()

	h.o.OnLoadFailed("interstitial_1", errors.New("late"))
	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
	require.True(t, h.o.State("interstitial_1").HasItem)
}

func TestFetchSaturatedIsLoadFailure(t *testing.T) {
	pool := infra.NewChanPool(1)
	h := newHarness(t, func(o *Options[*creative]) {
		o.FetchSlots = ConcurrencyService{Pool: pool, AcquireTimeout: time.Millisecond}
	})

	hold, ok := pool.Acquire(context.Background())
	require.True(t, ok)
	defer hold()

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()

	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Zero(t, h.fetcher.fetchCount("interstitial_1"))
	require.ErrorIs(t, h.observed()[0], domain.ErrFetchSaturated)
}

type panickingFetcher struct {
	*fakeFetcher
}

func (f panickingFetcher) Fetch(_ context.Context, cfg domain.ItemConfig) (*creative, error) {
	f.mu.Lock()
	f.fetches[cfg.Key]++
	f.mu.Unlock()
	panic("upstream sdk crashed")
}

func TestFetchPanicIsLoadFailureAndFreesSlot(t *testing.T) {
	pool := infra.NewChanPool(1)
	fetcher := panickingFetcher{newFakeFetcher()}
	h := newHarness(t, func(o *Options[*creative]) {
		o.Fetcher = fetcher
		o.FetchSlots = ConcurrencyService{Pool: pool, AcquireTimeout: time.Millisecond}
	})

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()

	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Equal(t, 1, fetcher.fetchCount("interstitial_1"))
	require.Len(t, h.observed(), 1)
	require.ErrorIs(t, h.observed()[0], errFetchPanicked)
	require.Contains(t, h.observed()[0].Error(), "upstream sdk crashed")

	release, ok := pool.Acquire(context.Background())
	require.True(t, ok, "fetch slot must be returned after a panic")
	release()

	// a chave volta a aceitar loads
	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	require.Equal(t, domain.Loading, h.o.Lifecycle("interstitial_1"))
}

type panickingDisplayer struct{}

func (panickingDisplayer) Display(context.Context, domain.DisplayRequest[*creative]) error {
	panic("surface detached")
}

func TestDisplayPanicIsShowFailure(t *testing.T) {
	h := newHarness(t, func(o *Options[*creative]) {
		o.Displayer = panickingDisplayer{}
	})

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()

	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Len(t, h.fetcher.releasedItems(), 1)
	require.ErrorIs(t, h.observed()[0], errDisplayPanicked)
	require.True(t, h.cooldowns.Satisfied(domain.CategoryFullscreen))
}

func TestOnShowFailed_ReleasesItem(t *testing.T) {
	h := newHarness(t)
	h.display.err = errors.New("activity gone")

	require.NoError(t, h.o.RequestDisplay("interstitial_1"))
	h.runner.runAll()

	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
	require.Len(t, h.fetcher.releasedItems(), 1)
	var serr *domain.ShowError
	require.ErrorAs(t, h.observed()[0], &serr)
	require.True(t, h.cooldowns.Satisfied(domain.CategoryFullscreen), "failed show does not start cooldown")
}

func TestOnDismissed_WithoutShowIsIgnored(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	h.o.OnDismissed("interstitial_1")

	require.Equal(t, domain.Loaded, h.o.Lifecycle("interstitial_1"))
	require.True(t, h.cooldowns.Satisfied(domain.CategoryFullscreen))
}

func TestTeardown_ResolvesPendingAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	rec := &resultRecorder{}

	require.NoError(t, h.o.RequestDisplay("interstitial_1", WithResult(rec.record)))
	h.o.Teardown("interstitial_1")
	h.o.Teardown("interstitial_1")
	h.o.Teardown("never_registered")

	calls, err := rec.get()
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, domain.ErrTornDown)
	require.Equal(t, domain.Idle, h.o.Lifecycle("interstitial_1"))
}

func TestClose_ReleasesItemsAndRejectsRequests(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.o.RequestLoad("interstitial_1"))
	h.runner.runAll()
	h.o.Close()

	require.Len(t, h.fetcher.releasedItems(), 1)
	require.ErrorIs(t, h.o.RequestLoad("interstitial_1"), domain.ErrClosed)
	require.ErrorIs(t, h.o.RequestDisplay("interstitial_1"), domain.ErrClosed)
}
