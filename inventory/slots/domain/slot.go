package domain

import (
	"sync"
	"time"
)

// Key identifica um placement (uma superfície lógica). É estável entre loads.
type Key string

// Category agrupa chaves que compartilham a mesma janela de cooldown.
type Category string

const (
	CategoryFullscreen Category = "fullscreen"
	CategoryInline     Category = "inline"
)

// Lifecycle é o estado de um slot: Idle -> Loading -> Loaded -> Showing -> Idle.
type Lifecycle int

const (
	Idle Lifecycle = iota
	Loading
	Loaded
	Showing
)

func (l Lifecycle) String() string {
	switch l {
	case Idle:
		return "IDLE"
	case Loading:
		return "LOADING"
	case Loaded:
		return "LOADED"
	case Showing:
		return "SHOWING"
	default:
		return "UNKNOWN"
	}
}

// Format é o formato do placement. Formatos inline podem ser atualizados em
// background; formatos overlay ocupam a tela inteira.
type Format string

const (
	FormatBanner             Format = "banner"
	FormatNative             Format = "native"
	FormatInterstitial       Format = "interstitial"
	FormatAppOpen            Format = "app_open"
	FormatNativeFullscreen   Format = "native_fullscreen"
	FormatReward             Format = "reward"
	FormatRewardInterstitial Format = "reward_interstitial"
)

func (f Format) IsInline() bool {
	return f == FormatBanner || f == FormatNative
}

func (f Format) IsOverlay() bool {
	return f != "" && !f.IsInline()
}

// DefaultCategory devolve a categoria usada quando a configuração não define uma.
func (f Format) DefaultCategory() Category {
	if f.IsOverlay() {
		return CategoryFullscreen
	}
	return CategoryInline
}

// ItemConfig é a configuração necessária para construir (buscar) um item de uma chave.
type ItemConfig struct {
	Key      Key
	Category Category
	Format   Format
	// UnitID identifica o item no upstream (ex: ad unit id).
	UnitID string
	// RefreshInterval 0 desliga o refresh automático.
	RefreshInterval time.Duration
	Attrs           map[string]string
}

// Refreshable informa se a chave participa do refresh em background.
func (c ItemConfig) Refreshable() bool {
	return c.Format.IsInline() && c.RefreshInterval > 0
}

// Continuation é uma intenção de exibição adiada até o load terminar.
// Resolve é chamado no máximo uma vez.
type Continuation struct {
	Target any

	done func(error)
	once sync.Once
}

func NewContinuation(target any, done func(error)) *Continuation {
	return &Continuation{Target: target, done: done}
}

func (c *Continuation) Resolve(err error) {
	if c == nil {
		return
	}
	c.once.Do(func() {
		if c.done != nil {
			c.done(err)
		}
	})
}

// SlotState é o registro por chave. Só o orquestrador escreve nele, sempre sob a
// exclusão mútua da chave no SlotStore.
type SlotState[T any] struct {
	Lifecycle Lifecycle
	Item      T
	HasItem   bool
	Pending   *Continuation
	// Target é o contexto de exibição (superfície) mantido enquanto o item aparece.
	Target any
	// Attempt correlaciona eventos do fetch em andamento.
	Attempt string
	// DisplayID identifica a exibição corrente; callbacks de exibições
	// anteriores não a alcançam.
	DisplayID string
}

// TakeItem remove o item do estado e o devolve (ownership passa ao chamador).
func (s *SlotState[T]) TakeItem() (T, bool) {
	var zero T
	item, ok := s.Item, s.HasItem
	s.Item, s.HasItem = zero, false
	return item, ok
}

// TakePending lê e limpa a continuação pendente.
func (s *SlotState[T]) TakePending() *Continuation {
	p := s.Pending
	s.Pending = nil
	return p
}

// Reset volta o slot para Idle, devolvendo o que precisa ser liberado.
func (s *SlotState[T]) Reset() (item T, hadItem bool, pending *Continuation) {
	item, hadItem = s.TakeItem()
	pending = s.TakePending()
	s.Lifecycle = Idle
	s.Target = nil
	s.Attempt = ""
	s.DisplayID = ""
	return item, hadItem, pending
}

// SlotView é a visão somente-leitura exposta aos chamadores.
type SlotView struct {
	Key                 Key           `json:"key"`
	Category            Category      `json:"category,omitempty"`
	Lifecycle           string        `json:"lifecycle"`
	HasItem             bool          `json:"has_item"`
	PendingDisplay      bool          `json:"pending_display"`
	Visible             bool          `json:"visible"`
	CooldownRemaining   time.Duration `json:"-"`
	CooldownRemainingMs int64         `json:"cooldown_remaining_ms"`
}
