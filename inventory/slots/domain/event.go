package domain

import (
	"context"
	"time"
)

type EventKind string

const (
	EventRegistered     EventKind = "registered"
	EventLoadStarted    EventKind = "load_started"
	EventLoaded         EventKind = "loaded"
	EventLoadFailed     EventKind = "load_failed"
	EventDiscarded      EventKind = "discarded"
	EventDisplayQueued  EventKind = "display_queued"
	EventDisplayStarted EventKind = "display_started"
	EventShown          EventKind = "shown"
	EventDismissed      EventKind = "dismissed"
	EventShowFailed     EventKind = "show_failed"
	EventRejected       EventKind = "rejected"
	EventTornDown       EventKind = "torn_down"
	EventRefresh        EventKind = "refresh"
)

// Event é um evento tipado do orquestrador. Vários assinantes podem consumir o
// mesmo fluxo de forma independente.
type Event struct {
	Key       Key
	Category  Category
	Kind      EventKind
	Lifecycle Lifecycle
	Attempt   string
	Err       error
	// Remaining só é preenchido em rejeições por cooldown.
	Remaining time.Duration
	At        time.Time
}

// EventPublisher recebe eventos do orquestrador. Publish não pode bloquear.
type EventPublisher interface {
	Publish(ev Event)
}

// EventBus adiciona assinaturas por chave (key vazio = todas as chaves).
type EventBus interface {
	EventPublisher
	Subscribe(key Key, buffer int) (<-chan Event, func())
}

// StatsStore é a estratégia de persistência para estatísticas de eventos.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// Erros são best-effort (não podem travar o orquestrador).
//
// Observação: cuidado com cardinalidade ao registrar por Key.
type StatsStore interface {
	Record(ctx context.Context, ev Event) error
}
