package domain

import "context"

// ConfigSource resolve a configuração de uma chave. ok=false equivale a
// "construção do item falhou" (configuração ausente).
type ConfigSource interface {
	Lookup(key Key) (ItemConfig, bool)
}

// Fetcher busca um item remoto. Fetch é bloqueante; o orquestrador sempre o chama
// fora da goroutine do chamador e transforma o retorno em exatamente um
// OnLoaded/OnLoadFailed.
//
// Release destrói um item; o orquestrador chama exatamente uma vez por item.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, cfg ItemConfig) (T, error)
	Release(item T)
}

// DisplayReporter devolve ao orquestrador o resultado de uma exibição.
type DisplayReporter interface {
	Shown()
	Dismissed()
	Failed(reason error)
}

type DisplayRequest[T any] struct {
	Key    Key
	Config ItemConfig
	Item   T
	// Target é a superfície informada por quem pediu a exibição (pode ser nil).
	Target any
	Report DisplayReporter
}

// Displayer exibe um item. Um erro de retorno é tratado como falha imediata de
// exibição; o restante do ciclo chega via DisplayReporter.
type Displayer[T any] interface {
	Display(ctx context.Context, req DisplayRequest[T]) error
}

// Runner executa trabalho assíncrono. Retorna false se não aceitou (ex: fechado).
type Runner interface {
	Go(fn func()) bool
}
