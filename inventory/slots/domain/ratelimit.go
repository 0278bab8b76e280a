package domain

// Limiter decide se um fetch pode sair agora.
//
// A camada de infra usa golang.org/x/time/rate (token bucket).
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por categoria.
// A implementação pode manter cache, TTL, etc.
type LimiterStore interface {
	Get(Category) Limiter
}
