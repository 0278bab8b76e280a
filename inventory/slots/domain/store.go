package domain

// SlotStore é o mapa concorrente chave -> SlotState.
//
// Get nunca cria entradas (devolve um estado Idle zerado); só Register cria.
// Update executa fn sob a exclusão mútua da chave: é o ponto de linearização de
// todas as transições. Chaves diferentes não compartilham lock.
type SlotStore[T any] interface {
	Register(key Key) bool
	Get(key Key) SlotState[T]
	Update(key Key, fn func(*SlotState[T])) bool
	SetLifecycle(key Key, l Lifecycle) bool
	SetItem(key Key, item T) (old T, hadOld bool)
	TakePending(key Key) *Continuation
	Remove(key Key) (T, bool)
	Delete(key Key) (T, bool)
	Keys() []Key
}
