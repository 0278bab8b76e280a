// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - SlotStore: mapa chave -> estado com lock por chave
//   - Cooldowns: janela mínima entre exibições por categoria
//   - Scheduler: um timer de refresh por chave, cancelamento sem corrida
//   - LimiterStore: token bucket por categoria usando golang.org/x/time/rate
//   - ChanPool: semáforo simples para limitar fetches simultâneos
//   - EventBus, MemoryStatsStore, RedisStatsStore, PrometheusStats: eventos e estatísticas
package infra
