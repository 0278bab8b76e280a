// Package slots fornece o adapter HTTP (net/http) do orquestrador de slots.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: orquestrador, refresh, admissão (gate + cooldown) sem net/http
//   - infra: implementações concretas (store, cooldown, scheduler, token bucket, semáforo, stats)
//   - slots (este pacote): rotas HTTP + extração de chave + tradução de erros para status/headers
//
// Fluxo de um pedido de exibição:
//
//  1. Extrai a chave do slot (path ou header)
//  2. Chama o orquestrador
//  3. Se rejeitado, responde 429 (cooldown/throttle), 503 (gate) ou 404 (sem configuração)
//  4. Se aceito, responde 202 com a visão atual do slot
//
// Variáveis de ambiente do binário slotd (cmd/slotd) controlam o comportamento,
// como OVERLAY_GAP, RATE_RPS, RATE_BURST, CONCURRENCY_MAX e CONCURRENCY_TIMEOUT.
package slots
