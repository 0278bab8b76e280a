// Package application contém os casos de uso do orquestrador de slots: a máquina
// de estados (Orchestrator), a política de refresh, a admissão de exibição
// (gate + cooldown) e o controle de concorrência dos fetches.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Admission.Decide(category) retorna uma Decision (allow/deny + retry-after).
package application
