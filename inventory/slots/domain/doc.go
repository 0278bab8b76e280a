// Package domain define contratos e tipos de domínio do orquestrador de slots.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar a máquina de estados
// (application) dos detalhes de infraestrutura (infra).
package domain
