package slots

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"inventory-orchestrator/inventory/slots/domain"
	"inventory-orchestrator/inventory/slots/infra"
)

// TotalsReader é o lado de leitura de um StatsStore persistente (ex: Redis).
type TotalsReader interface {
	Totals(ctx context.Context) (map[string]int64, error)
}

type StatsOptions struct {
	Memory *infra.MemoryStatsStore
	// Persisted é opcional.
	Persisted TotalsReader
	Dropped   func() int64
	Logger    zerolog.Logger
}

type statsBody struct {
	Total      infra.Counters                     `json:"total"`
	ByCategory map[domain.Category]infra.Counters `json:"by_category"`
	ByKey      map[domain.Key]infra.Counters      `json:"by_key,omitempty"`
	Persisted  map[string]int64                   `json:"persisted,omitempty"`
	Dropped    int64                              `json:"dropped_events"`
}

// NewStatsHandler expõe GET /stats com os contadores de eventos.
func NewStatsHandler(opts StatsOptions) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
			return
		}
		if opts.Memory == nil {
			writeJSON(w, http.StatusNotImplemented, errorBody{Error: "stats not configured"})
			return
		}

		body := statsBody{
			Total:      opts.Memory.Total(),
			ByCategory: opts.Memory.ByCategory(),
			ByKey:      opts.Memory.ByKey(),
		}
		if opts.Dropped != nil {
			body.Dropped = opts.Dropped()
		}
		if opts.Persisted != nil {
			totals, err := opts.Persisted.Totals(r.Context())
			if err != nil {
				opts.Logger.Warn().Err(err).Msg("read persisted stats")
			} else {
				body.Persisted = totals
			}
		}
		writeJSON(w, http.StatusOK, body)
	})
}
