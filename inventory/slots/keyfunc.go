package slots

import (
	"net/http"
	"strings"

	"inventory-orchestrator/inventory/slots/domain"
)

// KeyFunc extrai a chave do slot de um request.
type KeyFunc func(r *http.Request) domain.Key

// DefaultKeyFunc usa o segmento {key} da rota e, se vazio, o header informado.
func DefaultKeyFunc(keyHeader string) KeyFunc {
	return func(r *http.Request) domain.Key {
		if v := strings.TrimSpace(r.PathValue("key")); v != "" {
			return domain.Key(v)
		}
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.Key(v)
			}
		}
		return ""
	}
}
