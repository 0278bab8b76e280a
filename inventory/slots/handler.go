package slots

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"inventory-orchestrator/inventory/slots/application"
	"inventory-orchestrator/inventory/slots/domain"
)

const (
	DefaultKeyHeader    = "X-Slot-Key"
	DefaultTargetHeader = "X-Slot-Target"
)

// Controller é a parte do orquestrador usada pela API. *application.Orchestrator[T]
// satisfaz para qualquer T.
type Controller interface {
	RegisterKey(key domain.Key)
	RequestLoad(key domain.Key) error
	RequestDisplay(key domain.Key, opts ...application.DisplayOption) error
	SetVisible(key domain.Key, visible bool, opts ...application.DisplayOption) error
	OnShown(key domain.Key)
	OnDismissed(key domain.Key)
	OnShowFailed(key domain.Key, reason error)
	Teardown(key domain.Key)
	State(key domain.Key) domain.SlotView
}

// GateSwitch é o gate global visto pela API (leitura e escrita).
type GateSwitch interface {
	Enabled() bool
	Set(enabled bool)
}

type Options struct {
	Controller Controller
	Gate       GateSwitch
	// Limiter só é usado para os headers X-RateLimit-* em loads recusados.
	Limiter             domain.LimiterStore
	KeyFn               KeyFunc
	KeyHeader           string
	TargetHeader        string
	AddRateLimitHeaders bool
	Logger              zerolog.Logger
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

type handler struct {
	ctl          Controller
	gate         GateSwitch
	limiter      domain.LimiterStore
	keyFn        KeyFunc
	targetHeader string
	rateHeaders  bool
	log          zerolog.Logger
}

// NewHandler monta as rotas da API de controle.
func NewHandler(opts Options) http.Handler {
	if opts.KeyHeader == "" {
		opts.KeyHeader = DefaultKeyHeader
	}
	if opts.TargetHeader == "" {
		opts.TargetHeader = DefaultTargetHeader
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader)
	}

	h := &handler{
		ctl:          opts.Controller,
		gate:         opts.Gate,
		limiter:      opts.Limiter,
		keyFn:        opts.KeyFn,
		targetHeader: opts.TargetHeader,
		rateHeaders:  opts.AddRateLimitHeaders,
		log:          opts.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /slots/{key}", h.register)
	mux.HandleFunc("GET /slots/{key}", h.state)
	mux.HandleFunc("DELETE /slots/{key}", h.teardown)
	mux.HandleFunc("POST /slots/{key}/load", h.load)
	mux.HandleFunc("POST /slots/{key}/display", h.display)
	mux.HandleFunc("POST /slots/{key}/visibility", h.visibility)
	mux.HandleFunc("POST /slots/{key}/shown", h.shown)
	mux.HandleFunc("POST /slots/{key}/dismissed", h.dismissed)
	mux.HandleFunc("POST /slots/{key}/show-failed", h.showFailed)
	mux.HandleFunc("GET /gate", h.gateState)
	mux.HandleFunc("PUT /gate", h.setGate)
	return mux
}

// StatusFor traduz um erro do orquestrador para status HTTP.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case errors.Is(err, domain.ErrCooldownActive), errors.Is(err, domain.ErrLoadThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrGateDisabled),
		errors.Is(err, domain.ErrClosed),
		errors.Is(err, domain.ErrFetchSaturated):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrItemConstruction):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) key(w http.ResponseWriter, r *http.Request) (domain.Key, bool) {
	key := h.keyFn(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing slot key"})
		return "", false
	}
	return key, true
}

func (h *handler) displayOptions(r *http.Request) []application.DisplayOption {
	if target := strings.TrimSpace(r.Header.Get(h.targetHeader)); target != "" {
		return []application.DisplayOption{application.WithTarget(target)}
	}
	return nil
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	h.ctl.RegisterKey(key)
	writeJSON(w, http.StatusCreated, h.ctl.State(key))
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.State(key))
}

func (h *handler) teardown(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	h.ctl.Teardown(key)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) load(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.ctl.RequestLoad(key); err != nil {
		h.fail(w, key, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.ctl.State(key))
}

func (h *handler) display(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	if err := h.ctl.RequestDisplay(key, h.displayOptions(r)...); err != nil {
		h.fail(w, key, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.ctl.State(key))
}

func (h *handler) visibility(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	visible, err := strconv.ParseBool(r.URL.Query().Get("visible"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Key: key, Error: "visible must be a boolean"})
		return
	}
	if err := h.ctl.SetVisible(key, visible, h.displayOptions(r)...); err != nil {
		h.fail(w, key, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.ctl.State(key))
}

func (h *handler) shown(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	h.ctl.OnShown(key)
	writeJSON(w, http.StatusOK, h.ctl.State(key))
}

func (h *handler) dismissed(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	h.ctl.OnDismissed(key)
	writeJSON(w, http.StatusOK, h.ctl.State(key))
}

func (h *handler) showFailed(w http.ResponseWriter, r *http.Request) {
	key, ok := h.key(w, r)
	if !ok {
		return
	}
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if reason == "" {
		reason = "display failed"
	}
	h.ctl.OnShowFailed(key, errors.New(reason))
	writeJSON(w, http.StatusOK, h.ctl.State(key))
}

type gateBody struct {
	Enabled bool `json:"enabled"`
}

func (h *handler) gateState(w http.ResponseWriter, _ *http.Request) {
	if h.gate == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "gate not configured"})
		return
	}
	writeJSON(w, http.StatusOK, gateBody{Enabled: h.gate.Enabled()})
}

func (h *handler) setGate(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "gate not configured"})
		return
	}
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "enabled must be a boolean"})
		return
	}
	h.gate.Set(enabled)
	h.log.Info().Bool("enabled", enabled).Msg("gate updated via api")
	writeJSON(w, http.StatusOK, gateBody{Enabled: h.gate.Enabled()})
}

type errorBody struct {
	Key                 domain.Key `json:"key,omitempty"`
	Error               string     `json:"error"`
	CooldownRemainingMs int64      `json:"cooldown_remaining_ms,omitempty"`
}

func (h *handler) fail(w http.ResponseWriter, key domain.Key, err error) {
	status := StatusFor(err)
	body := errorBody{Key: key, Error: err.Error()}

	if remaining, ok := domain.RemainingCooldown(err); ok {
		w.Header().Set("Retry-After", formatInt(retryAfterSeconds(remaining)))
		w.Header().Set("X-Cooldown-Remaining-Ms", formatInt64(remaining.Milliseconds()))
		body.CooldownRemainingMs = remaining.Milliseconds()
	}
	if h.rateHeaders && errors.Is(err, domain.ErrLoadThrottled) {
		if ri, ok := h.limiter.(rateInfo); ok {
			w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
			w.Header().Set("X-RateLimit-Burst", formatInt(ri.Burst()))
		}
	}

	ev := h.log.Debug()
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		ev = h.log.Error()
	}
	ev.Str("key", string(key)).Int("status", status).Err(err).Msg("slot request rejected")
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
