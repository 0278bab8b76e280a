package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"inventory-orchestrator/internal/logging"
	"inventory-orchestrator/inventory/slots/infra"
)

// Upstream de exemplo para o slotd: serve creatives em GET /items/{unit}.
type settings struct {
	ListenAddr string        `env:"LISTEN_ADDR"  envDefault:":8081"`
	Latency    time.Duration `env:"LATENCY"      envDefault:"150ms"`
	NoFillRate float64       `env:"NO_FILL_RATE" envDefault:"0"`
	LogLevel   string        `env:"LOG_LEVEL"    envDefault:"info"`
}

func main() {
	logger := logging.New(logging.DefaultConfig())

	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	logger = logger.Level(logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /items/{unit}", itemHandler(cfg, logger))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Dur("latency", cfg.Latency).Float64("no_fill_rate", cfg.NoFillRate).Msg("example upstream listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func itemHandler(cfg settings, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unit := r.PathValue("unit")

		if cfg.Latency > 0 {
			select {
			case <-time.After(cfg.Latency):
			case <-r.Context().Done():
				return
			}
		}

		if cfg.NoFillRate > 0 && rand.Float64() < cfg.NoFillRate {
			logger.Debug().Str("unit", unit).Msg("no fill")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		c := infra.Creative{
			ID:       uuid.NewString(),
			UnitID:   unit,
			Format:   r.URL.Query().Get("format"),
			Body:     "<div class=\"creative\">" + unit + "</div>",
			IssuedAt: time.Now().UTC(),
		}
		logger.Info().Str("unit", unit).Str("creative", c.ID).Msg("creative served")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}
