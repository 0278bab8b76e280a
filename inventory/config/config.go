// Package config carrega as configurações do slotd: variáveis de ambiente
// (caarlos0/env) e o catálogo de placements em YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings são as configurações de processo do slotd.
type Settings struct {
	ListenAddr     string `env:"LISTEN_ADDR"     envDefault:":8080"`
	UpstreamURL    string `env:"UPSTREAM_URL"`
	PlacementsFile string `env:"PLACEMENTS_FILE"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT"      envDefault:"console"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	// ItemsEnabled é o valor inicial do gate global.
	ItemsEnabled bool          `env:"ITEMS_ENABLED" envDefault:"true"`
	OverlayGap   time.Duration `env:"OVERLAY_GAP"   envDefault:"25s"`
	// DisplayHold 0 deixa o dismiss para a API (POST /slots/{key}/dismissed).
	DisplayHold  time.Duration `env:"DISPLAY_HOLD"  envDefault:"0s"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`

	RefreshInterval     time.Duration `env:"REFRESH_INTERVAL"      envDefault:"30s"`
	RefreshRetryInitial time.Duration `env:"REFRESH_RETRY_INITIAL" envDefault:"5s"`
	RefreshMaxRetry     time.Duration `env:"REFRESH_MAX_RETRY"     envDefault:"5m"`

	RateEnabled bool    `env:"RATE_ENABLED" envDefault:"true"`
	RateRPS     float64 `env:"RATE_RPS"     envDefault:"10"`
	// RateBurst 0 = não informado (ver Load).
	RateBurst  int  `env:"RATE_BURST"`
	AddHeaders bool `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`

	ConcurrencyMax          int           `env:"CONCURRENCY_MAX"           envDefault:"100"`
	ConcurrencyTimeout      time.Duration `env:"CONCURRENCY_TIMEOUT"       envDefault:"0s"`
	FetchConcurrencyMax     int           `env:"FETCH_CONCURRENCY_MAX"     envDefault:"8"`
	FetchConcurrencyTimeout time.Duration `env:"FETCH_CONCURRENCY_TIMEOUT" envDefault:"2s"`

	Stats StatsSettings `envPrefix:"RATE_STATS_"`
}

// StatsSettings liga os contadores de eventos no Redis.
type StatsSettings struct {
	Enabled       bool          `env:"ENABLED"        envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"       envDefault:"0"`
	Prefix        string        `env:"PREFIX"         envDefault:"slots:stats"`
	TTL           time.Duration `env:"TTL"            envDefault:"24h"`
	Bucket        string        `env:"BUCKET"         envDefault:"minute"`
	TrackKeys     bool          `env:"TRACK_KEYS"     envDefault:"false"`
}

// Load lê as variáveis de ambiente e valida o resultado.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}

	// IMPORTANTE: o "burst" permite uma rajada inicial de fetches por categoria.
	// Com RPS muito baixo (ex: 0.02), o padrão 20 daria a impressão de que o
	// limiter não funciona, porque os primeiros ~20 passam.
	if s.RateBurst == 0 {
		s.RateBurst = 20
		if v, ok := os.LookupEnv("RATE_RPS"); ok && v != "" && s.RateRPS > 0 && s.RateRPS < 1 {
			s.RateBurst = 1
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	if strings.TrimSpace(s.UpstreamURL) == "" {
		return errors.New("UPSTREAM_URL is required")
	}
	if s.RateRPS <= 0 {
		return errors.New("RATE_RPS must be > 0")
	}
	if s.RateBurst <= 0 {
		return errors.New("RATE_BURST must be > 0")
	}
	if s.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if s.FetchConcurrencyMax < 0 {
		return errors.New("FETCH_CONCURRENCY_MAX must be >= 0")
	}
	if s.OverlayGap < 0 {
		return errors.New("OVERLAY_GAP must be >= 0")
	}
	if s.FetchTimeout < 0 {
		return errors.New("FETCH_TIMEOUT must be >= 0")
	}
	if s.RefreshInterval < 0 {
		return errors.New("REFRESH_INTERVAL must be >= 0")
	}
	if s.Stats.Enabled && strings.TrimSpace(s.Stats.RedisAddr) == "" {
		return errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true")
	}
	return nil
}
