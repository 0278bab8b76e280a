package infra

import (
	"context"
	"errors"
	"time"

	"inventory-orchestrator/inventory/slots/domain"

	"github.com/rs/zerolog"
)

var ErrNoReporter = errors.New("display request without reporter")

// TimedDisplayer simula uma superfície de exibição: reporta Shown logo após
// Display e Dismissed depois de `hold`. Com hold <= 0 o dismiss fica a cargo
// de quem chama (ex: API HTTP).
type TimedDisplayer[T any] struct {
	clock domain.Clock
	hold  time.Duration
	log   zerolog.Logger
}

func NewTimedDisplayer[T any](clock domain.Clock, hold time.Duration, log zerolog.Logger) *TimedDisplayer[T] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimedDisplayer[T]{clock: clock, hold: hold, log: log}
}

func (d *TimedDisplayer[T]) Display(_ context.Context, req domain.DisplayRequest[T]) error {
	if req.Report == nil {
		return ErrNoReporter
	}
	d.log.Info().Str("key", string(req.Key)).Str("category", string(req.Config.Category)).Msg("item displayed")
	req.Report.Shown()

	if d.hold > 0 {
		d.clock.AfterFunc(d.hold, req.Report.Dismissed)
	}
	return nil
}
