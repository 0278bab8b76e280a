package infra

import (
	"time"

	"inventory-orchestrator/inventory/slots/domain"
)

// SystemClock usa o relógio real.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, fn func()) domain.Timer {
	return time.AfterFunc(d, fn)
}
