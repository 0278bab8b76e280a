package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inventory-orchestrator/internal/clocktest"
	"inventory-orchestrator/inventory/slots/domain"
	"inventory-orchestrator/inventory/slots/infra"
)

func TestAdmission_GateCheckedBeforeCooldown(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := infra.NewCooldowns(infra.WithCooldownClock(clk), infra.WithGap(domain.CategoryFullscreen, 30*time.Second))
	cd.RecordDismissal(domain.CategoryFullscreen, clk.Now())
	gate := infra.NewGate(false)

	dec := Admission{Gate: gate, Cooldowns: cd}.Decide(domain.CategoryFullscreen)
	require.False(t, dec.Allowed)
	require.ErrorIs(t, dec.Reason, domain.ErrGateDisabled)
	require.Zero(t, dec.RetryAfter)
}

func TestAdmission_CooldownDecisionCarriesRetryAfter(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := infra.NewCooldowns(infra.WithCooldownClock(clk), infra.WithGap(domain.CategoryFullscreen, 30*time.Second))
	cd.RecordDismissal(domain.CategoryFullscreen, clk.Now())
	clk.Advance(10 * time.Second)

	dec := Admission{Gate: infra.NewGate(true), Cooldowns: cd}.Decide(domain.CategoryFullscreen)
	require.False(t, dec.Allowed)
	require.Equal(t, 20*time.Second, dec.RetryAfter)
	require.ErrorIs(t, dec.Reason, domain.ErrCooldownActive)
}

func TestAdmission_NilCollaboratorsAllow(t *testing.T) {
	dec := Admission{}.Decide(domain.CategoryFullscreen)
	require.True(t, dec.Allowed)
}
