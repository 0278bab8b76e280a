package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inventory-orchestrator/internal/clocktest"
	"inventory-orchestrator/inventory/slots/domain"
)

func TestCooldowns_FirstDisplayAlwaysAllowed(t *testing.T) {
	cd := NewCooldowns(WithGap(domain.CategoryFullscreen, 30*time.Second))

	require.True(t, cd.Satisfied(domain.CategoryFullscreen))
	require.Zero(t, cd.Remaining(domain.CategoryFullscreen))
}

func TestCooldowns_RemainingCountsDownFromDismissal(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := NewCooldowns(WithCooldownClock(clk), WithGap(domain.CategoryFullscreen, 30*time.Second))

	cd.RecordDismissal(domain.CategoryFullscreen, clk.Now())

	clk.Advance(10 * time.Second)
	require.False(t, cd.Satisfied(domain.CategoryFullscreen))
	require.Equal(t, 20*time.Second, cd.Remaining(domain.CategoryFullscreen))

	clk.Advance(21 * time.Second)
	require.True(t, cd.Satisfied(domain.CategoryFullscreen))
	require.Zero(t, cd.Remaining(domain.CategoryFullscreen))
}

func TestCooldowns_CategoryWithoutGapIsNeverBlocked(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := NewCooldowns(WithCooldownClock(clk), WithGap(domain.CategoryFullscreen, 30*time.Second))

	cd.RecordDismissal(domain.CategoryInline, clk.Now())
	require.True(t, cd.Satisfied(domain.CategoryInline))
}

func TestCooldowns_ZeroGapIsUnconstrained(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := NewCooldowns(WithCooldownClock(clk), WithGap(domain.CategoryFullscreen, 0))

	cd.RecordDismissal(domain.CategoryFullscreen, clk.Now())
	require.True(t, cd.Satisfied(domain.CategoryFullscreen))
}

func TestCooldowns_SetGapRejectsNegative(t *testing.T) {
	cd := NewCooldowns()

	require.ErrorIs(t, cd.SetGap(domain.CategoryFullscreen, -time.Second), ErrNegativeGap)
	_, ok := cd.Gap(domain.CategoryFullscreen)
	require.False(t, ok)

	require.NoError(t, cd.SetGap(domain.CategoryFullscreen, time.Second))
	gap, ok := cd.Gap(domain.CategoryFullscreen)
	require.True(t, ok)
	require.Equal(t, time.Second, gap)
}

func TestCooldowns_ZeroTimeDismissalUsesClock(t *testing.T) {
	clk := clocktest.New(time.Time{})
	cd := NewCooldowns(WithCooldownClock(clk), WithGap(domain.CategoryFullscreen, 5*time.Second))

	cd.RecordDismissal(domain.CategoryFullscreen, time.Time{})
	require.Equal(t, 5*time.Second, cd.Remaining(domain.CategoryFullscreen))
}
