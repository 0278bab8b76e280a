package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"inventory-orchestrator/inventory/slots/domain"
)

func TestEventBus_SubscribeFiltersByKey(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	defer b.Close()

	keyed, cancelKeyed := b.Subscribe("home_banner", 4)
	defer cancelKeyed()
	all, cancelAll := b.Subscribe("", 4)
	defer cancelAll()

	b.Publish(domain.Event{Key: "home_banner", Kind: domain.EventLoaded})
	b.Publish(domain.Event{Key: "interstitial_1", Kind: domain.EventLoaded})

	require.Len(t, keyed, 1)
	require.Len(t, all, 2)
	ev := <-keyed
	require.Equal(t, domain.Key("home_banner"), ev.Key)
}

func TestEventBus_PublishNeverBlocks(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	defer b.Close()

	_, cancel := b.Subscribe("", 1)
	defer cancel()

	b.Publish(domain.Event{Kind: domain.EventShown})
	b.Publish(domain.Event{Kind: domain.EventShown})
	b.Publish(domain.Event{Kind: domain.EventShown})

	require.EqualValues(t, 2, b.Dropped())
}

func TestEventBus_CancelClosesChannel(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	defer b.Close()

	ch, cancel := b.Subscribe("k", 1)
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
}

func TestEventBus_AttachFeedsStatsStore(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	stats := NewMemoryStatsStore()
	b.Attach(context.Background(), "memory", stats)

	b.Publish(domain.Event{Key: "k", Category: domain.CategoryInline, Kind: domain.EventLoaded})
	b.Publish(domain.Event{Key: "k", Category: domain.CategoryInline, Kind: domain.EventShown})

	require.Eventually(t, func() bool {
		return stats.Total()[domain.EventShown] == 1
	}, time.Second, 5*time.Millisecond)
	b.Close()

	require.EqualValues(t, 1, stats.Total()[domain.EventLoaded])
}

type failingStats struct{ calls chan struct{} }

func (f failingStats) Record(context.Context, domain.Event) error {
	f.calls <- struct{}{}
	return errors.New("sink down")
}

func TestEventBus_SinkErrorsDoNotStopPump(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	sink := failingStats{calls: make(chan struct{}, 2)}
	b.Attach(context.Background(), "failing", sink)

	b.Publish(domain.Event{Kind: domain.EventLoaded})
	b.Publish(domain.Event{Kind: domain.EventLoaded})

	for i := 0; i < 2; i++ {
		select {
		case <-sink.calls:
		case <-time.After(time.Second):
			t.Fatal("sink not called")
		}
	}
	b.Close()
}

func TestEventBus_SubscribeAfterCloseIsClosed(t *testing.T) {
	b := NewEventBus(zerolog.Nop())
	b.Close()

	ch, _ := b.Subscribe("", 1)
	_, ok := <-ch
	require.False(t, ok)
}
