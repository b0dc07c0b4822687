package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"royalties/contexts/finance-core/royalty-engine/adapters/memory"
	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/ports"
	"royalties/internal/platform/messaging"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type engine struct {
	store    *memory.Store
	clock    *clockwork.FakeClock
	register commands.RegisterTrackUseCase
	addSplit commands.AddSplitUseCase
	trigger  DistributionTriggerConsumer
}

func newEngine() engine {
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	fee := decimal.RequireFromString("2.00")
	return engine{
		store:    store,
		clock:    clock,
		register: commands.RegisterTrackUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		addSplit: commands.AddSplitUseCase{Ledger: store, Clock: clock, IDGenerator: store},
		trigger: DistributionTriggerConsumer{
			Dedup: store,
			Fixed: commands.DistributeFixedUseCase{
				Ledger: store, Clock: clock, IDGenerator: store, PlatformFeePercent: fee,
			},
			Streams: commands.DistributeFromStreamsUseCase{
				Ledger: store, Clock: clock, IDGenerator: store, PlatformFeePercent: fee,
				DefaultRatePerStream: decimal.RequireFromString("0.003"),
			},
			Clock: clock,
		},
	}
}

func (e engine) trackWithSplits(t *testing.T, splits map[string]string) string {
	t.Helper()
	ctx := context.Background()
	track, err := e.register.Execute(ctx, commands.RegisterTrackCommand{
		OwnerID:      "owner-1",
		Title:        "Night Drive",
		PayoutAmount: decimal.RequireFromString("1000.00"),
	})
	require.NoError(t, err)
	for user, pct := range splits {
		_, err := e.addSplit.Execute(ctx, commands.AddSplitCommand{
			TrackID: track.TrackID, UserID: user, Percentage: decimal.RequireFromString(pct),
		})
		require.NoError(t, err)
	}
	return track.TrackID
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	events []ports.EventEnvelope
	failOn string
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestOutboxRelayPublishesInOrderAndMarksSent(t *testing.T) {
	e := newEngine()
	e.trackWithSplits(t, map[string]string{"artist-a": "100.00"})

	publisher := &capturePublisher{}
	relay := OutboxRelay{Outbox: e.store, Publisher: publisher, Clock: e.clock}
	require.NoError(t, relay.Drain(context.Background()))
	require.Equal(t, []string{commands.EventTrackCreated, commands.EventSplitCreated}, publisher.topics)

	published, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, published)
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	e := newEngine()
	e.trackWithSplits(t, map[string]string{"artist-a": "100.00"})

	relay := OutboxRelay{Outbox: e.store, Publisher: &capturePublisher{failOn: commands.EventSplitCreated}, Clock: e.clock}
	published, err := relay.RunOnce(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, published)

	pending, err := e.store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, commands.EventSplitCreated, pending[0].EventType)
}

func TestTriggerDistributesOnceAcrossEvents(t *testing.T) {
	e := newEngine()
	trackID := e.trackWithSplits(t, map[string]string{"artist-a": "50.00", "artist-b": "50.00"})

	publisher := &capturePublisher{}
	require.NoError(t, OutboxRelay{Outbox: e.store, Publisher: publisher, Clock: e.clock}.Drain(context.Background()))

	ctx := context.Background()
	for _, event := range publisher.events {
		require.NoError(t, e.trigger.handleFixed(ctx, event))
	}
	// Redelivery is absorbed by the dedup reservation.
	for _, event := range publisher.events {
		require.NoError(t, e.trigger.handleFixed(ctx, event))
	}

	royalties, err := e.store.ListRoyalties(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, royalties, 1)
	wallet, err := e.store.GetWalletByUser(ctx, "artist-a")
	require.NoError(t, err)
	require.Equal(t, "490.00", wallet.Balance.StringFixed(2))
}

func TestTriggerSkipsIncompleteTrack(t *testing.T) {
	e := newEngine()
	trackID := e.trackWithSplits(t, map[string]string{"artist-a": "50.00"})

	publisher := &capturePublisher{}
	require.NoError(t, OutboxRelay{Outbox: e.store, Publisher: publisher, Clock: e.clock}.Drain(context.Background()))
	for _, event := range publisher.events {
		require.NoError(t, e.trigger.handleFixed(context.Background(), event))
	}

	royalties, err := e.store.ListRoyalties(context.Background(), trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)
}

func TestTriggerDistributesWhenSplitUpdateCompletesSet(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	trackID := e.trackWithSplits(t, map[string]string{"artist-a": "50.00", "artist-b": "40.00"})

	drain := func() {
		publisher := &capturePublisher{}
		require.NoError(t, OutboxRelay{Outbox: e.store, Publisher: publisher, Clock: e.clock}.Drain(ctx))
		for _, event := range publisher.events {
			require.NoError(t, e.trigger.handleFixed(ctx, event))
		}
	}
	drain()
	royalties, err := e.store.ListRoyalties(ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)

	splits, err := e.store.ListSplits(ctx, trackID)
	require.NoError(t, err)
	var splitB string
	for _, split := range splits {
		if split.UserID == "artist-b" {
			splitB = split.SplitID
		}
	}
	_, err = commands.UpdateSplitUseCase{Ledger: e.store, Clock: e.clock, IDGenerator: e.store}.Execute(ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    splitB,
		ActorID:    "owner-1",
		Percentage: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	drain()

	royalties, err = e.store.ListRoyalties(ctx, trackID)
	require.NoError(t, err)
	require.Len(t, royalties, 1)
}

func TestTriggerIgnoresMalformedPayload(t *testing.T) {
	e := newEngine()
	err := e.trigger.handleFixed(context.Background(), ports.EventEnvelope{
		EventID:   "evt-bad",
		EventType: commands.EventTrackCreated,
		Data:      []byte(`{"nope":true}`),
	})
	require.NoError(t, err)
}

func TestTriggerDisabledDoesNotSubscribe(t *testing.T) {
	e := newEngine()
	e.trigger.Disabled = true
	e.trigger.Subscriber = messaging.NewBus(nil)
	require.NoError(t, e.trigger.Start(context.Background()))
}

func TestTriggerOverInProcessBus(t *testing.T) {
	e := newEngine()
	bus := messaging.NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.trigger.Subscriber = bus
	require.NoError(t, e.trigger.Start(ctx))

	trackID := e.trackWithSplits(t, map[string]string{"artist-a": "100.00"})
	require.NoError(t, OutboxRelay{Outbox: e.store, Publisher: bus, Clock: e.clock}.Drain(ctx))

	require.Eventually(t, func() bool {
		royalties, err := e.store.ListRoyalties(ctx, trackID)
		return err == nil && len(royalties) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
