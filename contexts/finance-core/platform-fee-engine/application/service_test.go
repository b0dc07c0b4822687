package application_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"royalties/contexts/finance-core/platform-fee-engine/adapters/memory"
	"royalties/contexts/finance-core/platform-fee-engine/application"
	domainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	"royalties/contexts/finance-core/platform-fee-engine/ports"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newService() (application.Service, *memory.Store) {
	store := memory.NewStore()
	return application.Service{
		Repo:              store,
		EventDedup:        store,
		Clock:             clockwork.NewFakeClockAt(time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)),
		IDGen:             store,
		DefaultFeePercent: decimal.RequireFromString("2.00"),
	}, store
}

func distributed(royaltyID string, at time.Time) ports.RoyaltyDistributedEvent {
	return ports.RoyaltyDistributedEvent{
		RoyaltyID:          royaltyID,
		TrackID:            "track-1",
		Mode:               "fixed",
		TotalEarning:       decimal.RequireFromString("1000.00"),
		NetTotal:           decimal.RequireFromString("980.00"),
		FeeTotal:           decimal.RequireFromString("20.00"),
		PlatformFeePercent: decimal.RequireFromString("2.00"),
		PayoutsCount:       3,
		DistributedAt:      at,
	}
}

func TestRecordDistributionStoresFee(t *testing.T) {
	svc, _ := newService()
	at := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	record, replayed, err := svc.RecordDistribution(context.Background(), "evt-1", distributed("roy-1", at))
	require.NoError(t, err)
	require.False(t, replayed)
	require.Equal(t, "20.00", record.FeeAmount.StringFixed(2))
	require.Equal(t, "980.00", record.NetAmount.StringFixed(2))
	require.Equal(t, "evt-1", record.SourceEventID)
	require.Equal(t, at, record.DistributedAt)
}

func TestRecordDistributionReplays(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	event := distributed("roy-1", time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC))

	first, _, err := svc.RecordDistribution(ctx, "evt-1", event)
	require.NoError(t, err)

	again, replayed, err := svc.RecordDistribution(ctx, "evt-1", event)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, first.RecordID, again.RecordID)

	// Same royalty under a new event id.
	other, replayed, err := svc.RecordDistribution(ctx, "evt-2", event)
	require.NoError(t, err)
	require.True(t, replayed)
	require.Equal(t, first.RecordID, other.RecordID)

	changed := event
	changed.FeeTotal = decimal.RequireFromString("21.00")
	_, _, err = svc.RecordDistribution(ctx, "evt-1", changed)
	require.ErrorIs(t, err, domainerrors.ErrEventPayloadConflict)
}

func TestRecordDistributionDerivesFeeForGrossOnlyEvents(t *testing.T) {
	svc, _ := newService()
	event := ports.RoyaltyDistributedEvent{
		RoyaltyID:    "roy-legacy",
		TrackID:      "track-1",
		TotalEarning: decimal.RequireFromString("3.00"),
	}

	record, _, err := svc.RecordDistribution(context.Background(), "evt-legacy", event)
	require.NoError(t, err)
	require.Equal(t, "2.00", record.FeePercent.StringFixed(2))
	require.Equal(t, "0.06", record.FeeAmount.StringFixed(2))
	require.Equal(t, "2.94", record.NetAmount.StringFixed(2))
	require.Equal(t, time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC), record.DistributedAt)
}

func TestRecordDistributionRejectsInvalidEvents(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, _, err := svc.RecordDistribution(ctx, "", distributed("roy-1", time.Now()))
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	zero := distributed("roy-1", time.Now())
	zero.TotalEarning = decimal.Zero
	_, _, err = svc.RecordDistribution(ctx, "evt-1", zero)
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestMonthlyReportSumsTheMonth(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	for i, at := range []time.Time{
		time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	} {
		royaltyID := "roy-" + string(rune('a'+i))
		_, _, err := svc.RecordDistribution(ctx, "evt-"+royaltyID, distributed(royaltyID, at))
		require.NoError(t, err)
	}

	report, err := svc.MonthlyReport(ctx, "2026-03")
	require.NoError(t, err)
	require.Equal(t, 2, report.Count)
	require.Equal(t, "2000.00", report.TotalGross.StringFixed(2))
	require.Equal(t, "40.00", report.TotalFee.StringFixed(2))
	require.Equal(t, "1960.00", report.TotalNet.StringFixed(2))

	_, err = svc.MonthlyReport(ctx, "March")
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestListTrackHistoryPages(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		royaltyID := "roy-" + string(rune('a'+i))
		_, _, err := svc.RecordDistribution(ctx, "evt-"+royaltyID, distributed(royaltyID, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	page, err := svc.ListTrackHistory(ctx, "track-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "roy-c", page[0].RoyaltyID)

	rest, err := svc.ListTrackHistory(ctx, "track-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.Equal(t, "roy-a", rest[0].RoyaltyID)

	_, err = svc.ListTrackHistory(ctx, " ", 10, 0)
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestConsumerHandle(t *testing.T) {
	svc, store := newService()
	consumer := application.RoyaltyDistributedConsumer{Service: svc}
	ctx := context.Background()

	require.NoError(t, consumer.Handle(ctx, ports.EventEnvelope{EventID: "evt-bad", Data: []byte("{")}))

	data, err := json.Marshal(distributed("roy-1", time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	envelope := ports.EventEnvelope{EventID: "evt-1", EventType: ports.TopicRoyaltyDistributed, Data: data}
	require.NoError(t, consumer.Handle(ctx, envelope))
	require.NoError(t, consumer.Handle(ctx, envelope))

	record, err := store.GetRecordByRoyalty(ctx, "roy-1")
	require.NoError(t, err)
	require.Equal(t, "20.00", record.FeeAmount.StringFixed(2))

	require.NoError(t, application.RoyaltyDistributedConsumer{}.Start(ctx))
}
