package queries_test

import (
	"context"
	"testing"
	"time"

	"royalties/contexts/finance-core/royalty-engine/adapters/memory"
	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/application/queries"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store *memory.Store
	clock *clockwork.FakeClock
}

func newHarness() harness {
	return harness{
		store: memory.NewStore(),
		clock: clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
}

func (h harness) seedTrack(t *testing.T, percentages ...string) entities.Track {
	t.Helper()
	ctx := context.Background()
	track, err := commands.RegisterTrackUseCase{Ledger: h.store, Clock: h.clock, IDGenerator: h.store}.Execute(ctx, commands.RegisterTrackCommand{
		OwnerID:         "owner-1",
		Title:           "Glass Harbor",
		DurationSeconds: 240,
		Genre:           "rock",
		PayoutAmount:    decimal.RequireFromString("1000.00"),
	})
	require.NoError(t, err)
	users := []string{"artist-a", "artist-b", "artist-c"}
	for i, pct := range percentages {
		_, err := commands.AddSplitUseCase{Ledger: h.store, Clock: h.clock, IDGenerator: h.store}.Execute(ctx, commands.AddSplitCommand{
			TrackID:    track.TrackID,
			UserID:     users[i],
			Percentage: decimal.RequireFromString(pct),
		})
		require.NoError(t, err)
	}
	return track
}

func (h harness) distribute(t *testing.T, trackID string) {
	t.Helper()
	_, err := commands.DistributeFixedUseCase{
		Ledger:             h.store,
		Clock:              h.clock,
		IDGenerator:        h.store,
		PlatformFeePercent: decimal.RequireFromString("2.00"),
	}.Execute(context.Background(), commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
}

func (h harness) registerTrack(t *testing.T, ownerID, title, genre string) entities.Track {
	t.Helper()
	track, err := commands.RegisterTrackUseCase{Ledger: h.store, Clock: h.clock, IDGenerator: h.store}.Execute(context.Background(), commands.RegisterTrackCommand{
		OwnerID:         ownerID,
		Title:           title,
		DurationSeconds: 200,
		Genre:           genre,
		PayoutAmount:    decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	return track
}

func TestListTracksPagesNewestFirst(t *testing.T) {
	h := newHarness()
	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, h.registerTrack(t, "owner-1", "Track", "rock").TrackID)
	}
	h.registerTrack(t, "owner-2", "Elsewhere", "rock")

	uc := queries.ListTracksUseCase{Tracks: h.store}
	first, err := uc.Execute(context.Background(), queries.ListTracksQuery{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Equal(t, 1, first.Page)
	require.Equal(t, 10, first.PageSize)
	require.Equal(t, int64(12), first.Total)
	require.Len(t, first.Items, 10)
	require.True(t, first.HasNext())
	require.Equal(t, ids[11], first.Items[0].TrackID)

	second, err := uc.Execute(context.Background(), queries.ListTracksQuery{OwnerID: "owner-1", Page: 2})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.False(t, second.HasNext())
	require.Equal(t, ids[0], second.Items[1].TrackID)

	beyond, err := uc.Execute(context.Background(), queries.ListTracksQuery{OwnerID: "owner-1", Page: 5})
	require.NoError(t, err)
	require.Empty(t, beyond.Items)
	require.Equal(t, int64(12), beyond.Total)
}

func TestListTracksFiltersAndClamps(t *testing.T) {
	h := newHarness()
	h.registerTrack(t, "owner-1", "Glass Harbor", "Rock")
	h.registerTrack(t, "owner-1", "Low Tide", "jazz")
	h.registerTrack(t, "owner-2", "Harbor Lights", "jazz")

	uc := queries.ListTracksUseCase{Tracks: h.store}
	jazz, err := uc.Execute(context.Background(), queries.ListTracksQuery{OwnerID: "owner-1", Genre: "JAZZ"})
	require.NoError(t, err)
	require.Len(t, jazz.Items, 1)
	require.Equal(t, "Low Tide", jazz.Items[0].Title)

	search, err := uc.Execute(context.Background(), queries.ListTracksQuery{Search: "harbor"})
	require.NoError(t, err)
	require.Equal(t, int64(2), search.Total)

	clamped, err := uc.Execute(context.Background(), queries.ListTracksQuery{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 100, clamped.PageSize)
	require.Len(t, clamped.Items, 3)

	_, err = uc.Execute(context.Background(), queries.ListTracksQuery{Page: -1})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
	_, err = uc.Execute(context.Background(), queries.ListTracksQuery{PageSize: -1})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}

func TestGetTrackReportsSplitProgress(t *testing.T) {
	h := newHarness()
	track := h.seedTrack(t, "50.00", "30.00")

	view, err := queries.GetTrackUseCase{Tracks: h.store}.Execute(context.Background(), track.TrackID)
	require.NoError(t, err)
	require.Len(t, view.Splits, 2)
	require.Equal(t, "80.00", view.SplitSum.StringFixed(2))
	require.False(t, view.SplitsComplete)
	require.Equal(t, "2.40", view.EstimatedEarning.StringFixed(2))
}

func TestSplitStatusIncompleteIsNotAnError(t *testing.T) {
	h := newHarness()
	track := h.seedTrack(t, "50.00", "30.00")

	status, err := queries.SplitStatusUseCase{Tracks: h.store}.Execute(context.Background(), track.TrackID)
	require.NoError(t, err)
	require.False(t, status.Complete)
	require.Equal(t, "80.00", status.Sum.StringFixed(2))

	complete := h.seedTrack(t, "50.00", "30.00", "20.00")
	status, err = queries.SplitStatusUseCase{Tracks: h.store}.Execute(context.Background(), complete.TrackID)
	require.NoError(t, err)
	require.True(t, status.Complete)
}

func TestTrackQueriesUnknownTrack(t *testing.T) {
	h := newHarness()
	_, err := queries.GetTrackUseCase{Tracks: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
	_, err = queries.SplitStatusUseCase{Tracks: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
	_, err = queries.ListRoyaltiesUseCase{Tracks: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
}

func TestListRoyaltiesIncludesGrossUserShares(t *testing.T) {
	h := newHarness()
	track := h.seedTrack(t, "50.00", "30.00", "20.00")
	h.distribute(t, track.TrackID)

	views, err := queries.ListRoyaltiesUseCase{Tracks: h.store}.Execute(context.Background(), track.TrackID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "1000.00", views[0].Royalty.TotalEarning.StringFixed(2))
	require.Equal(t, "500.00", views[0].UserShares["artist-a"].StringFixed(2))
	require.Equal(t, "300.00", views[0].UserShares["artist-b"].StringFixed(2))
	require.Equal(t, "200.00", views[0].UserShares["artist-c"].StringFixed(2))
}

func TestWalletSummaryTracksStatuses(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	track := h.seedTrack(t, "50.00", "30.00", "20.00")
	h.distribute(t, track.TrackID)

	wallet, err := queries.GetWalletByUserUseCase{Wallets: h.store}.Execute(ctx, "artist-a")
	require.NoError(t, err)

	summary, err := queries.WalletSummaryUseCase{Wallets: h.store}.Execute(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.Equal(t, 1, summary.TotalPayouts)
	require.Equal(t, "490.00", summary.WalletBalance.StringFixed(2))
	require.Equal(t, "490.00", summary.PendingAmount.StringFixed(2))
	require.True(t, summary.Balanced)

	_, err = commands.WithdrawUseCase{Ledger: h.store, Clock: h.clock, IDGenerator: h.store}.Execute(ctx, commands.WithdrawCommand{
		WalletID: wallet.WalletID,
		Amount:   decimal.RequireFromString("90.00"),
	})
	require.NoError(t, err)

	summary, err = queries.WalletSummaryUseCase{Wallets: h.store}.Execute(ctx, wallet.WalletID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalPayouts)
	require.Equal(t, "490.00", summary.TotalAmount.StringFixed(2))
	require.Equal(t, "400.00", summary.PendingAmount.StringFixed(2))
	require.Equal(t, "90.00", summary.CompletedAmount.StringFixed(2))
	require.True(t, summary.Balanced)

	statuses, err := queries.ListPayoutStatusesUseCase{Wallets: h.store}.Execute(ctx)
	require.NoError(t, err)
	names := make([]entities.PayoutStatus, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, status.StatusName)
	}
	require.Contains(t, names, entities.PayoutStatusPending)
	require.Contains(t, names, entities.PayoutStatusCompleted)
}

func TestWalletQueriesUnknownWallet(t *testing.T) {
	h := newHarness()
	_, err := queries.GetWalletUseCase{Wallets: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	_, err = queries.ListPayoutsUseCase{Wallets: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	_, err = queries.WalletSummaryUseCase{Wallets: h.store}.Execute(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
}
