package commands_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRegisterTrackAppendsCreatedEvent(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("250.00", nil)

	events := f.outboxOf(commands.EventTrackCreated)
	require.Len(t, events, 1)
	require.Equal(t, trackID, events[0].PartitionKey)
	require.Equal(t, "royalty-engine", events[0].SourceService)
}

func TestAddSplitRejectsDuplicateHolder(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("250.00", map[string]string{"artist-a": "50.00"})

	_, err := f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
		TrackID:    trackID,
		UserID:     "artist-a",
		Percentage: decimal.RequireFromString("10.00"),
	})
	require.ErrorIs(t, err, domainerrors.ErrDuplicateSplit)

	_, err = f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
		TrackID:    trackID,
		UserID:     "artist-b",
		Percentage: decimal.RequireFromString("10.0000001"),
	})
	require.ErrorIs(t, err, domainerrors.ErrPercentagePrecision)

	_, err = f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
		TrackID:    trackID,
		UserID:     "artist-b",
		Percentage: decimal.RequireFromString("100.5"),
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPercentage)

	splits, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	require.Len(t, f.outboxOf(commands.EventSplitCreated), 1)
}

func TestAddSplitAcceptsFractionalPercentages(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", nil)

	for user, pct := range map[string]string{"artist-a": "33.333", "artist-b": "33.333", "artist-c": "33.334"} {
		split, err := f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
			TrackID:    trackID,
			ActorID:    "owner-1",
			UserID:     user,
			Percentage: decimal.RequireFromString(pct),
		})
		require.NoError(t, err)
		require.Equal(t, pct, split.Percentage.String())
	}

	splits, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	require.Len(t, splits, 3)
}

func TestSplitWritesRequireTrackOwner(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", map[string]string{"artist-a": "100.00"})
	splits, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	splitID := splits[0].SplitID

	_, err = f.addSplit.Execute(f.ctx, commands.AddSplitCommand{
		TrackID:    trackID,
		ActorID:    "intruder",
		UserID:     "intruder",
		Percentage: decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)

	_, err = f.setSplit.Execute(f.ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    splitID,
		ActorID:    "intruder",
		Percentage: decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)

	err = f.delSplit.Execute(f.ctx, commands.RemoveSplitCommand{TrackID: trackID, SplitID: splitID, ActorID: "intruder"})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)

	_, err = f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID, ActorID: "intruder"})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)
	_, err = f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID, ActorID: "intruder"})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)

	splits, err = f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	require.Equal(t, "100.00", splits[0].Percentage.StringFixed(2))
	royalties, err := f.store.ListRoyalties(f.ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID, ActorID: "owner-1"})
	require.NoError(t, err)
	require.True(t, result.Distributed())
}

func TestUpdateSplitChangesPercentage(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", map[string]string{"artist-a": "60.00", "artist-b": "30.00"})
	splits, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	var target string
	for _, split := range splits {
		if split.UserID == "artist-b" {
			target = split.SplitID
		}
	}

	updated, err := f.setSplit.Execute(f.ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    target,
		ActorID:    "owner-1",
		Percentage: decimal.RequireFromString("40"),
	})
	require.NoError(t, err)
	require.Equal(t, "artist-b", updated.UserID)
	require.Equal(t, "40.00", updated.Percentage.StringFixed(2))

	events := f.outboxOf(commands.EventSplitUpdated)
	require.Len(t, events, 1)
	var payload commands.SplitUpdatedPayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, "30.00", payload.PreviousPercentage.StringFixed(2))
	require.Equal(t, "40.00", payload.Percentage.StringFixed(2))

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, 2, result.PayoutsCount)
	require.Equal(t, "392.00", f.wallet("artist-b").Balance.StringFixed(2))

	_, err = f.setSplit.Execute(f.ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    "missing",
		ActorID:    "owner-1",
		Percentage: decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, domainerrors.ErrSplitNotFound)

	_, err = f.setSplit.Execute(f.ctx, commands.UpdateSplitCommand{
		TrackID:    trackID,
		SplitID:    target,
		ActorID:    "owner-1",
		Percentage: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPercentage)
}

func TestRemoveSplit(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", standardSplits)
	splits, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	removed := splits[0]

	err = f.delSplit.Execute(f.ctx, commands.RemoveSplitCommand{TrackID: trackID, SplitID: removed.SplitID, ActorID: "owner-1"})
	require.NoError(t, err)

	remaining, err := f.store.ListSplits(f.ctx, trackID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, split := range remaining {
		require.NotEqual(t, removed.SplitID, split.SplitID)
	}

	events := f.outboxOf(commands.EventSplitRemoved)
	require.Len(t, events, 1)
	var payload commands.SplitRemovedPayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, removed.UserID, payload.UserID)

	_, err = f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	var incomplete *domainerrors.IncompleteSplitError
	require.ErrorAs(t, err, &incomplete)

	err = f.delSplit.Execute(f.ctx, commands.RemoveSplitCommand{TrackID: trackID, SplitID: removed.SplitID, ActorID: "owner-1"})
	require.ErrorIs(t, err, domainerrors.ErrSplitNotFound)
}

func TestUpdateTrackAppliesChanges(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("250.00", nil)
	f.clock.Advance(time.Hour)

	title := "Night Drive (Remaster)"
	payout := decimal.RequireFromString("300.005")
	updated, err := f.update.Execute(f.ctx, commands.UpdateTrackCommand{
		TrackID: trackID,
		ActorID: "owner-1",
		Changes: entities.TrackChanges{Title: &title, PayoutAmount: &payout},
	})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, "300.01", updated.PayoutAmount.StringFixed(2))
	require.True(t, f.clock.Now().Equal(updated.UpdatedAt))

	stored, err := f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Equal(t, title, stored.Title)
	require.Equal(t, "pop", stored.Genre)
	require.Equal(t, "owner-1", stored.OwnerID)
	require.Len(t, f.outboxOf(commands.EventTrackUpdated), 1)

	blank := "  "
	_, err = f.update.Execute(f.ctx, commands.UpdateTrackCommand{
		TrackID: trackID,
		ActorID: "owner-1",
		Changes: entities.TrackChanges{Title: &blank},
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = f.update.Execute(f.ctx, commands.UpdateTrackCommand{
		TrackID: trackID,
		ActorID: "intruder",
		Changes: entities.TrackChanges{Title: &title},
	})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)
	require.Len(t, f.outboxOf(commands.EventTrackUpdated), 1)
}

func TestDeleteTrack(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("250.00", map[string]string{"artist-a": "100.00"})

	err := f.remove.Execute(f.ctx, commands.DeleteTrackCommand{TrackID: trackID, ActorID: "intruder"})
	require.ErrorIs(t, err, domainerrors.ErrNotTrackOwner)

	err = f.remove.Execute(f.ctx, commands.DeleteTrackCommand{TrackID: trackID, ActorID: "owner-1"})
	require.NoError(t, err)
	_, err = f.store.GetTrack(f.ctx, trackID)
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
	require.Len(t, f.outboxOf(commands.EventTrackDeleted), 1)

	err = f.remove.Execute(f.ctx, commands.DeleteTrackCommand{TrackID: trackID, ActorID: "owner-1"})
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
}

func TestDeleteTrackWithRoyaltiesRejected(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("250.00", map[string]string{"artist-a": "100.00"})
	_, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)

	err = f.remove.Execute(f.ctx, commands.DeleteTrackCommand{TrackID: trackID, ActorID: "owner-1"})
	require.ErrorIs(t, err, domainerrors.ErrTrackHasRoyalties)

	_, err = f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, f.outboxOf(commands.EventTrackDeleted))
}

func TestLinkWalletAddressCreatesOrUpdatesWallet(t *testing.T) {
	f := newFixture(t)

	created, err := f.link.Execute(f.ctx, commands.LinkWalletAddressCommand{UserID: "artist-a", Address: "0xabc"})
	require.NoError(t, err)
	require.Equal(t, "0xabc", created.BlockchainAddress)
	require.True(t, created.Balance.IsZero())

	updated, err := f.link.Execute(f.ctx, commands.LinkWalletAddressCommand{UserID: "artist-a", Address: "0xdef"})
	require.NoError(t, err)
	require.Equal(t, created.WalletID, updated.WalletID)
	require.Equal(t, "0xdef", f.wallet("artist-a").BlockchainAddress)

	_, err = f.link.Execute(f.ctx, commands.LinkWalletAddressCommand{UserID: "artist-a", Address: strings.Repeat("a", 256)})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}
