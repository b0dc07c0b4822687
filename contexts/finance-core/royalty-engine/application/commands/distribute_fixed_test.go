package commands_test

import (
	"encoding/json"
	"testing"

	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/stretchr/testify/require"
)

func TestDistributeFixedDeductsPlatformFee(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", standardSplits)

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
	require.True(t, result.Distributed())
	require.Equal(t, 3, result.PayoutsCount)
	require.Equal(t, "1000.00", result.TotalEarning.StringFixed(2))

	require.Equal(t, "490.00", f.wallet("artist-a").Balance.StringFixed(2))
	require.Equal(t, "294.00", f.wallet("artist-b").Balance.StringFixed(2))
	require.Equal(t, "196.00", f.wallet("artist-c").Balance.StringFixed(2))

	for _, payout := range f.payouts(f.wallet("artist-a").WalletID) {
		require.Equal(t, entities.PayoutStatusPending, payout.Status)
		require.Equal(t, result.RoyaltyID, payout.RoyaltyID)
	}

	events := f.outboxOf(commands.EventRoyaltyDistributed)
	require.Len(t, events, 1)
	var payload commands.RoyaltyDistributedPayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, result.RoyaltyID, payload.RoyaltyID)
	require.Equal(t, "980.00", payload.NetTotal.StringFixed(2))
	require.Equal(t, "20.00", payload.FeeTotal.StringFixed(2))
	require.Equal(t, 3, payload.PayoutsCount)

	require.Equal(t, observation{kind: "distribution", mode: "fixed", outcome: "applied"}, f.metrics.last())
}

func TestDistributeFixedRejectsRepeatUnlessNewBatch(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", standardSplits)

	_, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)

	_, err = f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.ErrorIs(t, err, domainerrors.ErrDuplicateDistribution)
	require.Equal(t, "490.00", f.wallet("artist-a").Balance.StringFixed(2))

	_, err = f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID, NewBatch: true})
	require.NoError(t, err)
	require.Equal(t, "980.00", f.wallet("artist-a").Balance.StringFixed(2))
	require.Len(t, f.payouts(f.wallet("artist-a").WalletID), 2)
}

func TestDistributeFixedTriggerIsIdempotent(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", standardSplits)

	first, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID, Trigger: true})
	require.NoError(t, err)
	require.True(t, first.Distributed())

	second, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID, Trigger: true})
	require.NoError(t, err)
	require.False(t, second.Distributed())
	require.Equal(t, "490.00", f.wallet("artist-a").Balance.StringFixed(2))
	require.Equal(t, "noop", f.metrics.last().outcome)
}

func TestDistributeFixedIncompleteSplitsWritesNothing(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", map[string]string{"artist-a": "60.00"})

	_, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	var incomplete *domainerrors.IncompleteSplitError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, "60.00", incomplete.Sum.StringFixed(2))

	royalties, err := f.store.ListRoyalties(f.ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)
	_, err = f.store.GetWalletByUser(f.ctx, "artist-a")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
	require.Equal(t, "rejected", f.metrics.last().outcome)
}

func TestDistributeFixedUnknownTrack(t *testing.T) {
	f := newFixture(t)
	_, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: "missing"})
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
}

func TestDistributeFixedSkipsZeroPercentHolder(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("100.00", map[string]string{"artist-a": "100.00", "silent": "0.00"})

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, 1, result.PayoutsCount)
	_, err = f.store.GetWalletByUser(f.ctx, "silent")
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
}

func TestDistributeFixedThirds(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", map[string]string{
		"artist-a": "33.333",
		"artist-b": "33.333",
		"artist-c": "33.334",
	})

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, 3, result.PayoutsCount)
	require.Equal(t, "326.66", f.wallet("artist-a").Balance.StringFixed(2))
	require.Equal(t, "326.66", f.wallet("artist-b").Balance.StringFixed(2))
	require.Equal(t, "326.67", f.wallet("artist-c").Balance.StringFixed(2))

	events := f.outboxOf(commands.EventRoyaltyDistributed)
	require.Len(t, events, 1)
	var payload commands.RoyaltyDistributedPayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, "979.99", payload.NetTotal.StringFixed(2))
	require.Equal(t, "20.01", payload.FeeTotal.StringFixed(2))
}

func TestDistributeFixedCrashMidLoopRollsBack(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("1000.00", standardSplits)

	crashing := f.fixed
	crashing.IDGenerator = &failingIDs{next: f.store, remaining: 4}
	_, err := crashing.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.ErrorIs(t, err, errIDsExhausted)

	for user := range standardSplits {
		_, err := f.store.GetWalletByUser(f.ctx, user)
		require.ErrorIs(t, err, domainerrors.ErrWalletNotFound, user)
	}
	royalties, err := f.store.ListRoyalties(f.ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)
	require.Empty(t, f.outboxOf(commands.EventRoyaltyDistributed))

	result, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, 3, result.PayoutsCount)
	require.Equal(t, "490.00", f.wallet("artist-a").Balance.StringFixed(2))
	require.Len(t, f.payouts(f.wallet("artist-a").WalletID), 1)
}
