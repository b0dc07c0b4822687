package commands_test

import (
	"testing"

	"royalties/contexts/finance-core/royalty-engine/application/commands"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (f *fixture) streamsFor(trackID string, entries ...commands.StreamEntry) {
	f.t.Helper()
	_, err := f.record.Execute(f.ctx, commands.RecordStreamsCommand{TrackID: trackID, Entries: entries})
	require.NoError(f.t, err)
}

func TestDistributeStreamsPaysOnlyTheDelta(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", standardSplits)
	f.streamsFor(trackID,
		commands.StreamEntry{Platform: "spotify", StreamCount: 700},
		commands.StreamEntry{Platform: "apple", StreamCount: 300},
		commands.StreamEntry{Platform: "bots", StreamCount: 5000, FraudFlag: true},
	)

	result, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.True(t, result.Distributed())
	require.Equal(t, "3.00", result.TotalEarning.StringFixed(2))
	require.Equal(t, "1.47", f.wallet("artist-a").Balance.StringFixed(2))
	require.Equal(t, "0.88", f.wallet("artist-b").Balance.StringFixed(2))
	require.Equal(t, "0.59", f.wallet("artist-c").Balance.StringFixed(2))

	track, err := f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), track.ProcessedStreams)

	again, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.False(t, again.Distributed())
	require.Equal(t, "no new streams", again.Message)

	f.streamsFor(trackID, commands.StreamEntry{Platform: "spotify", StreamCount: 500})
	delta, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, "1.50", delta.TotalEarning.StringFixed(2))

	royalties, err := f.store.ListRoyalties(f.ctx, trackID)
	require.NoError(t, err)
	require.Len(t, royalties, 2)
	track, err = f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Equal(t, int64(1500), track.ProcessedStreams)
}

func TestDistributeStreamsEarningRoundsToZeroKeepsWatermark(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", standardSplits)
	f.streamsFor(trackID, commands.StreamEntry{Platform: "spotify", StreamCount: 1})

	result, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.False(t, result.Distributed())
	require.Equal(t, "earning rounds to zero", result.Message)

	track, err := f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Zero(t, track.ProcessedStreams)
}

func TestDistributeStreamsValidatesSplitsOnlyWhenPaying(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", map[string]string{"artist-a": "40.00"})

	result, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, "no new streams", result.Message)

	f.streamsFor(trackID, commands.StreamEntry{Platform: "spotify", StreamCount: 1000})
	_, err = f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.ErrorIs(t, err, domainerrors.ErrIncompleteSplit)

	track, err := f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Zero(t, track.ProcessedStreams)
}

func TestDistributeStreamsRateOverride(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", map[string]string{"artist-a": "100.00"})
	f.streamsFor(trackID, commands.StreamEntry{Platform: "spotify", StreamCount: 1000})

	result, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{
		TrackID:       trackID,
		RatePerStream: decimal.RequireFromString("0.01"),
	})
	require.NoError(t, err)
	require.Equal(t, "10.00", result.TotalEarning.StringFixed(2))

	_, err = f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{
		TrackID:       trackID,
		RatePerStream: decimal.RequireFromString("-1"),
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidAmount)
}

func TestRecordStreamsValidation(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", nil)

	_, err := f.record.Execute(f.ctx, commands.RecordStreamsCommand{TrackID: trackID})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = f.record.Execute(f.ctx, commands.RecordStreamsCommand{
		TrackID: trackID,
		Entries: []commands.StreamEntry{{Platform: "spotify", StreamCount: -5}},
	})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = f.record.Execute(f.ctx, commands.RecordStreamsCommand{
		TrackID: "missing",
		Entries: []commands.StreamEntry{{Platform: "spotify", StreamCount: 5}},
	})
	require.ErrorIs(t, err, domainerrors.ErrTrackNotFound)
}

func TestDistributeStreamsCrashMidLoopRollsBack(t *testing.T) {
	f := newFixture(t)
	trackID := f.track("0", standardSplits)
	f.streamsFor(trackID,
		commands.StreamEntry{Platform: "spotify", StreamCount: 700},
		commands.StreamEntry{Platform: "apple", StreamCount: 300},
	)

	// The royalty, one full share and the next wallet get ids; the next payout does not.
	crashing := f.streams
	crashing.IDGenerator = &failingIDs{next: f.store, remaining: 4}
	_, err := crashing.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.ErrorIs(t, err, errIDsExhausted)

	for user := range standardSplits {
		_, err := f.store.GetWalletByUser(f.ctx, user)
		require.ErrorIs(t, err, domainerrors.ErrWalletNotFound, user)
	}
	track, err := f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Zero(t, track.ProcessedStreams)
	royalties, err := f.store.ListRoyalties(f.ctx, trackID)
	require.NoError(t, err)
	require.Empty(t, royalties)
	require.Empty(t, f.outboxOf(commands.EventRoyaltyDistributed))

	result, err := f.streams.Execute(f.ctx, commands.DistributeFromStreamsCommand{TrackID: trackID})
	require.NoError(t, err)
	require.Equal(t, "3.00", result.TotalEarning.StringFixed(2))
	require.Equal(t, 3, result.PayoutsCount)
	require.Equal(t, "1.47", f.wallet("artist-a").Balance.StringFixed(2))

	track, err = f.store.GetTrack(f.ctx, trackID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), track.ProcessedStreams)
}
