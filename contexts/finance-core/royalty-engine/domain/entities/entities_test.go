package entities

import (
	"testing"
	"time"

	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRoundMoneyHalfUp(t *testing.T) {
	require.Equal(t, "0.01", RoundMoney(decimal.RequireFromString("0.005")).StringFixed(2))
	require.Equal(t, "2.68", RoundMoney(decimal.RequireFromString("2.675")).StringFixed(2))
	require.Equal(t, "1.00", RoundMoney(decimal.RequireFromString("0.9999")).StringFixed(2))
}

func TestIsCents(t *testing.T) {
	require.True(t, IsCents(decimal.RequireFromString("12.30")))
	require.True(t, IsCents(decimal.NewFromInt(7)))
	require.False(t, IsCents(decimal.RequireFromString("0.001")))
}

func TestNewTrackValidation(t *testing.T) {
	_, err := NewTrack("t-1", "owner", "", 180, "pop", decimal.NewFromInt(10), decimal.Zero, testNow)
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = NewTrack("t-1", "owner", "Song", 180, "pop", decimal.NewFromInt(-1), decimal.Zero, testNow)
	require.ErrorIs(t, err, domainerrors.ErrInvalidAmount)

	_, err = NewTrack("t-1", "owner", "Song", 180, "pop", decimal.RequireFromString("10000000000.00"), decimal.Zero, testNow)
	require.ErrorIs(t, err, domainerrors.ErrAmountOutOfRange)

	track, err := NewTrack(" t-1 ", "owner", " Song ", 180, " Pop ", decimal.RequireFromString("10.005"), decimal.Zero, testNow)
	require.NoError(t, err)
	require.Equal(t, "t-1", track.TrackID)
	require.Equal(t, "Song", track.Title)
	require.Equal(t, "pop", track.Genre)
	require.Equal(t, "10.01", track.PayoutAmount.StringFixed(2))
}

func TestTrackWatermarkNeverRegresses(t *testing.T) {
	track := Track{ProcessedStreams: 1000}
	require.NoError(t, track.AdvanceWatermark(1500, testNow))
	require.Equal(t, int64(1500), track.ProcessedStreams)
	require.ErrorIs(t, track.AdvanceWatermark(1200, testNow), domainerrors.ErrWatermarkRegression)
	require.Equal(t, int64(1500), track.ProcessedStreams)
}

func TestTrackAuthorizeOwner(t *testing.T) {
	track, err := NewTrack("t-1", "owner-1", "Night Drive", 215, "pop", decimal.NewFromInt(10), decimal.Zero, testNow)
	require.NoError(t, err)

	require.NoError(t, track.AuthorizeOwner("owner-1"))
	require.NoError(t, track.AuthorizeOwner(""))
	require.ErrorIs(t, track.AuthorizeOwner("artist-b"), domainerrors.ErrNotTrackOwner)
}

func TestTrackApplyChanges(t *testing.T) {
	track, err := NewTrack("t-1", "owner-1", "Night Drive", 215, "pop", decimal.NewFromInt(10), decimal.Zero, testNow)
	require.NoError(t, err)

	title := " Night Drive (Remix) "
	genre := "Rock"
	payout := decimal.RequireFromString("12.345")
	later := testNow.Add(time.Hour)
	require.NoError(t, track.Apply(TrackChanges{Title: &title, Genre: &genre, PayoutAmount: &payout}, later))
	require.Equal(t, "Night Drive (Remix)", track.Title)
	require.Equal(t, "rock", track.Genre)
	require.Equal(t, "12.35", track.PayoutAmount.StringFixed(2))
	require.Equal(t, 215, track.DurationSeconds)
	require.Equal(t, later, track.UpdatedAt)

	blank := " "
	require.ErrorIs(t, track.Apply(TrackChanges{Title: &blank}, later), domainerrors.ErrInvalidRequest)
	negative := decimal.NewFromInt(-1)
	require.ErrorIs(t, track.Apply(TrackChanges{RatePerStream: &negative}, later), domainerrors.ErrInvalidAmount)
	require.Equal(t, "Night Drive (Remix)", track.Title)
}

func TestWalletCreditDebit(t *testing.T) {
	wallet := NewWallet("w-1", "user-1", testNow)
	require.NoError(t, wallet.Credit(decimal.RequireFromString("490.00"), testNow))
	require.ErrorIs(t, wallet.Debit(decimal.RequireFromString("490.01"), testNow), domainerrors.ErrInsufficientBalance)
	require.ErrorIs(t, wallet.Debit(decimal.Zero, testNow), domainerrors.ErrInvalidAmount)
	require.NoError(t, wallet.Debit(decimal.RequireFromString("90.00"), testNow))
	require.Equal(t, "400.00", wallet.Balance.StringFixed(2))

	require.ErrorIs(t, wallet.Credit(MaxLedgerAmount, testNow), domainerrors.ErrAmountOutOfRange)
}

func TestPayoutTransitions(t *testing.T) {
	payout := NewDistributionPayout("p-1", "w-1", "r-1", decimal.NewFromInt(10), testNow)
	require.Equal(t, PayoutStatusPending, payout.Status)

	require.ErrorIs(t, payout.TransitionTo(PayoutStatusConfirmed, testNow), domainerrors.ErrInvalidPayoutTransition)
	require.NoError(t, payout.TransitionTo(PayoutStatusCompleted, testNow))
	require.NoError(t, payout.TransitionTo(PayoutStatusConfirmed, testNow))
	require.ErrorIs(t, payout.TransitionTo(PayoutStatusPending, testNow), domainerrors.ErrInvalidPayoutTransition)

	require.True(t, PayoutStatusPending.CanTransitionTo(PayoutStatusFailed))
	require.False(t, PayoutStatusFailed.CanTransitionTo(PayoutStatusCompleted))
}

func TestSettlementPayoutBornCompleted(t *testing.T) {
	payout := NewSettlementPayout("p-2", "w-1", "wd-1", decimal.RequireFromString("110.00"), testNow)
	require.Equal(t, PayoutStatusCompleted, payout.Status)
	require.Equal(t, PayoutOriginSettlement, payout.Origin)
	require.Empty(t, payout.RoyaltyID)
}

func TestPayoutAdvisoryRange(t *testing.T) {
	require.True(t, Payout{Amount: decimal.RequireFromString("1.00")}.WithinAdvisoryRange())
	require.False(t, Payout{Amount: decimal.RequireFromString("0.99")}.WithinAdvisoryRange())
	require.False(t, Payout{Amount: decimal.RequireFromString("1000000.00")}.WithinAdvisoryRange())
}

func TestRoyaltyUserShares(t *testing.T) {
	royalty := Royalty{TotalEarning: decimal.RequireFromString("3.00")}
	shares := royalty.UserShares([]Split{
		{UserID: "a", Percentage: decimal.RequireFromString("50.00")},
		{UserID: "b", Percentage: decimal.RequireFromString("30.00")},
		{UserID: "c", Percentage: decimal.RequireFromString("20.00")},
	})
	require.Equal(t, "1.50", shares["a"].StringFixed(2))
	require.Equal(t, "0.90", shares["b"].StringFixed(2))
	require.Equal(t, "0.60", shares["c"].StringFixed(2))
}
