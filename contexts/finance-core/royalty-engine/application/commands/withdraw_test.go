package commands_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"royalties/contexts/finance-core/royalty-engine/application/commands"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// seedSoloPayouts gives artist-a three Pending payouts of 490, 294 and 196,
// created in that order.
func (f *fixture) seedSoloPayouts() entities.Wallet {
	f.t.Helper()
	for _, amount := range []string{"500.00", "300.00", "200.00"} {
		trackID := f.track(amount, map[string]string{"artist-a": "100.00"})
		_, err := f.fixed.Execute(f.ctx, commands.DistributeFixedCommand{TrackID: trackID})
		require.NoError(f.t, err)
		f.clock.Advance(time.Minute)
	}
	return f.wallet("artist-a")
}

func TestWithdrawSplitsOnePayoutFIFO(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()
	require.Equal(t, "980.00", wallet.Balance.StringFixed(2))

	before := f.payouts(wallet.WalletID)
	var first, second, third string
	for id, payout := range before {
		switch payout.Amount.StringFixed(2) {
		case "490.00":
			first = id
		case "294.00":
			second = id
		case "196.00":
			third = id
		}
	}

	result, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
		WalletID: wallet.WalletID,
		Amount:   decimal.RequireFromString("600.00"),
	})
	require.NoError(t, err)
	require.Equal(t, "380.00", result.NewBalance.StringFixed(2))
	require.Equal(t, "Withdrawn 600.00 successfully", result.Message)
	require.Empty(t, result.Warning)
	require.Len(t, result.CompletedPayoutIDs, 2)

	after := f.payouts(wallet.WalletID)
	require.Len(t, after, 4)
	require.Equal(t, entities.PayoutStatusCompleted, after[first].Status)
	require.Equal(t, entities.PayoutStatusPending, after[second].Status)
	require.Equal(t, "184.00", after[second].Amount.StringFixed(2))
	require.Equal(t, entities.PayoutStatusPending, after[third].Status)

	var settlement entities.Payout
	for id, payout := range after {
		if id != first && id != second && id != third {
			settlement = payout
		}
	}
	require.Equal(t, entities.PayoutStatusCompleted, settlement.Status)
	require.Equal(t, entities.PayoutOriginSettlement, settlement.Origin)
	require.Equal(t, "110.00", settlement.Amount.StringFixed(2))
	require.Equal(t, result.WithdrawalID, settlement.WithdrawalID)
	require.Equal(t, "0xfeed", settlement.BlockchainTxnID)

	pendingTotal := decimal.Zero
	for _, payout := range after {
		if payout.Status == entities.PayoutStatusPending {
			pendingTotal = pendingTotal.Add(payout.Amount)
		}
	}
	require.Equal(t, f.wallet("artist-a").Balance.StringFixed(2), pendingTotal.StringFixed(2))

	events := f.outboxOf(commands.EventWalletWithdrawn)
	require.Len(t, events, 1)
	var payload commands.WalletWithdrawnPayload
	require.NoError(t, json.Unmarshal(events[0].Data, &payload))
	require.Equal(t, "600.00", payload.Amount.StringFixed(2))
	require.Equal(t, "380.00", payload.NewBalance.StringFixed(2))
}

func TestWithdrawRejectsAmountAboveBalance(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()

	_, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
		WalletID: wallet.WalletID,
		Amount:   decimal.RequireFromString("980.01"),
	})
	require.ErrorIs(t, err, domainerrors.ErrInsufficientBalance)
	require.Equal(t, "980.00", f.wallet("artist-a").Balance.StringFixed(2))
	require.Zero(t, f.gateway.callCount())
}

func TestWithdrawRejectsAmountAbovePendingCapacity(t *testing.T) {
	f := newFixture(t)
	walletID := "wallet-capacity"
	err := f.store.WithinTx(f.ctx, func(tx ports.LedgerTx) error {
		wallet, err := tx.FindOrCreateWalletForUpdate(f.ctx, entities.NewWallet(walletID, "artist-z", f.clock.Now()))
		if err != nil {
			return err
		}
		if err := wallet.Credit(decimal.RequireFromString("1000.00"), f.clock.Now()); err != nil {
			return err
		}
		if err := tx.SaveWallet(f.ctx, wallet); err != nil {
			return err
		}
		if err := tx.EnsurePayoutStatus(f.ctx, entities.PayoutStatusPending); err != nil {
			return err
		}
		return tx.CreatePayout(f.ctx, entities.NewDistributionPayout("p-1", walletID, "r-1", decimal.RequireFromString("600.00"), f.clock.Now()))
	})
	require.NoError(t, err)

	_, err = f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
		WalletID: walletID,
		Amount:   decimal.RequireFromString("700.00"),
	})
	require.ErrorIs(t, err, domainerrors.ErrExceedsPendingCapacity)

	wallet, err := f.store.GetWallet(f.ctx, walletID)
	require.NoError(t, err)
	require.Equal(t, "1000.00", wallet.Balance.StringFixed(2))
	require.Equal(t, "rejected", f.metrics.last().outcome)
}

func TestWithdrawValidatesAmount(t *testing.T) {
	f := newFixture(t)
	for _, amount := range []string{"0", "-5.00", "1.005"} {
		_, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{WalletID: "w", Amount: decimal.RequireFromString(amount)})
		require.ErrorIs(t, err, domainerrors.ErrInvalidRequest, amount)
		require.NotErrorIs(t, err, domainerrors.ErrInvalidAmount, amount)
	}

	_, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{WalletID: "", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = f.withdraw.Execute(f.ctx, commands.WithdrawCommand{WalletID: "missing", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
				WalletID: wallet.WalletID,
				Amount:   decimal.RequireFromString("100.00"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainerrors.ErrInsufficientBalance):
			insufficient++
		default:
			t.Fatalf("unexpected withdraw error: %v", err)
		}
	}
	require.Equal(t, 9, succeeded)
	require.Equal(t, 1, insufficient)
	require.Equal(t, 9, f.gateway.callCount())

	balance := f.wallet("artist-a").Balance
	require.Equal(t, "80.00", balance.StringFixed(2))
	pendingTotal := decimal.Zero
	for _, payout := range f.payouts(wallet.WalletID) {
		if payout.Status == entities.PayoutStatusPending {
			pendingTotal = pendingTotal.Add(payout.Amount)
		}
	}
	require.Equal(t, balance.StringFixed(2), pendingTotal.StringFixed(2))
	require.Len(t, f.outboxOf(commands.EventWalletWithdrawn), 9)
}

func TestWithdrawTransferFailureKeepsDebit(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()
	f.gateway.err = errGatewayDown

	result, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
		WalletID: wallet.WalletID,
		Amount:   decimal.RequireFromString("490.00"),
	})
	require.NoError(t, err)
	require.Contains(t, result.Warning, "rpc unavailable")
	require.Equal(t, ports.TransferStatusFailed, result.Transfer.Status)
	require.Equal(t, "490.00", f.wallet("artist-a").Balance.StringFixed(2))

	for _, payout := range f.payouts(wallet.WalletID) {
		if payout.Status == entities.PayoutStatusCompleted {
			require.Empty(t, payout.BlockchainTxnID)
		}
	}
}

func TestConfirmPayoutAfterTransfer(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()

	result, err := f.withdraw.Execute(f.ctx, commands.WithdrawCommand{
		WalletID: wallet.WalletID,
		Amount:   decimal.RequireFromString("490.00"),
	})
	require.NoError(t, err)
	require.Len(t, result.CompletedPayoutIDs, 1)
	completedID := result.CompletedPayoutIDs[0]

	confirmed, err := f.confirm.Execute(f.ctx, commands.ConfirmPayoutCommand{PayoutID: completedID})
	require.NoError(t, err)
	require.Equal(t, entities.PayoutStatusConfirmed, confirmed.Status)
	require.Equal(t, "0xfeed", confirmed.BlockchainTxnID)

	_, err = f.confirm.Execute(f.ctx, commands.ConfirmPayoutCommand{PayoutID: completedID, TransactionID: "0xbeef"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPayoutTransition)
}

func TestConfirmPendingPayoutRejected(t *testing.T) {
	f := newFixture(t)
	wallet := f.seedSoloPayouts()

	var pendingID string
	for id := range f.payouts(wallet.WalletID) {
		pendingID = id
		break
	}
	_, err := f.confirm.Execute(f.ctx, commands.ConfirmPayoutCommand{PayoutID: pendingID, TransactionID: "0xbeef"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidPayoutTransition)

	_, err = f.confirm.Execute(f.ctx, commands.ConfirmPayoutCommand{PayoutID: pendingID})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = f.confirm.Execute(f.ctx, commands.ConfirmPayoutCommand{PayoutID: "missing", TransactionID: "0x1"})
	require.ErrorIs(t, err, domainerrors.ErrPayoutNotFound)
}
