package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

type ConfirmPayoutCommand struct {
	PayoutID      string
	TransactionID string
}

type ConfirmPayoutUseCase struct {
	Ledger ports.LedgerStore
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute moves a Completed payout to Confirmed. A transaction id is required
// unless the withdrawal transfer already stamped one.
func (u ConfirmPayoutUseCase) Execute(ctx context.Context, cmd ConfirmPayoutCommand) (entities.Payout, error) {
	logger := application.ResolveLogger(u.Logger)
	payoutID := strings.TrimSpace(cmd.PayoutID)
	txnID := strings.TrimSpace(cmd.TransactionID)
	if payoutID == "" {
		return entities.Payout{}, domainerrors.ErrInvalidRequest
	}

	now := resolveNow(u.Clock)
	var payout entities.Payout
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		locked, err := tx.LockPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if txnID != "" {
			locked.BlockchainTxnID = txnID
		}
		if locked.BlockchainTxnID == "" {
			return domainerrors.ErrInvalidRequest
		}
		if err := locked.TransitionTo(entities.PayoutStatusConfirmed, now); err != nil {
			return err
		}
		if err := tx.EnsurePayoutStatus(ctx, entities.PayoutStatusConfirmed); err != nil {
			return err
		}
		if err := tx.SavePayout(ctx, locked); err != nil {
			return err
		}
		payout = locked
		return nil
	})
	if err != nil {
		logger.Warn("payout confirmation rejected",
			"event", "royalty_payout_confirm_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"payout_id", payoutID,
			"error", err.Error(),
		)
		return entities.Payout{}, err
	}

	logger.Info("payout confirmed",
		"event", "royalty_payout_confirmed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"payout_id", payout.PayoutID,
		"wallet_id", payout.WalletID,
		"transaction_id", payout.BlockchainTxnID,
	)
	return payout, nil
}
