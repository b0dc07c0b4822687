package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type WithdrawCommand struct {
	WalletID string
	Amount   decimal.Decimal
}

type WithdrawResult struct {
	WithdrawalID       string
	Message            string
	NewBalance         decimal.Decimal
	Transfer           ports.TransferResult
	Warning            string
	CompletedPayoutIDs []string
}

type WithdrawUseCase struct {
	Ledger      ports.LedgerStore
	Transfers   ports.TransferGateway
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

// Execute settles amount against the wallet's Pending payouts in this order:
// 1) lock wallet and check balance
// 2) plan FIFO consumption of Pending payouts, splitting at most one
// 3) persist payouts, debit wallet, append outbox, commit
// 4) call the transfer gateway outside the transaction.
// A transfer failure is returned as a warning; the ledger stays debited.
func (u WithdrawUseCase) Execute(ctx context.Context, cmd WithdrawCommand) (WithdrawResult, error) {
	logger := application.ResolveLogger(u.Logger)
	walletID := strings.TrimSpace(cmd.WalletID)
	if walletID == "" || !cmd.Amount.IsPositive() || !entities.IsCents(cmd.Amount) {
		return WithdrawResult{}, domainerrors.ErrInvalidRequest
	}

	ctx, span := application.Tracer().Start(ctx, "royalty.withdraw", trace.WithAttributes(
		attribute.String("wallet_id", walletID),
		attribute.String("amount", cmd.Amount.StringFixed(2)),
	))
	defer span.End()

	now := resolveNow(u.Clock)
	withdrawalID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return WithdrawResult{}, err
	}

	var wallet entities.Wallet
	var completedIDs []string
	err = u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		completedIDs = nil

		locked, err := tx.LockWallet(ctx, walletID)
		if err != nil {
			return err
		}
		if cmd.Amount.GreaterThan(locked.Balance) {
			return domainerrors.ErrInsufficientBalance
		}

		pending, err := tx.ListPendingPayoutsForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		plan, err := services.PlanSettlement(pending, cmd.Amount)
		if err != nil {
			return err
		}

		if err := tx.EnsurePayoutStatus(ctx, entities.PayoutStatusCompleted); err != nil {
			return err
		}
		for _, payout := range plan.Completed {
			if err := payout.TransitionTo(entities.PayoutStatusCompleted, now); err != nil {
				return err
			}
			payout.WithdrawalID = withdrawalID
			if err := tx.SavePayout(ctx, payout); err != nil {
				return err
			}
			completedIDs = append(completedIDs, payout.PayoutID)
		}
		if plan.Partial != nil {
			remaining := plan.Partial.Remaining
			remaining.UpdatedAt = now
			if err := tx.SavePayout(ctx, remaining); err != nil {
				return err
			}
			partialID, err := u.IDGenerator.NewID(ctx)
			if err != nil {
				return err
			}
			partial := entities.NewSettlementPayout(partialID, walletID, withdrawalID, plan.Partial.Consumed, now)
			if err := tx.CreatePayout(ctx, partial); err != nil {
				return err
			}
			completedIDs = append(completedIDs, partialID)
		}

		if err := locked.Debit(cmd.Amount, now); err != nil {
			return err
		}
		if err := tx.SaveWallet(ctx, locked); err != nil {
			return err
		}

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventWalletWithdrawn, "wallet_id", walletID, now, WalletWithdrawnPayload{
			WithdrawalID: withdrawalID,
			WalletID:     walletID,
			Amount:       cmd.Amount,
			NewBalance:   locked.Balance,
			PayoutIDs:    completedIDs,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
		wallet = locked
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		u.observe(outcomeOf(err, false), "", cmd.Amount, now)
		logger.Warn("withdrawal rejected",
			"event", "royalty_withdraw_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"wallet_id", walletID,
			"amount", cmd.Amount.StringFixed(2),
			"error", err.Error(),
		)
		return WithdrawResult{}, err
	}

	result := WithdrawResult{
		WithdrawalID:       withdrawalID,
		Message:            fmt.Sprintf("Withdrawn %s successfully", cmd.Amount.StringFixed(2)),
		NewBalance:         wallet.Balance,
		CompletedPayoutIDs: completedIDs,
	}
	result.Transfer, result.Warning = u.transfer(ctx, wallet, withdrawalID, cmd.Amount)
	u.observe("applied", string(result.Transfer.Status), cmd.Amount, now)

	logger.Info("withdrawal completed",
		"event", "royalty_withdraw_completed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"wallet_id", walletID,
		"withdrawal_id", withdrawalID,
		"amount", cmd.Amount.StringFixed(2),
		"new_balance", wallet.Balance.StringFixed(2),
		"completed_payouts", len(completedIDs),
		"transfer_status", result.Transfer.Status,
	)
	return result, nil
}

// transfer runs after commit. Failures never undo the debit.
func (u WithdrawUseCase) transfer(
	ctx context.Context,
	wallet entities.Wallet,
	withdrawalID string,
	amount decimal.Decimal,
) (ports.TransferResult, string) {
	logger := application.ResolveLogger(u.Logger)
	failed := ports.TransferResult{
		Status:        ports.TransferStatusFailed,
		WalletAddress: wallet.BlockchainAddress,
		Amount:        amount,
	}
	if u.Transfers == nil {
		return failed, "transfer gateway not configured"
	}

	transfer, err := u.Transfers.Transfer(ctx, wallet.BlockchainAddress, amount)
	if err != nil {
		logger.Error("withdrawal transfer failed",
			"event", "royalty_withdraw_transfer_failed",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"wallet_id", wallet.WalletID,
			"withdrawal_id", withdrawalID,
			"error", err.Error(),
		)
		return failed, fmt.Sprintf("%s: %s", domainerrors.ErrTransferFailed.Error(), err.Error())
	}
	if transfer.WalletAddress == "" {
		transfer.WalletAddress = wallet.BlockchainAddress
	}
	if transfer.Amount.IsZero() {
		transfer.Amount = amount
	}
	if transfer.Status == ports.TransferStatusFailed {
		return transfer, domainerrors.ErrTransferFailed.Error()
	}
	if strings.TrimSpace(transfer.TransactionID) == "" {
		return transfer, ""
	}

	err = u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		_, err := tx.StampWithdrawalTransfer(ctx, withdrawalID, transfer.TransactionID, resolveNow(u.Clock))
		return err
	})
	if err != nil {
		logger.Error("withdrawal transfer reference not recorded",
			"event", "royalty_withdraw_transfer_stamp_failed",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"withdrawal_id", withdrawalID,
			"transaction_id", transfer.TransactionID,
			"error", err.Error(),
		)
		return transfer, "transfer succeeded but transaction id was not recorded"
	}
	return transfer, ""
}

func (u WithdrawUseCase) observe(outcome string, transferStatus string, amount decimal.Decimal, started time.Time) {
	if u.Metrics == nil {
		return
	}
	u.Metrics.ObserveWithdrawal(outcome, transferStatus, amount, resolveNow(u.Clock).Sub(started))
}
