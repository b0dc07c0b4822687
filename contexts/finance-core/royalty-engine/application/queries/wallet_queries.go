package queries

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

type GetWalletUseCase struct {
	Wallets ports.WalletReader
	Logger  *slog.Logger
}

func (uc GetWalletUseCase) Execute(ctx context.Context, walletID string) (entities.Wallet, error) {
	return uc.Wallets.GetWallet(ctx, strings.TrimSpace(walletID))
}

type GetWalletByUserUseCase struct {
	Wallets ports.WalletReader
	Logger  *slog.Logger
}

func (uc GetWalletByUserUseCase) Execute(ctx context.Context, userID string) (entities.Wallet, error) {
	return uc.Wallets.GetWalletByUser(ctx, strings.TrimSpace(userID))
}

type ListPayoutsUseCase struct {
	Wallets ports.WalletReader
	Logger  *slog.Logger
}

func (uc ListPayoutsUseCase) Execute(ctx context.Context, walletID string) ([]entities.Payout, error) {
	walletID = strings.TrimSpace(walletID)
	if _, err := uc.Wallets.GetWallet(ctx, walletID); err != nil {
		return nil, err
	}
	return uc.Wallets.ListPayouts(ctx, walletID)
}

type WalletSummary struct {
	WalletID        string
	TotalPayouts    int
	TotalAmount     decimal.Decimal
	WalletBalance   decimal.Decimal
	PendingAmount   decimal.Decimal
	CompletedAmount decimal.Decimal
	ConfirmedAmount decimal.Decimal
	FailedAmount    decimal.Decimal
	// Balanced holds when the balance equals the Pending sum, which is what
	// every credit and withdrawal preserves.
	Balanced bool
}

type WalletSummaryUseCase struct {
	Wallets ports.WalletReader
	Logger  *slog.Logger
}

func (uc WalletSummaryUseCase) Execute(ctx context.Context, walletID string) (WalletSummary, error) {
	logger := application.ResolveLogger(uc.Logger)
	walletID = strings.TrimSpace(walletID)
	wallet, err := uc.Wallets.GetWallet(ctx, walletID)
	if err != nil {
		return WalletSummary{}, err
	}
	payouts, err := uc.Wallets.ListPayouts(ctx, walletID)
	if err != nil {
		return WalletSummary{}, err
	}

	summary := WalletSummary{
		WalletID:        wallet.WalletID,
		TotalPayouts:    len(payouts),
		TotalAmount:     decimal.Zero,
		WalletBalance:   wallet.Balance,
		PendingAmount:   decimal.Zero,
		CompletedAmount: decimal.Zero,
		ConfirmedAmount: decimal.Zero,
		FailedAmount:    decimal.Zero,
	}
	for _, payout := range payouts {
		summary.TotalAmount = summary.TotalAmount.Add(payout.Amount)
		switch payout.Status {
		case entities.PayoutStatusPending:
			summary.PendingAmount = summary.PendingAmount.Add(payout.Amount)
		case entities.PayoutStatusCompleted:
			summary.CompletedAmount = summary.CompletedAmount.Add(payout.Amount)
		case entities.PayoutStatusConfirmed:
			summary.ConfirmedAmount = summary.ConfirmedAmount.Add(payout.Amount)
		case entities.PayoutStatusFailed:
			summary.FailedAmount = summary.FailedAmount.Add(payout.Amount)
		}
	}
	summary.Balanced = summary.WalletBalance.Equal(summary.PendingAmount)
	if !summary.Balanced {
		logger.Warn("wallet balance differs from pending payouts",
			"event", "royalty_wallet_unbalanced",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"wallet_id", wallet.WalletID,
			"balance", summary.WalletBalance.StringFixed(2),
			"pending", summary.PendingAmount.StringFixed(2),
		)
	}
	return summary, nil
}

type ListPayoutStatusesUseCase struct {
	Wallets ports.WalletReader
	Logger  *slog.Logger
}

func (uc ListPayoutStatusesUseCase) Execute(ctx context.Context) ([]ports.PayoutStatusRecord, error) {
	return uc.Wallets.ListPayoutStatuses(ctx)
}
