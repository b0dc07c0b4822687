package entities

import (
	"time"

	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	WalletID          string
	UserID            string
	Balance           decimal.Decimal
	BlockchainAddress string
	LastUpdated       time.Time
	CreatedAt         time.Time
}

func NewWallet(walletID string, userID string, now time.Time) Wallet {
	return Wallet{
		WalletID:    walletID,
		UserID:      userID,
		Balance:     decimal.Zero,
		LastUpdated: now.UTC(),
		CreatedAt:   now.UTC(),
	}
}

func (w *Wallet) Credit(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return domainerrors.ErrInvalidAmount
	}
	next := w.Balance.Add(amount)
	if next.GreaterThan(MaxLedgerAmount) {
		return domainerrors.ErrAmountOutOfRange
	}
	w.Balance = next
	w.LastUpdated = now.UTC()
	return nil
}

func (w *Wallet) Debit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return domainerrors.ErrInvalidAmount
	}
	if amount.GreaterThan(w.Balance) {
		return domainerrors.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.LastUpdated = now.UTC()
	return nil
}
