package entities

import (
	"time"

	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "Pending"
	PayoutStatusCompleted PayoutStatus = "Completed"
	PayoutStatusConfirmed PayoutStatus = "Confirmed"
	PayoutStatusFailed    PayoutStatus = "Failed"
)

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:   {PayoutStatusCompleted, PayoutStatusFailed},
	PayoutStatusCompleted: {PayoutStatusConfirmed},
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PayoutOrigin string

const (
	PayoutOriginDistribution PayoutOrigin = "distribution"
	PayoutOriginSettlement   PayoutOrigin = "settlement"
)

type Payout struct {
	PayoutID        string
	WalletID        string
	RoyaltyID       string
	WithdrawalID    string
	Amount          decimal.Decimal
	Status          PayoutStatus
	Origin          PayoutOrigin
	BlockchainTxnID string
	TxnDate         time.Time
	UpdatedAt       time.Time
}

func NewDistributionPayout(payoutID string, walletID string, royaltyID string, amount decimal.Decimal, now time.Time) Payout {
	return Payout{
		PayoutID:  payoutID,
		WalletID:  walletID,
		RoyaltyID: royaltyID,
		Amount:    amount,
		Status:    PayoutStatusPending,
		Origin:    PayoutOriginDistribution,
		TxnDate:   now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// NewSettlementPayout records the consumed part of a payout split by a
// withdrawal. It is born Completed.
func NewSettlementPayout(payoutID string, walletID string, withdrawalID string, amount decimal.Decimal, now time.Time) Payout {
	return Payout{
		PayoutID:     payoutID,
		WalletID:     walletID,
		WithdrawalID: withdrawalID,
		Amount:       amount,
		Status:       PayoutStatusCompleted,
		Origin:       PayoutOriginSettlement,
		TxnDate:      now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

func (p *Payout) TransitionTo(next PayoutStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(next) {
		return domainerrors.ErrInvalidPayoutTransition
	}
	p.Status = next
	p.UpdatedAt = now.UTC()
	return nil
}

// WithinAdvisoryRange reports whether the amount lies inside the range
// expected of distribution payouts.
func (p Payout) WithinAdvisoryRange() bool {
	return !p.Amount.LessThan(MinPayoutAmount) && !p.Amount.GreaterThan(MaxPayoutAmount)
}
