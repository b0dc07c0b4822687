package services

import (
	"sort"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
)

// PartialConsumption is the single payout a withdrawal cuts in two. Remaining
// holds the original payout with its amount already reduced.
type PartialConsumption struct {
	Remaining entities.Payout
	Consumed  decimal.Decimal
}

type SettlementPlan struct {
	TotalPending decimal.Decimal
	Completed    []entities.Payout
	Partial      *PartialConsumption
}

// OrderPending returns the Pending payouts oldest first, payout id breaking ties.
func OrderPending(payouts []entities.Payout) []entities.Payout {
	pending := make([]entities.Payout, 0, len(payouts))
	for _, payout := range payouts {
		if payout.Status == entities.PayoutStatusPending {
			pending = append(pending, payout)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].TxnDate.Equal(pending[j].TxnDate) {
			return pending[i].PayoutID < pending[j].PayoutID
		}
		return pending[i].TxnDate.Before(pending[j].TxnDate)
	})
	return pending
}

// PlanSettlement walks Pending payouts FIFO until amount is covered. Whole
// payouts are completed while they fit; at most one payout is split.
func PlanSettlement(payouts []entities.Payout, amount decimal.Decimal) (SettlementPlan, error) {
	if !amount.IsPositive() {
		return SettlementPlan{}, domainerrors.ErrInvalidAmount
	}

	ordered := OrderPending(payouts)
	plan := SettlementPlan{TotalPending: decimal.Zero}
	for _, payout := range ordered {
		plan.TotalPending = plan.TotalPending.Add(payout.Amount)
	}
	if amount.GreaterThan(plan.TotalPending) {
		return SettlementPlan{TotalPending: plan.TotalPending}, domainerrors.ErrExceedsPendingCapacity
	}

	remaining := amount
	for _, payout := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !payout.Amount.GreaterThan(remaining) {
			plan.Completed = append(plan.Completed, payout)
			remaining = remaining.Sub(payout.Amount)
			continue
		}
		payout.Amount = payout.Amount.Sub(remaining)
		plan.Partial = &PartialConsumption{Remaining: payout, Consumed: remaining}
		remaining = decimal.Zero
	}
	return plan, nil
}
