package commands

import (
	"context"
	"log/slog"
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

var defaultPlatformFeePercent = decimal.RequireFromString("2.00")

type DistributionResult struct {
	RoyaltyID    string
	TrackID      string
	Mode         entities.RoyaltyMode
	TotalEarning decimal.Decimal
	PayoutsCount int
	Message      string
}

// Distributed is false for the idempotent no-op results.
func (r DistributionResult) Distributed() bool {
	return r.RoyaltyID != ""
}

// distributionRun carries one distribution through its transaction: the
// royalty row first, then wallet credits and Pending payouts, then the
// royalty.distributed outbox event.
type distributionRun struct {
	tx         ports.LedgerTx
	ids        ports.IDGenerator
	feePercent decimal.Decimal
	now        time.Time
	logger     *slog.Logger
}

func (r distributionRun) apply(ctx context.Context, royalty entities.Royalty, splits []entities.Split) (int, error) {
	if royalty.TotalEarning.GreaterThan(entities.MaxLedgerAmount) {
		return 0, domainerrors.ErrAmountOutOfRange
	}
	if err := r.tx.CreateRoyalty(ctx, royalty); err != nil {
		return 0, err
	}
	if err := r.tx.EnsurePayoutStatus(ctx, entities.PayoutStatusPending); err != nil {
		return 0, err
	}

	breakdown := services.ComputeShares(royalty.TotalEarning, r.feePercent, splits)
	created := 0
	for _, share := range breakdown.Shares {
		if !share.Net.IsPositive() {
			continue
		}

		walletID, err := r.ids.NewID(ctx)
		if err != nil {
			return 0, err
		}
		wallet, err := r.tx.FindOrCreateWalletForUpdate(ctx, entities.NewWallet(walletID, share.UserID, r.now))
		if err != nil {
			return 0, err
		}
		if err := wallet.Credit(share.Net, r.now); err != nil {
			return 0, err
		}
		if err := r.tx.SaveWallet(ctx, wallet); err != nil {
			return 0, err
		}

		payoutID, err := r.ids.NewID(ctx)
		if err != nil {
			return 0, err
		}
		payout := entities.NewDistributionPayout(payoutID, wallet.WalletID, royalty.RoyaltyID, share.Net, r.now)
		if !payout.WithinAdvisoryRange() {
			r.logger.Warn("distribution payout outside advisory range",
				"event", "royalty_payout_outside_advisory_range",
				"module", "finance-core/royalty-engine",
				"layer", "application",
				"royalty_id", royalty.RoyaltyID,
				"user_id", share.UserID,
				"amount", share.Net.StringFixed(2),
			)
		}
		if err := r.tx.CreatePayout(ctx, payout); err != nil {
			return 0, err
		}
		created++
	}

	envelope, err := newEnvelope(ctx, r.ids, EventRoyaltyDistributed, "track_id", royalty.TrackID, r.now, RoyaltyDistributedPayload{
		RoyaltyID:          royalty.RoyaltyID,
		TrackID:            royalty.TrackID,
		Mode:               string(royalty.Mode),
		TotalEarning:       royalty.TotalEarning,
		NetTotal:           breakdown.NetTotal,
		FeeTotal:           breakdown.FeeTotal,
		PlatformFeePercent: r.feePercent,
		PayoutsCount:       created,
		DistributedAt:      r.now,
	})
	if err != nil {
		return 0, err
	}
	if err := r.tx.AppendOutbox(ctx, envelope); err != nil {
		return 0, err
	}
	return created, nil
}

func resolveFeePercent(configured decimal.Decimal) (decimal.Decimal, error) {
	if configured.IsZero() {
		return decimal.Zero, nil
	}
	if configured.IsNegative() || !configured.LessThan(decimal.NewFromInt(100)) {
		return decimal.Zero, domainerrors.ErrInvalidRequest
	}
	return configured, nil
}

// DefaultPlatformFeePercent is applied when configuration does not set one.
func DefaultPlatformFeePercent() decimal.Decimal {
	return defaultPlatformFeePercent
}

func observeDistribution(metrics ports.Metrics, mode entities.RoyaltyMode, err error, result DistributionResult, elapsed time.Duration) {
	if metrics == nil {
		return
	}
	metrics.ObserveDistribution(string(mode), outcomeOf(err, result.Distributed()), result.TotalEarning, result.PayoutsCount, elapsed)
}

func outcomeOf(err error, applied bool) string {
	switch {
	case err == nil && applied:
		return "applied"
	case err == nil:
		return "noop"
	case domainerrors.Category(err) == domainerrors.KindInternal:
		return "error"
	default:
		return "rejected"
	}
}
