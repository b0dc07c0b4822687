package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

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

type DistributeFixedCommand struct {
	TrackID string
	// NewBatch allows another fixed-amount run on a track that already has one.
	NewBatch bool
	// Trigger marks invocations from the event consumer. They turn into a
	// no-op once the track has any royalty.
	Trigger bool
	// ActorID is the requesting user for manual runs; it must own the track.
	ActorID string
}

type DistributeFixedUseCase struct {
	Ledger             ports.LedgerStore
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	PlatformFeePercent decimal.Decimal
	Metrics            ports.Metrics
	Logger             *slog.Logger
}

// Execute distributes track.payout_amount across the track's splits inside a
// single transaction holding the track row lock.
func (u DistributeFixedUseCase) Execute(ctx context.Context, cmd DistributeFixedCommand) (DistributionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	if trackID == "" {
		return DistributionResult{}, domainerrors.ErrInvalidRequest
	}
	feePercent, err := resolveFeePercent(u.PlatformFeePercent)
	if err != nil {
		return DistributionResult{}, err
	}

	ctx, span := application.Tracer().Start(ctx, "royalty.distribute_fixed", trace.WithAttributes(
		attribute.String("track_id", trackID),
		attribute.Bool("trigger", cmd.Trigger),
	))
	defer span.End()

	now := resolveNow(u.Clock)
	result := DistributionResult{TrackID: trackID, Mode: entities.RoyaltyModeFixed, TotalEarning: decimal.Zero}
	err = u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		track, err := tx.LockTrack(ctx, trackID)
		if err != nil {
			return err
		}
		if err := track.AuthorizeOwner(cmd.ActorID); err != nil {
			return err
		}
		if !track.PayoutAmount.IsPositive() {
			return domainerrors.ErrInvalidAmount
		}

		if cmd.Trigger {
			exists, err := tx.HasRoyalty(ctx, trackID, "")
			if err != nil {
				return err
			}
			if exists {
				result.Message = "royalty already distributed"
				return nil
			}
		} else if !cmd.NewBatch {
			exists, err := tx.HasRoyalty(ctx, trackID, entities.RoyaltyModeFixed)
			if err != nil {
				return err
			}
			if exists {
				return domainerrors.ErrDuplicateDistribution
			}
		}

		splits, err := tx.ListSplits(ctx, trackID)
		if err != nil {
			return err
		}
		if err := services.ValidateComplete(trackID, splits); err != nil {
			return err
		}

		royaltyID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		royalty := entities.Royalty{
			RoyaltyID:        royaltyID,
			TrackID:          trackID,
			Mode:             entities.RoyaltyModeFixed,
			TotalEarning:     track.PayoutAmount,
			DistributionDate: now,
		}
		created, err := distributionRun{
			tx:         tx,
			ids:        u.IDGenerator,
			feePercent: feePercent,
			now:        now,
			logger:     logger,
		}.apply(ctx, royalty, splits)
		if err != nil {
			return err
		}

		result.RoyaltyID = royaltyID
		result.TotalEarning = royalty.TotalEarning
		result.PayoutsCount = created
		result.Message = fmt.Sprintf("Royalties distributed successfully. %d payouts created.", created)
		return nil
	})
	observeDistribution(u.Metrics, entities.RoyaltyModeFixed, err, result, resolveNow(u.Clock).Sub(now))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("fixed distribution failed",
			"event", "royalty_distribute_fixed_failed",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"trigger", cmd.Trigger,
			"error", err.Error(),
		)
		return DistributionResult{}, err
	}

	logger.Info("fixed distribution completed",
		"event", "royalty_distribute_fixed_completed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"royalty_id", result.RoyaltyID,
		"total_earning", result.TotalEarning.StringFixed(2),
		"payouts_count", result.PayoutsCount,
		"message", result.Message,
	)
	return result, nil
}
