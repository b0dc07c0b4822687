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

const (
	messageNoNewStreams = "no new streams"
	messageRoundsToZero = "earning rounds to zero"
)

type DistributeFromStreamsCommand struct {
	TrackID string
	// RatePerStream overrides the track and configured rates when positive.
	RatePerStream decimal.Decimal
	// ActorID is the requesting user for manual runs; it must own the track.
	ActorID string
}

type DistributeFromStreamsUseCase struct {
	Ledger               ports.LedgerStore
	Clock                ports.Clock
	IDGenerator          ports.IDGenerator
	PlatformFeePercent   decimal.Decimal
	DefaultRatePerStream decimal.Decimal
	Metrics              ports.Metrics
	Logger               *slog.Logger
}

// Execute pays for streams recorded since the track watermark. The watermark
// moves in the same transaction, after every credit, so a failed run can be
// retried and pays exactly the same delta.
func (u DistributeFromStreamsUseCase) Execute(ctx context.Context, cmd DistributeFromStreamsCommand) (DistributionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	if trackID == "" {
		return DistributionResult{}, domainerrors.ErrInvalidRequest
	}
	if cmd.RatePerStream.IsNegative() {
		return DistributionResult{}, domainerrors.ErrInvalidAmount
	}
	feePercent, err := resolveFeePercent(u.PlatformFeePercent)
	if err != nil {
		return DistributionResult{}, err
	}

	ctx, span := application.Tracer().Start(ctx, "royalty.distribute_streams", trace.WithAttributes(
		attribute.String("track_id", trackID),
	))
	defer span.End()

	now := resolveNow(u.Clock)
	result := DistributionResult{TrackID: trackID, Mode: entities.RoyaltyModeStreams, TotalEarning: decimal.Zero}
	var delta int64
	err = u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		track, err := tx.LockTrack(ctx, trackID)
		if err != nil {
			return err
		}
		if err := track.AuthorizeOwner(cmd.ActorID); err != nil {
			return err
		}
		rate := u.resolveRate(cmd.RatePerStream, track)
		if !rate.IsPositive() {
			return domainerrors.ErrInvalidAmount
		}

		totalStreams, err := tx.SumBillableStreams(ctx, trackID)
		if err != nil {
			return err
		}
		delta = totalStreams - track.ProcessedStreams
		if delta <= 0 {
			result.Message = messageNoNewStreams
			return nil
		}
		earning := entities.RoundMoney(decimal.NewFromInt(delta).Mul(rate))
		if !earning.IsPositive() {
			result.Message = messageRoundsToZero
			return nil
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
			Mode:             entities.RoyaltyModeStreams,
			TotalEarning:     earning,
			DistributionDate: now,
			StreamsFrom:      track.ProcessedStreams,
			StreamsTo:        totalStreams,
			RatePerStream:    rate,
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

		if err := track.AdvanceWatermark(totalStreams, now); err != nil {
			return err
		}
		if err := tx.UpdateTrackWatermark(ctx, trackID, track.ProcessedStreams, now); err != nil {
			return err
		}

		result.RoyaltyID = royaltyID
		result.TotalEarning = earning
		result.PayoutsCount = created
		result.Message = fmt.Sprintf("Royalties distributed for %d new streams. %d payouts created.", delta, created)
		return nil
	})
	observeDistribution(u.Metrics, entities.RoyaltyModeStreams, err, result, resolveNow(u.Clock).Sub(now))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("stream distribution failed",
			"event", "royalty_distribute_streams_failed",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"error", err.Error(),
		)
		return DistributionResult{}, err
	}

	logger.Info("stream distribution completed",
		"event", "royalty_distribute_streams_completed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"royalty_id", result.RoyaltyID,
		"stream_delta", delta,
		"total_earning", result.TotalEarning.StringFixed(2),
		"payouts_count", result.PayoutsCount,
		"message", result.Message,
	)
	return result, nil
}

func (u DistributeFromStreamsUseCase) resolveRate(override decimal.Decimal, track entities.Track) decimal.Decimal {
	if override.IsPositive() {
		return override
	}
	if track.RatePerStream.IsPositive() {
		return track.RatePerStream
	}
	return u.DefaultRatePerStream
}
