package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

type RemoveSplitCommand struct {
	TrackID string
	SplitID string
	ActorID string
}

type RemoveSplitUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute deletes a split. Royalties already paid keep their payouts; later
// runs use the remaining split set.
func (u RemoveSplitUseCase) Execute(ctx context.Context, cmd RemoveSplitCommand) error {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	splitID := strings.TrimSpace(cmd.SplitID)
	if trackID == "" || splitID == "" {
		return domainerrors.ErrInvalidRequest
	}

	now := resolveNow(u.Clock)
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		track, err := tx.LockTrack(ctx, trackID)
		if err != nil {
			return err
		}
		if err := track.AuthorizeOwner(cmd.ActorID); err != nil {
			return err
		}
		splits, err := tx.ListSplits(ctx, trackID)
		if err != nil {
			return err
		}
		split, err := services.FindSplit(splits, splitID)
		if err != nil {
			return err
		}
		if err := tx.DeleteSplit(ctx, splitID); err != nil {
			return err
		}

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventSplitRemoved, "track_id", trackID, now, SplitRemovedPayload{
			SplitID: splitID,
			TrackID: trackID,
			UserID:  split.UserID,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("remove split rejected",
			"event", "royalty_remove_split_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"split_id", splitID,
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("split removed",
		"event", "royalty_split_removed",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"split_id", splitID,
	)
	return nil
}
