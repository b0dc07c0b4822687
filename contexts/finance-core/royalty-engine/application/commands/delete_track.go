package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

type DeleteTrackCommand struct {
	TrackID string
	ActorID string
}

type DeleteTrackUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute removes a track that was never distributed. Once a royalty exists
// the track is part of the payout audit trail and stays.
func (u DeleteTrackUseCase) Execute(ctx context.Context, cmd DeleteTrackCommand) error {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	if trackID == "" {
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
		distributed, err := tx.HasRoyalty(ctx, trackID, "")
		if err != nil {
			return err
		}
		if distributed {
			return domainerrors.ErrTrackHasRoyalties
		}
		if err := tx.DeleteTrack(ctx, trackID); err != nil {
			return err
		}

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventTrackDeleted, "track_id", trackID, now, TrackDeletedPayload{
			TrackID: trackID,
			OwnerID: track.OwnerID,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("delete track rejected",
			"event", "royalty_delete_track_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("track deleted",
		"event", "royalty_track_deleted",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
	)
	return nil
}
