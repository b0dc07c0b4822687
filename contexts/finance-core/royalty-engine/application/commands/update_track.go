package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

type UpdateTrackCommand struct {
	TrackID string
	ActorID string
	Changes entities.TrackChanges
}

type UpdateTrackUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u UpdateTrackUseCase) Execute(ctx context.Context, cmd UpdateTrackCommand) (entities.Track, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	if trackID == "" {
		return entities.Track{}, domainerrors.ErrInvalidRequest
	}

	now := resolveNow(u.Clock)
	var track entities.Track
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		locked, err := tx.LockTrack(ctx, trackID)
		if err != nil {
			return err
		}
		if err := locked.AuthorizeOwner(cmd.ActorID); err != nil {
			return err
		}
		if err := locked.Apply(cmd.Changes, now); err != nil {
			return err
		}
		if err := tx.SaveTrack(ctx, locked); err != nil {
			return err
		}
		track = locked

		// The distribution trigger retries fixed runs on this event.
		envelope, err := newEnvelope(ctx, u.IDGenerator, EventTrackUpdated, "track_id", trackID, now, TrackUpdatedPayload{
			TrackID:       trackID,
			PayoutAmount:  locked.PayoutAmount,
			RatePerStream: locked.RatePerStream,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("update track rejected",
			"event", "royalty_update_track_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return entities.Track{}, err
	}

	logger.Info("track updated",
		"event", "royalty_track_updated",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"payout_amount", track.PayoutAmount.StringFixed(2),
	)
	return track, nil
}
