package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

type UpdateSplitCommand struct {
	TrackID    string
	SplitID    string
	ActorID    string
	Percentage decimal.Decimal
}

type UpdateSplitUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute changes one split's percentage under the track lock. The split set
// may be incomplete afterwards; distributions check completeness themselves.
func (u UpdateSplitUseCase) Execute(ctx context.Context, cmd UpdateSplitCommand) (entities.Split, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	splitID := strings.TrimSpace(cmd.SplitID)
	if trackID == "" || splitID == "" {
		return entities.Split{}, domainerrors.ErrInvalidRequest
	}
	if err := services.ValidatePercentage(cmd.Percentage); err != nil {
		return entities.Split{}, err
	}

	now := resolveNow(u.Clock)
	var split entities.Split
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
		current, err := services.FindSplit(splits, splitID)
		if err != nil {
			return err
		}

		previous := current.Percentage
		current.Percentage = cmd.Percentage
		if err := tx.SaveSplit(ctx, current); err != nil {
			return err
		}
		split = current

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventSplitUpdated, "track_id", trackID, now, SplitUpdatedPayload{
			SplitID:            current.SplitID,
			TrackID:            trackID,
			UserID:             current.UserID,
			Percentage:         current.Percentage,
			PreviousPercentage: previous,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("update split rejected",
			"event", "royalty_update_split_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"split_id", splitID,
			"actor_id", cmd.ActorID,
			"error", err.Error(),
		)
		return entities.Split{}, err
	}

	logger.Info("split updated",
		"event", "royalty_split_updated",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"split_id", splitID,
		"percentage", split.Percentage.String(),
	)
	return split, nil
}
