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

type AddSplitCommand struct {
	TrackID string
	// ActorID is the caller; only the track owner may add splits.
	ActorID    string
	UserID     string
	Percentage decimal.Decimal
}

type AddSplitUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u AddSplitUseCase) Execute(ctx context.Context, cmd AddSplitCommand) (entities.Split, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	userID := strings.TrimSpace(cmd.UserID)
	if trackID == "" {
		return entities.Split{}, domainerrors.ErrInvalidRequest
	}

	now := resolveNow(u.Clock)
	var split entities.Split
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		// The track lock serialises split writes with running distributions.
		track, err := tx.LockTrack(ctx, trackID)
		if err != nil {
			return err
		}
		if err := track.AuthorizeOwner(cmd.ActorID); err != nil {
			return err
		}
		existing, err := tx.ListSplits(ctx, trackID)
		if err != nil {
			return err
		}
		if err := services.ValidateNewSplit(existing, userID, cmd.Percentage); err != nil {
			return err
		}

		splitID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		split = entities.Split{
			SplitID:    splitID,
			TrackID:    trackID,
			UserID:     userID,
			Percentage: cmd.Percentage,
			CreatedAt:  now,
		}
		if err := tx.CreateSplit(ctx, split); err != nil {
			return err
		}

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventSplitCreated, "track_id", trackID, now, SplitCreatedPayload{
			SplitID:    split.SplitID,
			TrackID:    trackID,
			UserID:     userID,
			Percentage: split.Percentage,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("add split rejected",
			"event", "royalty_add_split_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"user_id", userID,
			"percentage", cmd.Percentage.String(),
			"error", err.Error(),
		)
		return entities.Split{}, err
	}

	logger.Info("split added",
		"event", "royalty_split_added",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"split_id", split.SplitID,
		"user_id", userID,
		"percentage", split.Percentage.String(),
	)
	return split, nil
}
