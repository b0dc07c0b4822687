package commands

import (
	"context"
	"log/slog"
	"strings"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

type RegisterTrackCommand struct {
	OwnerID         string
	Title           string
	DurationSeconds int
	Genre           string
	NFTID           string
	PayoutAmount    decimal.Decimal
	RatePerStream   decimal.Decimal
}

type RegisterTrackUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute stores the track and its track.created event together. The
// distribution trigger reacts to the event once it is relayed.
func (u RegisterTrackUseCase) Execute(ctx context.Context, cmd RegisterTrackCommand) (entities.Track, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Track{}, err
	}
	now := resolveNow(u.Clock)
	track, err := entities.NewTrack(
		trackID,
		cmd.OwnerID,
		cmd.Title,
		cmd.DurationSeconds,
		cmd.Genre,
		cmd.PayoutAmount,
		cmd.RatePerStream,
		now,
	)
	if err != nil {
		return entities.Track{}, err
	}
	track.NFTID = strings.TrimSpace(cmd.NFTID)

	err = u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		if err := tx.CreateTrack(ctx, track); err != nil {
			return err
		}
		envelope, err := newEnvelope(ctx, u.IDGenerator, EventTrackCreated, "track_id", track.TrackID, now, TrackCreatedPayload{
			TrackID:      track.TrackID,
			OwnerID:      track.OwnerID,
			PayoutAmount: track.PayoutAmount,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Error("register track failed",
			"event", "royalty_register_track_failed",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"owner_id", track.OwnerID,
			"error", err.Error(),
		)
		return entities.Track{}, err
	}

	logger.Info("track registered",
		"event", "royalty_track_registered",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", track.TrackID,
		"owner_id", track.OwnerID,
		"payout_amount", track.PayoutAmount.StringFixed(2),
	)
	return track, nil
}
