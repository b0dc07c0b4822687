package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "royalties/contexts/finance-core/royalty-engine/application"
	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"
)

type StreamEntry struct {
	Platform    string
	StreamCount int64
	RecordedOn  time.Time
	FraudFlag   bool
}

type RecordStreamsCommand struct {
	TrackID string
	Entries []StreamEntry
}

type RecordStreamsResult struct {
	RecordIDs   []string
	StreamCount int64
}

type RecordStreamsUseCase struct {
	Ledger      ports.LedgerStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute appends stream rows for a track. Rows flagged as fraud are stored
// but never billed.
func (u RecordStreamsUseCase) Execute(ctx context.Context, cmd RecordStreamsCommand) (RecordStreamsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	trackID := strings.TrimSpace(cmd.TrackID)
	if trackID == "" || len(cmd.Entries) == 0 {
		return RecordStreamsResult{}, domainerrors.ErrInvalidRequest
	}
	for _, entry := range cmd.Entries {
		if entry.StreamCount < 0 || strings.TrimSpace(entry.Platform) == "" {
			return RecordStreamsResult{}, domainerrors.ErrInvalidRequest
		}
	}

	now := resolveNow(u.Clock)
	result := RecordStreamsResult{}
	err := u.Ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		result = RecordStreamsResult{}
		if _, err := tx.LockTrack(ctx, trackID); err != nil {
			return err
		}

		records := make([]entities.StreamRecord, 0, len(cmd.Entries))
		for _, entry := range cmd.Entries {
			recordID, err := u.IDGenerator.NewID(ctx)
			if err != nil {
				return err
			}
			recordedOn := entry.RecordedOn
			if recordedOn.IsZero() {
				recordedOn = now
			}
			record := entities.StreamRecord{
				RecordID:    recordID,
				TrackID:     trackID,
				Platform:    strings.TrimSpace(entry.Platform),
				StreamCount: entry.StreamCount,
				RecordedOn:  recordedOn.UTC().Truncate(24 * time.Hour),
				FraudFlag:   entry.FraudFlag,
				CreatedAt:   now,
			}
			records = append(records, record)
			result.RecordIDs = append(result.RecordIDs, recordID)
			result.StreamCount += record.Billable()
		}
		if err := tx.CreateStreamRecords(ctx, records); err != nil {
			return err
		}

		envelope, err := newEnvelope(ctx, u.IDGenerator, EventStreamsRecorded, "track_id", trackID, now, StreamsRecordedPayload{
			TrackID:     trackID,
			RecordCount: len(records),
			StreamCount: result.StreamCount,
		})
		if err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, envelope)
	})
	if err != nil {
		logger.Warn("record streams rejected",
			"event", "royalty_record_streams_rejected",
			"module", "finance-core/royalty-engine",
			"layer", "application",
			"track_id", trackID,
			"error", err.Error(),
		)
		return RecordStreamsResult{}, err
	}

	logger.Info("streams recorded",
		"event", "royalty_streams_recorded",
		"module", "finance-core/royalty-engine",
		"layer", "application",
		"track_id", trackID,
		"record_count", len(result.RecordIDs),
		"billable_streams", result.StreamCount,
	)
	return result, nil
}
