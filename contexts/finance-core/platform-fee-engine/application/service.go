package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	"royalties/contexts/finance-core/platform-fee-engine/ports"

	"github.com/shopspring/decimal"
)

const reportMonthLayout = "2006-01"

type Service struct {
	Repo              ports.Repository
	EventDedup        ports.EventDedupStore
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	EventDedupTTL     time.Duration
	DefaultFeePercent decimal.Decimal
	Logger            *slog.Logger
}

// RecordDistribution books the fee of one royalty.distributed event. A
// redelivered event replays the stored record and reports replayed=true.
func (s Service) RecordDistribution(
	ctx context.Context,
	eventID string,
	event ports.RoyaltyDistributedEvent,
) (ports.FeeRecord, bool, error) {
	eventID = strings.TrimSpace(eventID)
	event.RoyaltyID = strings.TrimSpace(event.RoyaltyID)
	event.TrackID = strings.TrimSpace(event.TrackID)
	if eventID == "" || !isValidEvent(event) {
		return ports.FeeRecord{}, false, domainerrors.ErrInvalidInput
	}

	payloadHash := hashPayload(map[string]any{
		"royalty_id":     event.RoyaltyID,
		"track_id":       event.TrackID,
		"total_earning":  event.TotalEarning.StringFixed(2),
		"net_total":      event.NetTotal.StringFixed(2),
		"fee_total":      event.FeeTotal.StringFixed(2),
		"distributed_at": event.DistributedAt.UTC().Format(time.RFC3339Nano),
	})
	if s.EventDedup != nil {
		alreadyProcessed, err := s.EventDedup.ReserveEvent(ctx, eventID, payloadHash, s.now().Add(s.eventDedupTTL()))
		if err != nil {
			return ports.FeeRecord{}, false, err
		}
		if alreadyProcessed {
			record, err := s.Repo.GetRecordByRoyalty(ctx, event.RoyaltyID)
			if err != nil {
				return ports.FeeRecord{}, false, err
			}
			return record, true, nil
		}
	}

	record, err := s.buildRecord(ctx, eventID, event)
	if err == nil {
		err = s.Repo.CreateRecord(ctx, record)
	}
	if errors.Is(err, domainerrors.ErrAlreadyRecorded) {
		// Same royalty delivered under a different event id.
		existing, getErr := s.Repo.GetRecordByRoyalty(ctx, event.RoyaltyID)
		if getErr != nil {
			return ports.FeeRecord{}, false, getErr
		}
		return existing, true, nil
	}
	if err != nil {
		if s.EventDedup != nil {
			_ = s.EventDedup.ReleaseEvent(ctx, eventID)
		}
		return ports.FeeRecord{}, false, err
	}

	resolveLogger(s.Logger).Info("platform fee recorded",
		"event", "platform_fee_recorded",
		"module", "finance-core/platform-fee-engine",
		"layer", "application",
		"record_id", record.RecordID,
		"royalty_id", record.RoyaltyID,
		"track_id", record.TrackID,
		"fee_amount", record.FeeAmount.StringFixed(2),
	)
	return record, false, nil
}

func (s Service) buildRecord(ctx context.Context, eventID string, event ports.RoyaltyDistributedEvent) (ports.FeeRecord, error) {
	recordID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.FeeRecord{}, err
	}
	percent := event.PlatformFeePercent
	if percent.IsZero() {
		percent = s.DefaultFeePercent
	}

	gross := event.TotalEarning.Round(2)
	fee := event.FeeTotal.Round(2)
	net := event.NetTotal.Round(2)
	if fee.IsZero() && net.IsZero() {
		// Older producers only sent the gross amount.
		fee = gross.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
		net = gross.Sub(fee)
	}

	distributedAt := event.DistributedAt.UTC()
	if distributedAt.IsZero() {
		distributedAt = s.now()
	}
	return ports.FeeRecord{
		RecordID:      strings.TrimSpace(recordID),
		RoyaltyID:     event.RoyaltyID,
		TrackID:       event.TrackID,
		Mode:          strings.TrimSpace(event.Mode),
		GrossAmount:   gross,
		FeePercent:    percent,
		FeeAmount:     fee,
		NetAmount:     net,
		PayoutsCount:  event.PayoutsCount,
		DistributedAt: distributedAt,
		SourceEventID: eventID,
		RecordedAt:    s.now(),
	}, nil
}

func (s Service) ListTrackHistory(
	ctx context.Context,
	trackID string,
	limit int,
	offset int,
) ([]ports.FeeRecord, error) {
	if strings.TrimSpace(trackID) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListRecordsByTrack(ctx, strings.TrimSpace(trackID), limit, offset)
}

func (s Service) MonthlyReport(ctx context.Context, month string) (ports.FeeReport, error) {
	month = strings.TrimSpace(month)
	start, err := time.Parse(reportMonthLayout, month)
	if err != nil {
		return ports.FeeReport{}, domainerrors.ErrInvalidInput
	}
	records, err := s.Repo.ListRecordsBetween(ctx, start, start.AddDate(0, 1, 0))
	if err != nil {
		return ports.FeeReport{}, err
	}

	report := ports.FeeReport{
		Month:      month,
		TotalGross: decimal.Zero,
		TotalFee:   decimal.Zero,
		TotalNet:   decimal.Zero,
	}
	for _, record := range records {
		report.Count++
		report.TotalGross = report.TotalGross.Add(record.GrossAmount)
		report.TotalFee = report.TotalFee.Add(record.FeeAmount)
		report.TotalNet = report.TotalNet.Add(record.NetAmount)
	}
	return report, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) eventDedupTTL() time.Duration {
	if s.EventDedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.EventDedupTTL
}

func isValidEvent(event ports.RoyaltyDistributedEvent) bool {
	return event.RoyaltyID != "" &&
		event.TrackID != "" &&
		event.TotalEarning.IsPositive() &&
		!event.FeeTotal.IsNegative() &&
		!event.NetTotal.IsNegative()
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
