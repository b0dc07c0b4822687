package commands

import (
	"context"
	"strings"
	"time"

	"royalties/contexts/finance-core/royalty-engine/ports"
	contractsv1 "royalties/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventTrackCreated       = "track.created"
	EventTrackUpdated       = "track.updated"
	EventTrackDeleted       = "track.deleted"
	EventSplitCreated       = "split.created"
	EventSplitUpdated       = "split.updated"
	EventSplitRemoved       = "split.removed"
	EventStreamsRecorded    = "streams.recorded"
	EventRoyaltyDistributed = "royalty.distributed"
	EventWalletWithdrawn    = "wallet.withdrawn"

	sourceService = "royalty-engine"
)

type TrackCreatedPayload struct {
	TrackID      string          `json:"track_id"`
	OwnerID      string          `json:"owner_id"`
	PayoutAmount decimal.Decimal `json:"payout_amount"`
}

type TrackUpdatedPayload struct {
	TrackID       string          `json:"track_id"`
	PayoutAmount  decimal.Decimal `json:"payout_amount"`
	RatePerStream decimal.Decimal `json:"rate_per_stream"`
}

type TrackDeletedPayload struct {
	TrackID string `json:"track_id"`
	OwnerID string `json:"owner_id"`
}

type SplitCreatedPayload struct {
	SplitID    string          `json:"split_id"`
	TrackID    string          `json:"track_id"`
	UserID     string          `json:"user_id"`
	Percentage decimal.Decimal `json:"percentage"`
}

type SplitUpdatedPayload struct {
	SplitID            string          `json:"split_id"`
	TrackID            string          `json:"track_id"`
	UserID             string          `json:"user_id"`
	Percentage         decimal.Decimal `json:"percentage"`
	PreviousPercentage decimal.Decimal `json:"previous_percentage"`
}

type SplitRemovedPayload struct {
	SplitID string `json:"split_id"`
	TrackID string `json:"track_id"`
	UserID  string `json:"user_id"`
}

type StreamsRecordedPayload struct {
	TrackID     string `json:"track_id"`
	RecordCount int    `json:"record_count"`
	StreamCount int64  `json:"stream_count"`
}

type RoyaltyDistributedPayload struct {
	RoyaltyID          string          `json:"royalty_id"`
	TrackID            string          `json:"track_id"`
	Mode               string          `json:"mode"`
	TotalEarning       decimal.Decimal `json:"total_earning"`
	NetTotal           decimal.Decimal `json:"net_total"`
	FeeTotal           decimal.Decimal `json:"fee_total"`
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent"`
	PayoutsCount       int             `json:"payouts_count"`
	DistributedAt      time.Time       `json:"distributed_at"`
}

type WalletWithdrawnPayload struct {
	WithdrawalID string          `json:"withdrawal_id"`
	WalletID     string          `json:"wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	PayoutIDs    []string        `json:"payout_ids"`
}

func newEnvelope(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	payload any,
) (ports.EventEnvelope, error) {
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	envelope, err := contractsv1.New(strings.TrimSpace(eventID), eventType, sourceService, partitionKeyPath, partitionKey, occurredAt, payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	// Link the event to the request trace when one is active.
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		envelope.TraceID = spanCtx.TraceID().String()
	}
	return envelope, nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
