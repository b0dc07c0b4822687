package ports

import (
	"context"
	"time"

	contractsv1 "royalties/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

const TopicRoyaltyDistributed = "royalty.distributed"

// FeeRecord is the platform's cut of one royalty distribution.
type FeeRecord struct {
	RecordID      string
	RoyaltyID     string
	TrackID       string
	Mode          string
	GrossAmount   decimal.Decimal
	FeePercent    decimal.Decimal
	FeeAmount     decimal.Decimal
	NetAmount     decimal.Decimal
	PayoutsCount  int
	DistributedAt time.Time
	SourceEventID string
	RecordedAt    time.Time
}

// RoyaltyDistributedEvent mirrors the royalty.distributed payload.
type RoyaltyDistributedEvent struct {
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

type Repository interface {
	// CreateRecord fails with ErrAlreadyRecorded when the royalty already
	// has a record.
	CreateRecord(ctx context.Context, record FeeRecord) error
	GetRecordByRoyalty(ctx context.Context, royaltyID string) (FeeRecord, error)
	ListRecordsByTrack(ctx context.Context, trackID string, limit int, offset int) ([]FeeRecord, error)
	// ListRecordsBetween returns records with from <= distributed_at < to.
	ListRecordsBetween(ctx context.Context, from time.Time, to time.Time) ([]FeeRecord, error)
}

type FeeReport struct {
	Month      string
	TotalGross decimal.Decimal
	TotalFee   decimal.Decimal
	TotalNet   decimal.Decimal
	Count      int
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
