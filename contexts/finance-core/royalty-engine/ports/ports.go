package ports

import (
	"context"
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	contractsv1 "royalties/contracts/gen/events/v1"

	"github.com/shopspring/decimal"
)

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

// LedgerStore runs fn inside one all-or-nothing transaction. Nothing written
// through tx is visible to other callers until fn returns nil.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the transactional view of the royalty ledger. Lock methods take
// row locks that are held until the transaction ends.
type LedgerTx interface {
	CreateTrack(ctx context.Context, track entities.Track) error
	LockTrack(ctx context.Context, trackID string) (entities.Track, error)
	// SaveTrack writes the editable track fields; the watermark only moves
	// through UpdateTrackWatermark.
	SaveTrack(ctx context.Context, track entities.Track) error
	// DeleteTrack removes the track with its splits and stream records.
	DeleteTrack(ctx context.Context, trackID string) error
	UpdateTrackWatermark(ctx context.Context, trackID string, processedStreams int64, updatedAt time.Time) error

	ListSplits(ctx context.Context, trackID string) ([]entities.Split, error)
	CreateSplit(ctx context.Context, split entities.Split) error
	SaveSplit(ctx context.Context, split entities.Split) error
	DeleteSplit(ctx context.Context, splitID string) error

	CreateStreamRecords(ctx context.Context, records []entities.StreamRecord) error
	SumBillableStreams(ctx context.Context, trackID string) (int64, error)

	// HasRoyalty reports whether the track has any royalty of mode; an
	// empty mode matches every mode.
	HasRoyalty(ctx context.Context, trackID string, mode entities.RoyaltyMode) (bool, error)
	CreateRoyalty(ctx context.Context, royalty entities.Royalty) error

	// FindOrCreateWalletForUpdate returns the user's wallet, inserting
	// candidate when none exists, and locks it.
	FindOrCreateWalletForUpdate(ctx context.Context, candidate entities.Wallet) (entities.Wallet, error)
	LockWallet(ctx context.Context, walletID string) (entities.Wallet, error)
	SaveWallet(ctx context.Context, wallet entities.Wallet) error

	EnsurePayoutStatus(ctx context.Context, status entities.PayoutStatus) error
	CreatePayout(ctx context.Context, payout entities.Payout) error
	SavePayout(ctx context.Context, payout entities.Payout) error
	LockPayout(ctx context.Context, payoutID string) (entities.Payout, error)
	ListPendingPayoutsForUpdate(ctx context.Context, walletID string) ([]entities.Payout, error)
	StampWithdrawalTransfer(ctx context.Context, withdrawalID string, transactionID string, updatedAt time.Time) (int, error)

	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type TrackReader interface {
	GetTrack(ctx context.Context, trackID string) (entities.Track, error)
	ListTracks(ctx context.Context, filter TrackFilter) (TrackPage, error)
	ListSplits(ctx context.Context, trackID string) ([]entities.Split, error)
	ListRoyalties(ctx context.Context, trackID string) ([]entities.Royalty, error)
}

// TrackFilter selects tracks newest first. Empty fields do not filter;
// Search matches title or genre case-insensitively.
type TrackFilter struct {
	OwnerID string
	Genre   string
	Search  string
	Offset  int
	Limit   int
}

type TrackPage struct {
	Items []entities.Track
	Total int64
}

type WalletReader interface {
	GetWallet(ctx context.Context, walletID string) (entities.Wallet, error)
	GetWalletByUser(ctx context.Context, userID string) (entities.Wallet, error)
	ListPayouts(ctx context.Context, walletID string) ([]entities.Payout, error)
	ListPayoutStatuses(ctx context.Context) ([]PayoutStatusRecord, error)
}

type PayoutStatusRecord struct {
	StatusID   int64
	StatusName entities.PayoutStatus
}

type TransferStatus string

const (
	TransferStatusSuccess TransferStatus = "success"
	TransferStatusStub    TransferStatus = "stub"
	TransferStatusFailed  TransferStatus = "failed"
)

type TransferResult struct {
	Status        TransferStatus
	WalletAddress string
	Amount        decimal.Decimal
	TransactionID string
}

// TransferGateway moves settled money to an external wallet address.
type TransferGateway interface {
	Transfer(ctx context.Context, address string, amount decimal.Decimal) (TransferResult, error)
}

// Metrics receives engine outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveDistribution(mode string, outcome string, total decimal.Decimal, payouts int, elapsed time.Duration)
	ObserveWithdrawal(outcome string, transferStatus string, amount decimal.Decimal, elapsed time.Duration)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
