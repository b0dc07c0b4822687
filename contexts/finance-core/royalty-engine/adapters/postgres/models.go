package postgresadapter

import (
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/shopspring/decimal"
)

type trackModel struct {
	TrackID          string          `gorm:"column:track_id;primaryKey"`
	Title            string          `gorm:"column:title;not null"`
	DurationSeconds  int             `gorm:"column:duration_seconds;not null"`
	Genre            string          `gorm:"column:genre"`
	OwnerID          string          `gorm:"column:owner_id;not null;index"`
	NFTID            string          `gorm:"column:nft_id"`
	PayoutAmount     decimal.Decimal `gorm:"column:payout_amount;type:numeric(12,2);not null"`
	RatePerStream    decimal.Decimal `gorm:"column:rate_per_stream;type:numeric(12,6);not null"`
	ProcessedStreams int64           `gorm:"column:processed_streams;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (trackModel) TableName() string {
	return "tracks"
}

func trackModelFromEntity(track entities.Track) trackModel {
	return trackModel{
		TrackID:          track.TrackID,
		Title:            track.Title,
		DurationSeconds:  track.DurationSeconds,
		Genre:            track.Genre,
		OwnerID:          track.OwnerID,
		NFTID:            track.NFTID,
		PayoutAmount:     track.PayoutAmount,
		RatePerStream:    track.RatePerStream,
		ProcessedStreams: track.ProcessedStreams,
		CreatedAt:        track.CreatedAt.UTC(),
		UpdatedAt:        track.UpdatedAt.UTC(),
	}
}

func (m trackModel) toEntity() entities.Track {
	return entities.Track{
		TrackID:          m.TrackID,
		Title:            m.Title,
		DurationSeconds:  m.DurationSeconds,
		Genre:            m.Genre,
		OwnerID:          m.OwnerID,
		NFTID:            m.NFTID,
		PayoutAmount:     m.PayoutAmount,
		RatePerStream:    m.RatePerStream,
		ProcessedStreams: m.ProcessedStreams,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type streamModel struct {
	RecordID    string    `gorm:"column:record_id;primaryKey"`
	TrackID     string    `gorm:"column:track_id;not null;index"`
	Platform    string    `gorm:"column:platform;not null"`
	StreamCount int64     `gorm:"column:stream_count;not null"`
	RecordedOn  time.Time `gorm:"column:recorded_on;type:date"`
	FraudFlag   bool      `gorm:"column:fraud_flag;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (streamModel) TableName() string {
	return "stream_data"
}

type splitModel struct {
	SplitID    string          `gorm:"column:split_id;primaryKey"`
	TrackID    string          `gorm:"column:track_id;not null;uniqueIndex:splits_track_user_key"`
	UserID     string          `gorm:"column:user_id;not null;uniqueIndex:splits_track_user_key"`
	Percentage decimal.Decimal `gorm:"column:percentage;type:numeric(9,6);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (splitModel) TableName() string {
	return "splits"
}

func (m splitModel) toEntity() entities.Split {
	return entities.Split{
		SplitID:    m.SplitID,
		TrackID:    m.TrackID,
		UserID:     m.UserID,
		Percentage: m.Percentage,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type royaltyModel struct {
	RoyaltyID        string          `gorm:"column:royalty_id;primaryKey"`
	TrackID          string          `gorm:"column:track_id;not null;index"`
	Mode             string          `gorm:"column:mode;not null"`
	TotalEarning     decimal.Decimal `gorm:"column:total_earning;type:numeric(12,2);not null"`
	DistributionDate time.Time       `gorm:"column:distribution_date"`
	StreamsFrom      int64           `gorm:"column:streams_from;not null"`
	StreamsTo        int64           `gorm:"column:streams_to;not null"`
	RatePerStream    decimal.Decimal `gorm:"column:rate_per_stream;type:numeric(12,6);not null"`
}

func (royaltyModel) TableName() string {
	return "royalties"
}

func (m royaltyModel) toEntity() entities.Royalty {
	return entities.Royalty{
		RoyaltyID:        m.RoyaltyID,
		TrackID:          m.TrackID,
		Mode:             entities.RoyaltyMode(m.Mode),
		TotalEarning:     m.TotalEarning,
		DistributionDate: m.DistributionDate.UTC(),
		StreamsFrom:      m.StreamsFrom,
		StreamsTo:        m.StreamsTo,
		RatePerStream:    m.RatePerStream,
	}
}

type walletModel struct {
	WalletID          string          `gorm:"column:wallet_id;primaryKey"`
	UserID            string          `gorm:"column:user_id;not null;uniqueIndex:wallets_user_id_key"`
	Balance           decimal.Decimal `gorm:"column:balance;type:numeric(12,2);not null"`
	BlockchainAddress string          `gorm:"column:blockchain_address;size:255"`
	LastUpdated       time.Time       `gorm:"column:last_updated"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
}

func (walletModel) TableName() string {
	return "wallets"
}

func walletModelFromEntity(wallet entities.Wallet) walletModel {
	return walletModel{
		WalletID:          wallet.WalletID,
		UserID:            wallet.UserID,
		Balance:           wallet.Balance,
		BlockchainAddress: wallet.BlockchainAddress,
		LastUpdated:       wallet.LastUpdated.UTC(),
		CreatedAt:         wallet.CreatedAt.UTC(),
	}
}

func (m walletModel) toEntity() entities.Wallet {
	return entities.Wallet{
		WalletID:          m.WalletID,
		UserID:            m.UserID,
		Balance:           m.Balance,
		BlockchainAddress: m.BlockchainAddress,
		LastUpdated:       m.LastUpdated.UTC(),
		CreatedAt:         m.CreatedAt.UTC(),
	}
}

type payoutStatusModel struct {
	StatusID   int64  `gorm:"column:status_id;primaryKey;autoIncrement"`
	StatusName string `gorm:"column:status_name;not null;uniqueIndex:payout_statuses_name_key"`
}

func (payoutStatusModel) TableName() string {
	return "payout_statuses"
}

func (m payoutStatusModel) toPort() ports.PayoutStatusRecord {
	return ports.PayoutStatusRecord{
		StatusID:   m.StatusID,
		StatusName: entities.PayoutStatus(m.StatusName),
	}
}

type payoutModel struct {
	PayoutID        string          `gorm:"column:payout_id;primaryKey"`
	WalletID        string          `gorm:"column:wallet_id;not null;index:payouts_wallet_fifo_idx,priority:1"`
	RoyaltyID       *string         `gorm:"column:royalty_id"`
	WithdrawalID    *string         `gorm:"column:withdrawal_id;index"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	StatusID        int64           `gorm:"column:status_id;not null"`
	Origin          string          `gorm:"column:origin;not null"`
	BlockchainTxnID *string         `gorm:"column:blockchain_txn_id"`
	TxnDate         time.Time       `gorm:"column:txn_date;index:payouts_wallet_fifo_idx,priority:2"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (payoutModel) TableName() string {
	return "payouts"
}

func payoutModelFromEntity(payout entities.Payout, statusID int64) payoutModel {
	return payoutModel{
		PayoutID:        payout.PayoutID,
		WalletID:        payout.WalletID,
		RoyaltyID:       nullable(payout.RoyaltyID),
		WithdrawalID:    nullable(payout.WithdrawalID),
		Amount:          payout.Amount,
		StatusID:        statusID,
		Origin:          string(payout.Origin),
		BlockchainTxnID: nullable(payout.BlockchainTxnID),
		TxnDate:         payout.TxnDate.UTC(),
		UpdatedAt:       payout.UpdatedAt.UTC(),
	}
}

func (m payoutModel) toEntity(status entities.PayoutStatus) entities.Payout {
	return entities.Payout{
		PayoutID:        m.PayoutID,
		WalletID:        m.WalletID,
		RoyaltyID:       deref(m.RoyaltyID),
		WithdrawalID:    deref(m.WithdrawalID),
		Amount:          m.Amount,
		Status:          status,
		Origin:          entities.PayoutOrigin(m.Origin),
		BlockchainTxnID: deref(m.BlockchainTxnID),
		TxnDate:         m.TxnDate.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type;not null"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;not null"`
	Status       string     `gorm:"column:status;not null;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "royalty_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "royalty_event_dedup"
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
