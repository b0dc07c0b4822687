package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	"royalties/contexts/finance-core/platform-fee-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&feeRecordModel{}, &feeEventDedupModel{})
}

type feeRecordModel struct {
	RecordID      string          `gorm:"column:record_id;primaryKey"`
	RoyaltyID     string          `gorm:"column:royalty_id;not null;uniqueIndex:platform_fee_records_royalty_key"`
	TrackID       string          `gorm:"column:track_id;not null;index"`
	Mode          string          `gorm:"column:mode;not null"`
	GrossAmount   decimal.Decimal `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	FeePercent    decimal.Decimal `gorm:"column:fee_percent;type:numeric(5,2);not null"`
	FeeAmount     decimal.Decimal `gorm:"column:fee_amount;type:numeric(12,2);not null"`
	NetAmount     decimal.Decimal `gorm:"column:net_amount;type:numeric(12,2);not null"`
	PayoutsCount  int             `gorm:"column:payouts_count;not null"`
	DistributedAt time.Time       `gorm:"column:distributed_at;not null;index"`
	SourceEventID string          `gorm:"column:source_event_id"`
	RecordedAt    time.Time       `gorm:"column:recorded_at;not null"`
}

func (feeRecordModel) TableName() string {
	return "platform_fee_records"
}

type feeEventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash;not null"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (feeEventDedupModel) TableName() string {
	return "platform_fee_event_dedup"
}

func (r *Repository) CreateRecord(ctx context.Context, record ports.FeeRecord) error {
	row := feeRecordModel{
		RecordID:      strings.TrimSpace(record.RecordID),
		RoyaltyID:     strings.TrimSpace(record.RoyaltyID),
		TrackID:       strings.TrimSpace(record.TrackID),
		Mode:          record.Mode,
		GrossAmount:   record.GrossAmount,
		FeePercent:    record.FeePercent,
		FeeAmount:     record.FeeAmount,
		NetAmount:     record.NetAmount,
		PayoutsCount:  record.PayoutsCount,
		DistributedAt: record.DistributedAt.UTC(),
		SourceEventID: record.SourceEventID,
		RecordedAt:    record.RecordedAt.UTC(),
	}
	if row.RecordID == "" || row.RoyaltyID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyRecorded
		}
		return fmt.Errorf("create platform fee record: %w", err)
	}
	return nil
}

func (r *Repository) GetRecordByRoyalty(ctx context.Context, royaltyID string) (ports.FeeRecord, error) {
	var row feeRecordModel
	err := r.db.WithContext(ctx).
		Where("royalty_id = ?", strings.TrimSpace(royaltyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.FeeRecord{}, domainerrors.ErrNotFound
		}
		return ports.FeeRecord{}, err
	}
	return row.toPort(), nil
}

func (r *Repository) ListRecordsByTrack(ctx context.Context, trackID string, limit int, offset int) ([]ports.FeeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []feeRecordModel
	err := r.db.WithContext(ctx).
		Where("track_id = ?", strings.TrimSpace(trackID)).
		Order("distributed_at DESC").
		Order("record_id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return toPorts(rows), nil
}

func (r *Repository) ListRecordsBetween(ctx context.Context, from time.Time, to time.Time) ([]ports.FeeRecord, error) {
	var rows []feeRecordModel
	err := r.db.WithContext(ctx).
		Where("distributed_at >= ? AND distributed_at < ?", from.UTC(), to.UTC()).
		Order("distributed_at DESC").
		Order("record_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return toPorts(rows), nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := feeEventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	if row.EventID == "" {
		return false, domainerrors.ErrInvalidInput
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing feeEventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrEventPayloadConflict
	}
	return true, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", strings.TrimSpace(eventID)).
		Delete(&feeEventDedupModel{}).
		Error
}

func (m feeRecordModel) toPort() ports.FeeRecord {
	return ports.FeeRecord{
		RecordID:      m.RecordID,
		RoyaltyID:     m.RoyaltyID,
		TrackID:       m.TrackID,
		Mode:          m.Mode,
		GrossAmount:   m.GrossAmount,
		FeePercent:    m.FeePercent,
		FeeAmount:     m.FeeAmount,
		NetAmount:     m.NetAmount,
		PayoutsCount:  m.PayoutsCount,
		DistributedAt: m.DistributedAt.UTC(),
		SourceEventID: m.SourceEventID,
		RecordedAt:    m.RecordedAt.UTC(),
	}
}

func toPorts(rows []feeRecordModel) []ports.FeeRecord {
	items := make([]ports.FeeRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
