package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerTx binds the LedgerTx port to one gorm transaction. Row locks are
// SELECT ... FOR UPDATE and are released when the transaction ends.
type ledgerTx struct {
	db        *gorm.DB
	statusIDs map[entities.PayoutStatus]int64
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *ledgerTx) CreateTrack(ctx context.Context, track entities.Track) error {
	row := trackModelFromEntity(track)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return fmt.Errorf("create track: %w", err)
	}
	return nil
}

func (t *ledgerTx) LockTrack(ctx context.Context, trackID string) (entities.Track, error) {
	var row trackModel
	err := forUpdate(t.db.WithContext(ctx)).
		Where("track_id = ?", strings.TrimSpace(trackID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Track{}, domainerrors.ErrTrackNotFound
		}
		return entities.Track{}, fmt.Errorf("lock track: %w", err)
	}
	return row.toEntity(), nil
}

func (t *ledgerTx) SaveTrack(ctx context.Context, track entities.Track) error {
	result := t.db.WithContext(ctx).
		Model(&trackModel{}).
		Where("track_id = ?", track.TrackID).
		Updates(map[string]any{
			"title":            track.Title,
			"duration_seconds": track.DurationSeconds,
			"genre":            track.Genre,
			"nft_id":           track.NFTID,
			"payout_amount":    track.PayoutAmount,
			"rate_per_stream":  track.RatePerStream,
			"updated_at":       track.UpdatedAt.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("save track: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTrackNotFound
	}
	return nil
}

// DeleteTrack removes child rows first; royalties keep their foreign key so
// a distributed track cannot be deleted.
func (t *ledgerTx) DeleteTrack(ctx context.Context, trackID string) error {
	db := t.db.WithContext(ctx)
	if err := db.Where("track_id = ?", trackID).Delete(&splitModel{}).Error; err != nil {
		return fmt.Errorf("delete splits: %w", err)
	}
	if err := db.Where("track_id = ?", trackID).Delete(&streamModel{}).Error; err != nil {
		return fmt.Errorf("delete stream records: %w", err)
	}
	result := db.Where("track_id = ?", trackID).Delete(&trackModel{})
	if result.Error != nil {
		return fmt.Errorf("delete track: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTrackNotFound
	}
	return nil
}

func (t *ledgerTx) UpdateTrackWatermark(ctx context.Context, trackID string, processedStreams int64, updatedAt time.Time) error {
	result := t.db.WithContext(ctx).
		Model(&trackModel{}).
		Where("track_id = ? AND processed_streams <= ?", trackID, processedStreams).
		Updates(map[string]any{
			"processed_streams": processedStreams,
			"updated_at":        updatedAt.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("update watermark: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := t.db.WithContext(ctx).Model(&trackModel{}).Where("track_id = ?", trackID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrTrackNotFound
		}
		return domainerrors.ErrWatermarkRegression
	}
	return nil
}

func (t *ledgerTx) ListSplits(ctx context.Context, trackID string) ([]entities.Split, error) {
	return listSplits(t.db.WithContext(ctx), trackID)
}

func (t *ledgerTx) CreateSplit(ctx context.Context, split entities.Split) error {
	row := splitModel{
		SplitID:    split.SplitID,
		TrackID:    split.TrackID,
		UserID:     split.UserID,
		Percentage: split.Percentage,
		CreatedAt:  split.CreatedAt.UTC(),
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateSplit
		}
		return fmt.Errorf("create split: %w", err)
	}
	return nil
}

func (t *ledgerTx) SaveSplit(ctx context.Context, split entities.Split) error {
	result := t.db.WithContext(ctx).
		Model(&splitModel{}).
		Where("split_id = ?", split.SplitID).
		Update("percentage", split.Percentage)
	if result.Error != nil {
		return fmt.Errorf("save split: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSplitNotFound
	}
	return nil
}

func (t *ledgerTx) DeleteSplit(ctx context.Context, splitID string) error {
	result := t.db.WithContext(ctx).
		Where("split_id = ?", splitID).
		Delete(&splitModel{})
	if result.Error != nil {
		return fmt.Errorf("delete split: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSplitNotFound
	}
	return nil
}

func (t *ledgerTx) CreateStreamRecords(ctx context.Context, records []entities.StreamRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]streamModel, 0, len(records))
	for _, record := range records {
		rows = append(rows, streamModel{
			RecordID:    record.RecordID,
			TrackID:     record.TrackID,
			Platform:    record.Platform,
			StreamCount: record.StreamCount,
			RecordedOn:  record.RecordedOn.UTC(),
			FraudFlag:   record.FraudFlag,
			CreatedAt:   record.CreatedAt.UTC(),
		})
	}
	if err := t.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("create stream records: %w", err)
	}
	return nil
}

func (t *ledgerTx) SumBillableStreams(ctx context.Context, trackID string) (int64, error) {
	var total int64
	err := t.db.WithContext(ctx).
		Model(&streamModel{}).
		Select("CAST(COALESCE(SUM(stream_count), 0) AS BIGINT)").
		Where("track_id = ? AND fraud_flag = ? AND stream_count >= 0", trackID, false).
		Scan(&total).
		Error
	if err != nil {
		return 0, fmt.Errorf("sum streams: %w", err)
	}
	return total, nil
}

func (t *ledgerTx) HasRoyalty(ctx context.Context, trackID string, mode entities.RoyaltyMode) (bool, error) {
	query := t.db.WithContext(ctx).Model(&royaltyModel{}).Where("track_id = ?", trackID)
	if mode != "" {
		query = query.Where("mode = ?", string(mode))
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *ledgerTx) CreateRoyalty(ctx context.Context, royalty entities.Royalty) error {
	row := royaltyModel{
		RoyaltyID:        royalty.RoyaltyID,
		TrackID:          royalty.TrackID,
		Mode:             string(royalty.Mode),
		TotalEarning:     royalty.TotalEarning,
		DistributionDate: royalty.DistributionDate.UTC(),
		StreamsFrom:      royalty.StreamsFrom,
		StreamsTo:        royalty.StreamsTo,
		RatePerStream:    royalty.RatePerStream,
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return fmt.Errorf("create royalty: %w", err)
	}
	return nil
}

// FindOrCreateWalletForUpdate inserts candidate unless the user already has a
// wallet, then locks whichever row won.
func (t *ledgerTx) FindOrCreateWalletForUpdate(ctx context.Context, candidate entities.Wallet) (entities.Wallet, error) {
	row := walletModelFromEntity(candidate)
	if err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error; err != nil {
		return entities.Wallet{}, fmt.Errorf("insert wallet: %w", err)
	}
	return findWallet(forUpdate(t.db.WithContext(ctx)), "user_id = ?", candidate.UserID)
}

func (t *ledgerTx) LockWallet(ctx context.Context, walletID string) (entities.Wallet, error) {
	return findWallet(forUpdate(t.db.WithContext(ctx)), "wallet_id = ?", strings.TrimSpace(walletID))
}

func (t *ledgerTx) SaveWallet(ctx context.Context, wallet entities.Wallet) error {
	result := t.db.WithContext(ctx).
		Model(&walletModel{}).
		Where("wallet_id = ?", wallet.WalletID).
		Updates(map[string]any{
			"balance":            wallet.Balance,
			"blockchain_address": wallet.BlockchainAddress,
			"last_updated":       wallet.LastUpdated.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("save wallet: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWalletNotFound
	}
	return nil
}

func (t *ledgerTx) EnsurePayoutStatus(ctx context.Context, status entities.PayoutStatus) error {
	_, err := t.ensureStatusID(ctx, status)
	return err
}

func (t *ledgerTx) ensureStatusID(ctx context.Context, status entities.PayoutStatus) (int64, error) {
	if id, ok := t.statusIDs[status]; ok {
		return id, nil
	}
	row := payoutStatusModel{StatusName: string(status)}
	if err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "status_name"}},
			DoNothing: true,
		}).
		Create(&row).
		Error; err != nil {
		return 0, fmt.Errorf("insert payout status: %w", err)
	}
	return t.statusID(ctx, status)
}

func (t *ledgerTx) statusID(ctx context.Context, status entities.PayoutStatus) (int64, error) {
	if id, ok := t.statusIDs[status]; ok {
		return id, nil
	}
	var row payoutStatusModel
	if err := t.db.WithContext(ctx).Where("status_name = ?", string(status)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domainerrors.ErrRepositoryInvariantBroke
		}
		return 0, err
	}
	t.statusIDs[status] = row.StatusID
	return row.StatusID, nil
}

func (t *ledgerTx) CreatePayout(ctx context.Context, payout entities.Payout) error {
	statusID, err := t.statusID(ctx, payout.Status)
	if err != nil {
		return err
	}
	row := payoutModelFromEntity(payout, statusID)
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

func (t *ledgerTx) SavePayout(ctx context.Context, payout entities.Payout) error {
	statusID, err := t.statusID(ctx, payout.Status)
	if err != nil {
		return err
	}
	row := payoutModelFromEntity(payout, statusID)
	result := t.db.WithContext(ctx).
		Model(&payoutModel{}).
		Where("payout_id = ?", payout.PayoutID).
		Updates(map[string]any{
			"amount":            row.Amount,
			"status_id":         row.StatusID,
			"withdrawal_id":     row.WithdrawalID,
			"blockchain_txn_id": row.BlockchainTxnID,
			"updated_at":        row.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("save payout: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPayoutNotFound
	}
	return nil
}

func (t *ledgerTx) LockPayout(ctx context.Context, payoutID string) (entities.Payout, error) {
	var row payoutModel
	err := forUpdate(t.db.WithContext(ctx)).
		Where("payout_id = ?", strings.TrimSpace(payoutID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payout{}, domainerrors.ErrPayoutNotFound
		}
		return entities.Payout{}, fmt.Errorf("lock payout: %w", err)
	}
	names, err := loadStatusNames(t.db.WithContext(ctx))
	if err != nil {
		return entities.Payout{}, err
	}
	return row.toEntity(names[row.StatusID]), nil
}

func (t *ledgerTx) ListPendingPayoutsForUpdate(ctx context.Context, walletID string) ([]entities.Payout, error) {
	pendingID, err := t.statusID(ctx, entities.PayoutStatusPending)
	if errors.Is(err, domainerrors.ErrRepositoryInvariantBroke) {
		return []entities.Payout{}, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []payoutModel
	if err := forUpdate(t.db.WithContext(ctx)).
		Where("wallet_id = ? AND status_id = ?", walletID, pendingID).
		Order("txn_date ASC").
		Order("payout_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, fmt.Errorf("list pending payouts: %w", err)
	}
	items := make([]entities.Payout, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(entities.PayoutStatusPending))
	}
	return items, nil
}

func (t *ledgerTx) StampWithdrawalTransfer(ctx context.Context, withdrawalID string, transactionID string, updatedAt time.Time) (int, error) {
	result := t.db.WithContext(ctx).
		Model(&payoutModel{}).
		Where("withdrawal_id = ?", withdrawalID).
		Updates(map[string]any{
			"blockchain_txn_id": transactionID,
			"updated_at":        updatedAt.UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("stamp withdrawal: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (t *ledgerTx) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return fmt.Errorf("append outbox: %w", err)
	}
	return nil
}
