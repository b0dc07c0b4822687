package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository is the gorm implementation of the royalty ledger. Writes go
// through WithinTx; the remaining methods are plain reads and the relay and
// dedup bookkeeping.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the ledger tables from the gorm models. Postgres
// deployments use the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&trackModel{},
		&streamModel{},
		&splitModel{},
		&royaltyModel{},
		&walletModel{},
		&payoutStatusModel{},
		&payoutModel{},
		&outboxModel{},
		&eventDedupModel{},
	)
}

func (r *Repository) WithinTx(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx, statusIDs: make(map[entities.PayoutStatus]int64)})
	})
}

func (r *Repository) GetTrack(ctx context.Context, trackID string) (entities.Track, error) {
	var row trackModel
	err := r.db.WithContext(ctx).
		Where("track_id = ?", strings.TrimSpace(trackID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Track{}, domainerrors.ErrTrackNotFound
		}
		return entities.Track{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTracks(ctx context.Context, filter ports.TrackFilter) (ports.TrackPage, error) {
	query := r.db.WithContext(ctx).Model(&trackModel{})
	if ownerID := strings.TrimSpace(filter.OwnerID); ownerID != "" {
		query = query.Where("owner_id = ?", ownerID)
	}
	if genre := strings.ToLower(strings.TrimSpace(filter.Genre)); genre != "" {
		query = query.Where("genre = ?", genre)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("(LOWER(title) LIKE ? OR genre LIKE ?)", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return ports.TrackPage{}, err
	}
	var rows []trackModel
	page := query.Order("created_at DESC").Order("track_id ASC").Offset(filter.Offset)
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if err := page.Find(&rows).Error; err != nil {
		return ports.TrackPage{}, err
	}
	items := make([]entities.Track, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return ports.TrackPage{Items: items, Total: total}, nil
}

func (r *Repository) ListSplits(ctx context.Context, trackID string) ([]entities.Split, error) {
	return listSplits(r.db.WithContext(ctx), trackID)
}

func (r *Repository) ListRoyalties(ctx context.Context, trackID string) ([]entities.Royalty, error) {
	var rows []royaltyModel
	if err := r.db.WithContext(ctx).
		Where("track_id = ?", strings.TrimSpace(trackID)).
		Order("distribution_date ASC").
		Order("royalty_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Royalty, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetWallet(ctx context.Context, walletID string) (entities.Wallet, error) {
	return findWallet(r.db.WithContext(ctx), "wallet_id = ?", strings.TrimSpace(walletID))
}

func (r *Repository) GetWalletByUser(ctx context.Context, userID string) (entities.Wallet, error) {
	return findWallet(r.db.WithContext(ctx), "user_id = ?", strings.TrimSpace(userID))
}

func (r *Repository) ListPayouts(ctx context.Context, walletID string) ([]entities.Payout, error) {
	db := r.db.WithContext(ctx)
	names, err := loadStatusNames(db)
	if err != nil {
		return nil, err
	}
	var rows []payoutModel
	if err := db.
		Where("wallet_id = ?", strings.TrimSpace(walletID)).
		Order("txn_date ASC").
		Order("payout_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Payout, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(names[row.StatusID]))
	}
	return items, nil
}

func (r *Repository) ListPayoutStatuses(ctx context.Context) ([]ports.PayoutStatusRecord, error) {
	var rows []payoutStatusModel
	if err := r.db.WithContext(ctx).
		Order("status_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.PayoutStatusRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
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

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyKeyConflict
	}
	return true, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&eventDedupModel{}).
		Error
}

func listSplits(db *gorm.DB, trackID string) ([]entities.Split, error) {
	var rows []splitModel
	if err := db.
		Where("track_id = ?", strings.TrimSpace(trackID)).
		Order("created_at ASC").
		Order("user_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Split, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func findWallet(db *gorm.DB, query string, arg string) (entities.Wallet, error) {
	var row walletModel
	if err := db.Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Wallet{}, domainerrors.ErrWalletNotFound
		}
		return entities.Wallet{}, err
	}
	return row.toEntity(), nil
}

func loadStatusNames(db *gorm.DB) (map[int64]entities.PayoutStatus, error) {
	var rows []payoutStatusModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	names := make(map[int64]entities.PayoutStatus, len(rows))
	for _, row := range rows {
		names[row.StatusID] = entities.PayoutStatus(row.StatusName)
	}
	return names, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
