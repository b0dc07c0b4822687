package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"
	"royalties/contexts/finance-core/royalty-engine/domain/services"
	"royalties/contexts/finance-core/royalty-engine/ports"

	"github.com/google/uuid"
)

// Store keeps the ledger in process memory. Transactions are serialised by
// one mutex and run against a private copy of the state that replaces the
// live state only when the callback succeeds.
type Store struct {
	mu sync.RWMutex

	state      *ledgerState
	eventDedup map[string]dedupRecord
}

type ledgerState struct {
	tracks    map[string]entities.Track
	splits    map[string]entities.Split
	streams   map[string]entities.StreamRecord
	royalties map[string]entities.Royalty
	wallets   map[string]entities.Wallet
	payouts   map[string]entities.Payout
	statuses  map[entities.PayoutStatus]int64
	outbox    map[string]outboxRecord
	sequence  int64
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
}

type outboxRecord struct {
	Message ports.OutboxMessage
	Seq     int64
	SentAt  *time.Time
}

func NewStore() *Store {
	return &Store{
		state: &ledgerState{
			tracks:    make(map[string]entities.Track),
			splits:    make(map[string]entities.Split),
			streams:   make(map[string]entities.StreamRecord),
			royalties: make(map[string]entities.Royalty),
			wallets:   make(map[string]entities.Wallet),
			payouts:   make(map[string]entities.Payout),
			statuses:  make(map[entities.PayoutStatus]int64),
			outbox:    make(map[string]outboxRecord),
		},
		eventDedup: make(map[string]dedupRecord),
	}
}

func (s *ledgerState) clone() *ledgerState {
	return &ledgerState{
		tracks:    cloneMap(s.tracks),
		splits:    cloneMap(s.splits),
		streams:   cloneMap(s.streams),
		royalties: cloneMap(s.royalties),
		wallets:   cloneMap(s.wallets),
		payouts:   cloneMap(s.payouts),
		statuses:  cloneMap(s.statuses),
		outbox:    cloneMap(s.outbox),
		sequence:  s.sequence,
	}
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	draft := s.state.clone()
	if err := fn(&ledgerTx{state: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

type ledgerTx struct {
	state *ledgerState
}

func (t *ledgerTx) CreateTrack(_ context.Context, track entities.Track) error {
	id := strings.TrimSpace(track.TrackID)
	if id == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, exists := t.state.tracks[id]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	t.state.tracks[id] = track
	return nil
}

func (t *ledgerTx) LockTrack(_ context.Context, trackID string) (entities.Track, error) {
	track, ok := t.state.tracks[strings.TrimSpace(trackID)]
	if !ok {
		return entities.Track{}, domainerrors.ErrTrackNotFound
	}
	return track, nil
}

func (t *ledgerTx) SaveTrack(_ context.Context, track entities.Track) error {
	existing, ok := t.state.tracks[track.TrackID]
	if !ok {
		return domainerrors.ErrTrackNotFound
	}
	track.ProcessedStreams = existing.ProcessedStreams
	track.OwnerID = existing.OwnerID
	track.CreatedAt = existing.CreatedAt
	t.state.tracks[track.TrackID] = track
	return nil
}

func (t *ledgerTx) DeleteTrack(_ context.Context, trackID string) error {
	trackID = strings.TrimSpace(trackID)
	if _, ok := t.state.tracks[trackID]; !ok {
		return domainerrors.ErrTrackNotFound
	}
	for _, royalty := range t.state.royalties {
		if royalty.TrackID == trackID {
			return domainerrors.ErrRepositoryInvariantBroke
		}
	}
	for id, split := range t.state.splits {
		if split.TrackID == trackID {
			delete(t.state.splits, id)
		}
	}
	for id, record := range t.state.streams {
		if record.TrackID == trackID {
			delete(t.state.streams, id)
		}
	}
	delete(t.state.tracks, trackID)
	return nil
}

func (t *ledgerTx) UpdateTrackWatermark(_ context.Context, trackID string, processedStreams int64, updatedAt time.Time) error {
	track, ok := t.state.tracks[strings.TrimSpace(trackID)]
	if !ok {
		return domainerrors.ErrTrackNotFound
	}
	if processedStreams < track.ProcessedStreams {
		return domainerrors.ErrWatermarkRegression
	}
	track.ProcessedStreams = processedStreams
	track.UpdatedAt = updatedAt.UTC()
	t.state.tracks[track.TrackID] = track
	return nil
}

func (t *ledgerTx) ListSplits(_ context.Context, trackID string) ([]entities.Split, error) {
	return t.state.listSplits(trackID), nil
}

func (t *ledgerTx) CreateSplit(_ context.Context, split entities.Split) error {
	if _, ok := t.state.tracks[split.TrackID]; !ok {
		return domainerrors.ErrTrackNotFound
	}
	for _, existing := range t.state.splits {
		if existing.TrackID == split.TrackID && existing.UserID == split.UserID {
			return domainerrors.ErrDuplicateSplit
		}
	}
	t.state.splits[split.SplitID] = split
	return nil
}

func (t *ledgerTx) SaveSplit(_ context.Context, split entities.Split) error {
	existing, ok := t.state.splits[split.SplitID]
	if !ok {
		return domainerrors.ErrSplitNotFound
	}
	existing.Percentage = split.Percentage
	t.state.splits[split.SplitID] = existing
	return nil
}

func (t *ledgerTx) DeleteSplit(_ context.Context, splitID string) error {
	if _, ok := t.state.splits[splitID]; !ok {
		return domainerrors.ErrSplitNotFound
	}
	delete(t.state.splits, splitID)
	return nil
}

func (t *ledgerTx) CreateStreamRecords(_ context.Context, records []entities.StreamRecord) error {
	for _, record := range records {
		if _, ok := t.state.tracks[record.TrackID]; !ok {
			return domainerrors.ErrTrackNotFound
		}
		t.state.streams[record.RecordID] = record
	}
	return nil
}

func (t *ledgerTx) SumBillableStreams(_ context.Context, trackID string) (int64, error) {
	var total int64
	for _, record := range t.state.streams {
		if record.TrackID == trackID {
			total += record.Billable()
		}
	}
	return total, nil
}

func (t *ledgerTx) HasRoyalty(_ context.Context, trackID string, mode entities.RoyaltyMode) (bool, error) {
	for _, royalty := range t.state.royalties {
		if royalty.TrackID == trackID && (mode == "" || royalty.Mode == mode) {
			return true, nil
		}
	}
	return false, nil
}

func (t *ledgerTx) CreateRoyalty(_ context.Context, royalty entities.Royalty) error {
	if _, exists := t.state.royalties[royalty.RoyaltyID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	t.state.royalties[royalty.RoyaltyID] = royalty
	return nil
}

func (t *ledgerTx) FindOrCreateWalletForUpdate(_ context.Context, candidate entities.Wallet) (entities.Wallet, error) {
	userID := strings.TrimSpace(candidate.UserID)
	if userID == "" || strings.TrimSpace(candidate.WalletID) == "" {
		return entities.Wallet{}, domainerrors.ErrInvalidRequest
	}
	if wallet, ok := t.state.walletByUser(userID); ok {
		return wallet, nil
	}
	t.state.wallets[candidate.WalletID] = candidate
	return candidate, nil
}

func (t *ledgerTx) LockWallet(_ context.Context, walletID string) (entities.Wallet, error) {
	wallet, ok := t.state.wallets[strings.TrimSpace(walletID)]
	if !ok {
		return entities.Wallet{}, domainerrors.ErrWalletNotFound
	}
	return wallet, nil
}

func (t *ledgerTx) SaveWallet(_ context.Context, wallet entities.Wallet) error {
	if _, ok := t.state.wallets[wallet.WalletID]; !ok {
		return domainerrors.ErrWalletNotFound
	}
	if wallet.Balance.IsNegative() {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	t.state.wallets[wallet.WalletID] = wallet
	return nil
}

func (t *ledgerTx) EnsurePayoutStatus(_ context.Context, status entities.PayoutStatus) error {
	if _, ok := t.state.statuses[status]; ok {
		return nil
	}
	t.state.statuses[status] = int64(len(t.state.statuses) + 1)
	return nil
}

func (t *ledgerTx) CreatePayout(_ context.Context, payout entities.Payout) error {
	if err := t.checkPayout(payout); err != nil {
		return err
	}
	if _, exists := t.state.payouts[payout.PayoutID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	t.state.payouts[payout.PayoutID] = payout
	return nil
}

func (t *ledgerTx) SavePayout(_ context.Context, payout entities.Payout) error {
	if _, ok := t.state.payouts[payout.PayoutID]; !ok {
		return domainerrors.ErrPayoutNotFound
	}
	if err := t.checkPayout(payout); err != nil {
		return err
	}
	t.state.payouts[payout.PayoutID] = payout
	return nil
}

// checkPayout mirrors the foreign keys of the relational schema.
func (t *ledgerTx) checkPayout(payout entities.Payout) error {
	if _, ok := t.state.wallets[payout.WalletID]; !ok {
		return domainerrors.ErrWalletNotFound
	}
	if _, ok := t.state.statuses[payout.Status]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	if payout.Amount.IsNegative() {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (t *ledgerTx) LockPayout(_ context.Context, payoutID string) (entities.Payout, error) {
	payout, ok := t.state.payouts[strings.TrimSpace(payoutID)]
	if !ok {
		return entities.Payout{}, domainerrors.ErrPayoutNotFound
	}
	return payout, nil
}

func (t *ledgerTx) ListPendingPayoutsForUpdate(_ context.Context, walletID string) ([]entities.Payout, error) {
	return services.OrderPending(t.state.listPayouts(walletID)), nil
}

func (t *ledgerTx) StampWithdrawalTransfer(_ context.Context, withdrawalID string, transactionID string, updatedAt time.Time) (int, error) {
	if strings.TrimSpace(withdrawalID) == "" {
		return 0, domainerrors.ErrInvalidRequest
	}
	stamped := 0
	for id, payout := range t.state.payouts {
		if payout.WithdrawalID != withdrawalID {
			continue
		}
		payout.BlockchainTxnID = transactionID
		payout.UpdatedAt = updatedAt.UTC()
		t.state.payouts[id] = payout
		stamped++
	}
	return stamped, nil
}

func (t *ledgerTx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, exists := t.state.outbox[outboxID]; exists {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	t.state.sequence++
	t.state.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Seq: t.state.sequence,
	}
	return nil
}

func (s *ledgerState) listSplits(trackID string) []entities.Split {
	items := make([]entities.Split, 0)
	for _, split := range s.splits {
		if split.TrackID == strings.TrimSpace(trackID) {
			items = append(items, split)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].UserID < items[j].UserID
	})
	return items
}

func (s *ledgerState) listPayouts(walletID string) []entities.Payout {
	items := make([]entities.Payout, 0)
	for _, payout := range s.payouts {
		if payout.WalletID == strings.TrimSpace(walletID) {
			items = append(items, payout)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].TxnDate.Equal(items[j].TxnDate) {
			return items[i].TxnDate.Before(items[j].TxnDate)
		}
		return items[i].PayoutID < items[j].PayoutID
	})
	return items
}

func (s *ledgerState) walletByUser(userID string) (entities.Wallet, bool) {
	for _, wallet := range s.wallets {
		if wallet.UserID == userID {
			return wallet, true
		}
	}
	return entities.Wallet{}, false
}

func (s *Store) GetTrack(_ context.Context, trackID string) (entities.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	track, ok := s.state.tracks[strings.TrimSpace(trackID)]
	if !ok {
		return entities.Track{}, domainerrors.ErrTrackNotFound
	}
	return track, nil
}

func (s *Store) ListTracks(_ context.Context, filter ports.TrackFilter) (ports.TrackPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ownerID := strings.TrimSpace(filter.OwnerID)
	genre := strings.ToLower(strings.TrimSpace(filter.Genre))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]entities.Track, 0)
	for _, track := range s.state.tracks {
		if ownerID != "" && track.OwnerID != ownerID {
			continue
		}
		if genre != "" && track.Genre != genre {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(track.Title), search) &&
			!strings.Contains(track.Genre, search) {
			continue
		}
		matched = append(matched, track)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].TrackID < matched[j].TrackID
	})

	page := ports.TrackPage{Items: []entities.Track{}, Total: int64(len(matched))}
	if filter.Offset >= len(matched) {
		return page, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	page.Items = append(page.Items, matched[filter.Offset:end]...)
	return page, nil
}

func (s *Store) ListSplits(_ context.Context, trackID string) ([]entities.Split, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listSplits(trackID), nil
}

func (s *Store) ListRoyalties(_ context.Context, trackID string) ([]entities.Royalty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Royalty, 0)
	for _, royalty := range s.state.royalties {
		if royalty.TrackID == strings.TrimSpace(trackID) {
			items = append(items, royalty)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].DistributionDate.Equal(items[j].DistributionDate) {
			return items[i].DistributionDate.Before(items[j].DistributionDate)
		}
		return items[i].RoyaltyID < items[j].RoyaltyID
	})
	return items, nil
}

func (s *Store) GetWallet(_ context.Context, walletID string) (entities.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet, ok := s.state.wallets[strings.TrimSpace(walletID)]
	if !ok {
		return entities.Wallet{}, domainerrors.ErrWalletNotFound
	}
	return wallet, nil
}

func (s *Store) GetWalletByUser(_ context.Context, userID string) (entities.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wallet, ok := s.state.walletByUser(strings.TrimSpace(userID))
	if !ok {
		return entities.Wallet{}, domainerrors.ErrWalletNotFound
	}
	return wallet, nil
}

func (s *Store) ListPayouts(_ context.Context, walletID string) ([]entities.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listPayouts(walletID), nil
}

func (s *Store) ListPayoutStatuses(_ context.Context) ([]ports.PayoutStatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.PayoutStatusRecord, 0, len(s.state.statuses))
	for name, id := range s.state.statuses {
		items = append(items, ports.PayoutStatusRecord{StatusID: id, StatusName: name})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].StatusID < items[j].StatusID
	})
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0)
	for _, row := range s.state.outbox {
		if row.SentAt == nil {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Seq < rows[j].Seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Message)
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(outboxID)
	row, ok := s.state.outbox[key]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	ts := sentAt.UTC()
	row.SentAt = &ts
	s.state.outbox[key] = row
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidRequest
	}
	if existing, ok := s.eventDedup[key]; ok {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrIdempotencyKeyConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.eventDedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
