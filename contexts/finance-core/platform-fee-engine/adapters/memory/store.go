package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "royalties/contexts/finance-core/platform-fee-engine/domain/errors"
	"royalties/contexts/finance-core/platform-fee-engine/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	records    map[string]ports.FeeRecord
	byRoyalty  map[string]string
	eventDedup map[string]dedupRecord
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
}

func NewStore() *Store {
	return &Store{
		records:    make(map[string]ports.FeeRecord),
		byRoyalty:  make(map[string]string),
		eventDedup: make(map[string]dedupRecord),
	}
}

func (s *Store) CreateRecord(_ context.Context, record ports.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(record.RecordID)
	if id == "" || strings.TrimSpace(record.RoyaltyID) == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.byRoyalty[record.RoyaltyID]; exists {
		return domainerrors.ErrAlreadyRecorded
	}
	s.records[id] = record
	s.byRoyalty[record.RoyaltyID] = id
	return nil
}

func (s *Store) GetRecordByRoyalty(_ context.Context, royaltyID string) (ports.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRoyalty[strings.TrimSpace(royaltyID)]
	if !ok {
		return ports.FeeRecord{}, domainerrors.ErrNotFound
	}
	return s.records[id], nil
}

func (s *Store) ListRecordsByTrack(_ context.Context, trackID string, limit int, offset int) ([]ports.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]ports.FeeRecord, 0)
	for _, item := range s.records {
		if item.TrackID == strings.TrimSpace(trackID) {
			items = append(items, item)
		}
	}
	sortNewestFirst(items)
	if offset >= len(items) {
		return []ports.FeeRecord{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]ports.FeeRecord(nil), items[offset:end]...), nil
}

func (s *Store) ListRecordsBetween(_ context.Context, from time.Time, to time.Time) ([]ports.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.FeeRecord, 0)
	for _, item := range s.records {
		at := item.DistributedAt.UTC()
		if at.Before(from.UTC()) || !at.Before(to.UTC()) {
			continue
		}
		items = append(items, item)
	}
	sortNewestFirst(items)
	return items, nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidInput
	}
	if existing, ok := s.eventDedup[key]; ok {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrEventPayloadConflict
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

func sortNewestFirst(items []ports.FeeRecord) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].DistributedAt.Equal(items[j].DistributedAt) {
			return items[i].RecordID < items[j].RecordID
		}
		return items[i].DistributedAt.After(items[j].DistributedAt)
	})
}
