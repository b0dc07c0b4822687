package entities

import (
	"strings"
	"time"

	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
)

type Track struct {
	TrackID          string
	Title            string
	DurationSeconds  int
	Genre            string
	OwnerID          string
	NFTID            string
	PayoutAmount     decimal.Decimal
	RatePerStream    decimal.Decimal
	ProcessedStreams int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewTrack(
	trackID string,
	ownerID string,
	title string,
	durationSeconds int,
	genre string,
	payoutAmount decimal.Decimal,
	ratePerStream decimal.Decimal,
	createdAt time.Time,
) (Track, error) {
	if strings.TrimSpace(trackID) == "" ||
		strings.TrimSpace(ownerID) == "" ||
		strings.TrimSpace(title) == "" ||
		durationSeconds < 0 {
		return Track{}, domainerrors.ErrInvalidRequest
	}
	if payoutAmount.IsNegative() || ratePerStream.IsNegative() {
		return Track{}, domainerrors.ErrInvalidAmount
	}
	if payoutAmount.GreaterThan(MaxLedgerAmount) {
		return Track{}, domainerrors.ErrAmountOutOfRange
	}
	return Track{
		TrackID:         strings.TrimSpace(trackID),
		Title:           strings.TrimSpace(title),
		DurationSeconds: durationSeconds,
		Genre:           strings.ToLower(strings.TrimSpace(genre)),
		OwnerID:         strings.TrimSpace(ownerID),
		PayoutAmount:    RoundMoney(payoutAmount),
		RatePerStream:   ratePerStream,
		CreatedAt:       createdAt.UTC(),
		UpdatedAt:       createdAt.UTC(),
	}, nil
}

// AuthorizeOwner allows the track owner. An empty actorID is an internal
// caller such as the distribution trigger and is always allowed.
func (t Track) AuthorizeOwner(actorID string) error {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" || actorID == t.OwnerID {
		return nil
	}
	return domainerrors.ErrNotTrackOwner
}

// TrackChanges lists the editable track fields; nil leaves a field as is.
type TrackChanges struct {
	Title           *string
	DurationSeconds *int
	Genre           *string
	NFTID           *string
	PayoutAmount    *decimal.Decimal
	RatePerStream   *decimal.Decimal
}

// Apply validates changes the same way NewTrack validates a new track.
func (t *Track) Apply(changes TrackChanges, now time.Time) error {
	next := *t
	if changes.Title != nil {
		next.Title = strings.TrimSpace(*changes.Title)
		if next.Title == "" {
			return domainerrors.ErrInvalidRequest
		}
	}
	if changes.DurationSeconds != nil {
		if *changes.DurationSeconds < 0 {
			return domainerrors.ErrInvalidRequest
		}
		next.DurationSeconds = *changes.DurationSeconds
	}
	if changes.Genre != nil {
		next.Genre = strings.ToLower(strings.TrimSpace(*changes.Genre))
	}
	if changes.NFTID != nil {
		next.NFTID = strings.TrimSpace(*changes.NFTID)
	}
	if changes.PayoutAmount != nil {
		if changes.PayoutAmount.IsNegative() {
			return domainerrors.ErrInvalidAmount
		}
		if changes.PayoutAmount.GreaterThan(MaxLedgerAmount) {
			return domainerrors.ErrAmountOutOfRange
		}
		next.PayoutAmount = RoundMoney(*changes.PayoutAmount)
	}
	if changes.RatePerStream != nil {
		if changes.RatePerStream.IsNegative() {
			return domainerrors.ErrInvalidAmount
		}
		next.RatePerStream = *changes.RatePerStream
	}
	next.UpdatedAt = now.UTC()
	*t = next
	return nil
}

// AdvanceWatermark records total as the number of streams already paid for.
func (t *Track) AdvanceWatermark(total int64, now time.Time) error {
	if total < t.ProcessedStreams {
		return domainerrors.ErrWatermarkRegression
	}
	t.ProcessedStreams = total
	t.UpdatedAt = now.UTC()
	return nil
}

type StreamRecord struct {
	RecordID    string
	TrackID     string
	Platform    string
	StreamCount int64
	RecordedOn  time.Time
	FraudFlag   bool
	CreatedAt   time.Time
}

func (r StreamRecord) Billable() int64 {
	if r.FraudFlag || r.StreamCount < 0 {
		return 0
	}
	return r.StreamCount
}
