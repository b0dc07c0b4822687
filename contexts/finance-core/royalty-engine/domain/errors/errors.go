package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPercentage   = errors.New("split percentage must be between 0 and 100")
	ErrPercentagePrecision = errors.New("split percentage supports at most 6 decimal places")
	ErrDuplicateSplit      = errors.New("user already holds a split on this track")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrAmountOutOfRange    = errors.New("amount exceeds ledger precision")

	ErrIncompleteSplit         = errors.New("track splits do not sum to 100")
	ErrDuplicateDistribution   = errors.New("track already has a fixed-amount distribution")
	ErrInvalidPayoutTransition = errors.New("payout status transition not allowed")
	ErrWatermarkRegression     = errors.New("processed streams watermark cannot move backwards")
	ErrTrackHasRoyalties       = errors.New("track has distributed royalties and cannot be deleted")

	ErrNotTrackOwner = errors.New("only the track owner can change this track")

	ErrInsufficientBalance    = errors.New("amount exceeds wallet balance")
	ErrExceedsPendingCapacity = errors.New("amount exceeds total pending payouts")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrTrackNotFound          = errors.New("track not found")
	ErrPayoutNotFound         = errors.New("payout not found")
	ErrSplitNotFound          = errors.New("split not found")

	ErrTransferFailed = errors.New("external transfer failed")

	ErrIdempotencyKeyConflict   = errors.New("event id reused with different payload")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)

// IncompleteSplitError reports the observed percentage sum of a track whose
// splits cannot be distributed yet.
type IncompleteSplitError struct {
	TrackID string
	Sum     decimal.Decimal
}

func (e *IncompleteSplitError) Error() string {
	return fmt.Sprintf("track %s splits sum to %s, expected 100", e.TrackID, e.Sum.StringFixed(2))
}

func (e *IncompleteSplitError) Is(target error) bool {
	return target == ErrIncompleteSplit
}

type Kind string

const (
	KindValidation Kind = "validation"
	KindState      Kind = "state"
	KindPermission Kind = "permission"
	KindResource   Kind = "resource"
	KindExternal   Kind = "external"
	KindInternal   Kind = "internal"
)

// Category classifies err into the engine's error taxonomy.
func Category(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPercentage),
		errors.Is(err, ErrPercentagePrecision),
		errors.Is(err, ErrDuplicateSplit),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrAmountOutOfRange):
		return KindValidation
	case errors.Is(err, ErrIncompleteSplit),
		errors.Is(err, ErrDuplicateDistribution),
		errors.Is(err, ErrInvalidPayoutTransition),
		errors.Is(err, ErrWatermarkRegression),
		errors.Is(err, ErrTrackHasRoyalties):
		return KindState
	case errors.Is(err, ErrNotTrackOwner):
		return KindPermission
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrExceedsPendingCapacity),
		errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrTrackNotFound),
		errors.Is(err, ErrPayoutNotFound),
		errors.Is(err, ErrSplitNotFound):
		return KindResource
	case errors.Is(err, ErrTransferFailed):
		return KindExternal
	default:
		return KindInternal
	}
}
