package services

import (
	"strings"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"
	domainerrors "royalties/contexts/finance-core/royalty-engine/domain/errors"

	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	splitTolerance = decimal.RequireFromString("0.01")
)

// PercentageScale is the number of fractional digits a split keeps, enough
// for thirds such as 33.333 / 33.333 / 33.334.
const PercentageScale = 6

// ValidatePercentage accepts any value in [0, 100] with at most
// PercentageScale fractional digits.
func ValidatePercentage(percentage decimal.Decimal) error {
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return domainerrors.ErrInvalidPercentage
	}
	if !percentage.Equal(percentage.Round(PercentageScale)) {
		return domainerrors.ErrPercentagePrecision
	}
	return nil
}

// ValidateNewSplit checks the percentage and that userID holds no split on
// the track yet.
func ValidateNewSplit(existing []entities.Split, userID string, percentage decimal.Decimal) error {
	if strings.TrimSpace(userID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := ValidatePercentage(percentage); err != nil {
		return err
	}
	for _, split := range existing {
		if split.UserID == userID {
			return domainerrors.ErrDuplicateSplit
		}
	}
	return nil
}

func SumPercentages(splits []entities.Split) decimal.Decimal {
	sum := decimal.Zero
	for _, split := range splits {
		sum = sum.Add(split.Percentage)
	}
	return sum
}

// ValidateComplete requires the splits of a track to sum to 100 within 0.01.
func ValidateComplete(trackID string, splits []entities.Split) error {
	sum := SumPercentages(splits)
	if len(splits) == 0 || sum.Sub(hundred).Abs().GreaterThan(splitTolerance) {
		return &domainerrors.IncompleteSplitError{TrackID: trackID, Sum: sum}
	}
	return nil
}

// FindSplit returns the split with splitID from a track's split set.
func FindSplit(splits []entities.Split, splitID string) (entities.Split, error) {
	for _, split := range splits {
		if split.SplitID == splitID {
			return split, nil
		}
	}
	return entities.Split{}, domainerrors.ErrSplitNotFound
}
