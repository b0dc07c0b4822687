package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type Split struct {
	SplitID    string
	TrackID    string
	UserID     string
	Percentage decimal.Decimal
	CreatedAt  time.Time
}

type RoyaltyMode string

const (
	RoyaltyModeFixed   RoyaltyMode = "fixed"
	RoyaltyModeStreams RoyaltyMode = "streams"
)

// Royalty is the append-only audit record of one distribution run.
type Royalty struct {
	RoyaltyID        string
	TrackID          string
	Mode             RoyaltyMode
	TotalEarning     decimal.Decimal
	DistributionDate time.Time
	StreamsFrom      int64
	StreamsTo        int64
	RatePerStream    decimal.Decimal
}

// UserShares maps each split holder to round2(total * pct / 100).
func (r Royalty) UserShares(splits []Split) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(splits))
	for _, split := range splits {
		shares[split.UserID] = RoundMoney(r.TotalEarning.Mul(split.Percentage).Div(decimal.NewFromInt(100)))
	}
	return shares
}
