package services

import (
	"sort"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"

	"github.com/shopspring/decimal"
)

var tenThousand = decimal.NewFromInt(10000)

type Share struct {
	SplitID    string
	UserID     string
	Percentage decimal.Decimal
	Gross      decimal.Decimal
	Net        decimal.Decimal
}

type ShareBreakdown struct {
	Shares   []Share
	NetTotal decimal.Decimal
	FeeTotal decimal.Decimal
}

// ComputeShares splits total across splits, deducting feePercent from each
// gross share. Shares come back ordered by user id, which is also the order
// wallets get locked in.
//
// Net shares are rounded half-up to cents. When a split set that sums to
// slightly over 100 pushes the net total above total, the excess is taken
// back from the largest share so a run never pays out more than it earned.
func ComputeShares(total decimal.Decimal, feePercent decimal.Decimal, splits []entities.Split) ShareBreakdown {
	ordered := append([]entities.Split(nil), splits...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UserID < ordered[j].UserID
	})

	keep := hundred.Sub(feePercent)
	shares := make([]Share, 0, len(ordered))
	netTotal := decimal.Zero
	largest := -1
	for _, split := range ordered {
		share := Share{
			SplitID:    split.SplitID,
			UserID:     split.UserID,
			Percentage: split.Percentage,
			Gross:      entities.RoundMoney(total.Mul(split.Percentage).Div(hundred)),
			Net:        entities.RoundMoney(total.Mul(split.Percentage).Mul(keep).Div(tenThousand)),
		}
		netTotal = netTotal.Add(share.Net)
		if largest < 0 || share.Net.GreaterThan(shares[largest].Net) {
			largest = len(shares)
		}
		shares = append(shares, share)
	}

	if excess := netTotal.Sub(total); excess.IsPositive() && largest >= 0 {
		shares[largest].Net = shares[largest].Net.Sub(excess)
		netTotal = total
	}

	return ShareBreakdown{
		Shares:   shares,
		NetTotal: netTotal,
		FeeTotal: total.Sub(netTotal),
	}
}
