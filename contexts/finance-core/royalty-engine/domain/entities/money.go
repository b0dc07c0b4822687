package entities

import "github.com/shopspring/decimal"

var (
	// MaxLedgerAmount is the largest value a NUMERIC(12,2) column holds.
	MaxLedgerAmount = decimal.RequireFromString("9999999999.99")

	// Distribution payouts are expected inside this range; settlement
	// remainders are not.
	MinPayoutAmount = decimal.RequireFromString("1.00")
	MaxPayoutAmount = decimal.RequireFromString("999999.99")
)

// RoundMoney rounds half away from zero to cents.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// IsCents reports whether v carries no more than two fractional digits.
func IsCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}
