package services

import (
	"strings"

	"royalties/contexts/finance-core/royalty-engine/domain/entities"

	"github.com/shopspring/decimal"
)

var genreRatesPerMinute = map[string]decimal.Decimal{
	"pop":    decimal.RequireFromString("0.50"),
	"rock":   decimal.RequireFromString("0.60"),
	"jazz":   decimal.RequireFromString("0.40"),
	"hiphop": decimal.RequireFromString("0.55"),
}

var defaultGenreRate = decimal.RequireFromString("0.50")

func GenreRatePerMinute(genre string) decimal.Decimal {
	if rate, ok := genreRatesPerMinute[strings.ToLower(strings.TrimSpace(genre))]; ok {
		return rate
	}
	return defaultGenreRate
}

// EstimateEarning is an informational duration x genre rate figure shown on
// track reads. Distributions never use it.
func EstimateEarning(track entities.Track) decimal.Decimal {
	minutes := decimal.NewFromInt(int64(track.DurationSeconds)).Div(decimal.NewFromInt(60))
	return entities.RoundMoney(minutes.Mul(GenreRatePerMinute(track.Genre)))
}
